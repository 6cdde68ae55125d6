package render

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_JSON(t *testing.T) {
	rec := httptest.NewRecorder()

	JSON(rec, map[string]any{"balance": "500.00", "pending": 2})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"balance": "500.00", "pending": 2}`, rec.Body.String())
}

func TestRender_JSONStatus(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		rec := httptest.NewRecorder()

		JSONStatus(rec, map[string]string{"id": "1"}, http.StatusCreated)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"id": "1"}`, rec.Body.String())
	})

	t.Run("not encodable", func(t *testing.T) {
		rec := httptest.NewRecorder()

		JSONStatus(rec, map[string]any{"fn": func() {}}, http.StatusCreated)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotEqual(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	})
}

func TestRender_ServiceError(t *testing.T) {
	rec := httptest.NewRecorder()

	ServiceError(rec, "Transaction is not pending", http.StatusConflict)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error": "service_error", "message": "Transaction is not pending"}`, rec.Body.String())
}

func TestRender_BindAndValidate(t *testing.T) {
	type ticketRequest struct {
		Subject  string `json:"subject" validate:"required,max=10"`
		Priority string `json:"priority" validate:"omitempty,oneof=low medium high"`
		Count    int    `json:"count" validate:"min=1"`
		Link     string `json:"link" validate:"omitempty,url"`
		Email    string `json:"email" validate:"omitempty,email"`
		Internal string `json:"-"`
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := BindAndValidate[ticketRequest](w, r)
		if err != nil {
			return
		}
		JSONStatus(w, map[string]string{"subject": req.Subject}, http.StatusCreated)
	})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid",
			body:       `{"subject": "Card", "priority": "high", "count": 1}`,
			wantStatus: http.StatusCreated,
			wantBody:   `{"subject": "Card"}`,
		},
		{
			name:       "empty body",
			body:       ``,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error": "decoding_failed", "message": "Request body is empty"}`,
		},
		{
			name:       "malformed",
			body:       `{"subject": `,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error": "decoding_failed", "message": "Failed to parse JSON: unexpected EOF"}`,
		},
		{
			name:       "syntax",
			body:       `{"subject" "Card"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error": "decoding_failed", "message": "Malformed JSON at offset 12"}`,
		},
		{
			name:       "wrong type",
			body:       `{"subject": "Card", "count": "one"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error": "decoding_failed", "message": "Invalid data type for field 'count'"}`,
		},
		{
			name:       "too large",
			body:       `{"subject": "` + strings.Repeat("a", maxBodySize) + `"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantBody:   `{"error": "decoding_failed", "message": "Request body is too large (maximum 65536 bytes)"}`,
		},
		{
			name:       "validation",
			body:       `{"subject": "", "priority": "urgent", "count": 0, "link": "nope", "email": "nope"}`,
			wantStatus: http.StatusBadRequest,
			wantBody: `{
				"error": "validation_failed",
				"message": "Request validation failed",
				"fields": {
					"subject": "This field is required",
					"priority": "Value must be one of: low medium high",
					"count": "Value is too short (minimum 1)",
					"link": "Value must be a valid URL",
					"email": "Invalid value"
				}
			}`,
		},
		{
			name:       "max",
			body:       `{"subject": "Card declined twice", "count": 1}`,
			wantStatus: http.StatusBadRequest,
			wantBody: `{
				"error": "validation_failed",
				"message": "Request validation failed",
				"fields": {"subject": "Value is too long (maximum 10)"}
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/user/tickets", strings.NewReader(tt.body))

			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
