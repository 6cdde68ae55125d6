package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	ValidationErrorType = "validation_failed"
	DecodingErrorType   = "decoding_failed"
	ServiceErrorType    = "service_error"
)

// Request bodies are small JSON documents
const maxBodySize = 64 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Report fields by json name, so messages match what clients send
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Messages by validation tag, '%s' is replaced with the tag param
var validationMessages = map[string]string{
	"required": "This field is required",
	"min":      "Value is too short (minimum %s)",
	"max":      "Value is too long (maximum %s)",
	"oneof":    "Value must be one of: %s",
	"url":      "Value must be a valid URL",
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	JSONStatus(w, data, http.StatusOK)
}

// Encode data first, so nothing is written if it fails
func JSONStatus(w http.ResponseWriter, data any, code int) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

func ServiceError(w http.ResponseWriter, message string, code int) {
	JSONStatus(w, ErrorResponse{Error: ServiceErrorType, Message: message}, code)
}

func DecodeError(w http.ResponseWriter, err error) {
	code := http.StatusBadRequest

	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		sizeErr   *http.MaxBytesError
		message   string
	)
	switch {
	case errors.Is(err, io.EOF):
		message = "Request body is empty"
	case errors.As(err, &typeErr):
		message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	case errors.As(err, &syntaxErr):
		message = fmt.Sprintf("Malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &sizeErr):
		message = fmt.Sprintf("Request body is too large (maximum %d bytes)", sizeErr.Limit)
		code = http.StatusRequestEntityTooLarge
	default:
		message = fmt.Sprintf("Failed to parse JSON: %s", err)
	}

	JSONStatus(w, ErrorResponse{Error: DecodingErrorType, Message: message}, code)
}

func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		message, ok := validationMessages[fe.Tag()]
		if !ok {
			message = "Invalid value"
		}
		if strings.Contains(message, "%s") {
			message = fmt.Sprintf(message, fe.Param())
		}
		fields[fe.Field()] = message
	}

	JSONStatus(w, ErrorResponse{
		Error:   ValidationErrorType,
		Message: "Request validation failed",
		Fields:  fields,
	}, http.StatusBadRequest)
}

// Decode JSON body into T and validate it by struct tags
// Failures are rendered to w, so the caller only has to return
func BindAndValidate[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(&value); err != nil {
		DecodeError(w, err)
		return value, err
	}

	if err := validate.Struct(value); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			ServiceError(w, "Request could not be validated", http.StatusInternalServerError)
			return value, err
		}
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}
