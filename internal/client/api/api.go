package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/sharefin/internal/apperrors"
)

const (
	accessHeaderName  = "Authorization"
	accessAuthScheme  = "Bearer"
	refreshCookieName = "refreshtoken"

	defaultTimeout = 10 * time.Second
)

type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"is_admin"`
}

// Session issued by the server
type Session struct {
	AccessToken  string
	RefreshToken string

	// Expiration of the access token
	ExpiresAt time.Time

	User User
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

type Profile struct {
	ID               uuid.UUID       `json:"id"`
	FullName         string          `json:"full_name"`
	AvatarURL        string          `json:"avatar_url"`
	KYCStatus        string          `json:"kyc_status"`
	IsAdmin          bool            `json:"is_admin"`
	Balance          decimal.Decimal `json:"balance"`
	TotalEarnings    decimal.Decimal `json:"total_earnings"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Fields to change, nil fields are left as is
type ProfileUpdate struct {
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	UserName  string          `json:"user_name,omitempty"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Ticket struct {
	ID          uuid.UUID `json:"id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
}

type Notification struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

// Client of the sharefin HTTP API
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates client; default http client with timeout is used if httpClient is nil
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) Register(ctx context.Context, login string, password string, fullName string) (Session, error) {
	payload := map[string]string{"login": login, "password": password, "full_name": fullName}
	resp, err := c.send(ctx, http.MethodPost, "/api/user/register", "", payload, nil)
	if err != nil {
		return Session{}, err
	}
	return sessionFromResponse(resp, login)
}

func (c *Client) Login(ctx context.Context, login string, password string) (Session, error) {
	payload := map[string]string{"login": login, "password": password}
	resp, err := c.send(ctx, http.MethodPost, "/api/user/login", "", payload, nil)
	if err != nil {
		return Session{}, err
	}
	return sessionFromResponse(resp, login)
}

// Exchange refresh token for the new session
// Username is not known from tokens, the caller has to keep it
func (c *Client) Refresh(ctx context.Context, refresh string) (Session, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/user/refresh", "", nil, &http.Cookie{Name: refreshCookieName, Value: refresh})
	if err != nil {
		return Session{}, err
	}
	return sessionFromResponse(resp, "")
}

func (c *Client) Logout(ctx context.Context, refresh string) error {
	_, err := c.send(ctx, http.MethodPost, "/api/user/logout", "", nil, &http.Cookie{Name: refreshCookieName, Value: refresh})
	return err
}

func (c *Client) Me(ctx context.Context, access string) (User, error) {
	var u User
	return u, c.do(ctx, http.MethodGet, "/api/user/me", access, nil, &u)
}

func (c *Client) Profile(ctx context.Context, access string) (Profile, error) {
	var p Profile
	return p, c.do(ctx, http.MethodGet, "/api/user/profile", access, nil, &p)
}

func (c *Client) UpdateProfile(ctx context.Context, access string, u ProfileUpdate) (Profile, error) {
	var p Profile
	return p, c.do(ctx, http.MethodPatch, "/api/user/profile", access, u, &p)
}

func (c *Client) ListTransactions(ctx context.Context, access string) ([]Transaction, error) {
	var ts []Transaction
	return ts, c.do(ctx, http.MethodGet, "/api/user/transactions", access, nil, &ts)
}

func (c *Client) CreateTransaction(ctx context.Context, access string, txType string, amount decimal.Decimal) (Transaction, error) {
	var t Transaction
	payload := map[string]string{"type": txType, "amount": amount.String()}
	return t, c.do(ctx, http.MethodPost, "/api/user/transactions", access, payload, &t)
}

func (c *Client) ListAllTransactions(ctx context.Context, access string) ([]Transaction, error) {
	var ts []Transaction
	return ts, c.do(ctx, http.MethodGet, "/api/admin/transactions", access, nil, &ts)
}

func (c *Client) Approve(ctx context.Context, access string, transactionID uuid.UUID) (Transaction, error) {
	var t Transaction
	return t, c.do(ctx, http.MethodPost, "/api/admin/transactions/"+transactionID.String()+"/approve", access, nil, &t)
}

func (c *Client) CreateTicket(ctx context.Context, access string, subject string, description string, priority string) (Ticket, error) {
	var t Ticket
	payload := map[string]string{"subject": subject, "description": description, "priority": priority}
	return t, c.do(ctx, http.MethodPost, "/api/user/tickets", access, payload, &t)
}

func (c *Client) ListTickets(ctx context.Context, access string) ([]Ticket, error) {
	var ts []Ticket
	return ts, c.do(ctx, http.MethodGet, "/api/user/tickets", access, nil, &ts)
}

func (c *Client) ListNotifications(ctx context.Context, access string) ([]Notification, error) {
	var ns []Notification
	return ns, c.do(ctx, http.MethodGet, "/api/user/notifications", access, nil, &ns)
}

func (c *Client) MarkNotificationRead(ctx context.Context, access string, id uuid.UUID) (Notification, error) {
	var n Notification
	return n, c.do(ctx, http.MethodPost, "/api/user/notifications/"+id.String()+"/read", access, nil, &n)
}

// Send request and decode response body to out
func (c *Client) do(ctx context.Context, method string, path string, access string, payload any, out any) error {
	resp, err := c.send(ctx, method, path, access, payload, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: can't decode response of %s %s. Err: %w", apperrors.ErrRemoteStore, method, path, err)
	}
	return nil
}

// Send request, non 2xx responses are returned as *Error
// Caller has to close the body of the returned response
func (c *Client) send(ctx context.Context, method string, path string, access string, payload any, cookie *http.Cookie) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("can't encode request. Err: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("can't create request. Err: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set(accessHeaderName, accessAuthScheme+" "+access)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s failed. Err: %w", apperrors.ErrRemoteStore, method, path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close() // nolint:errcheck

	var eb errorBody
	_ = json.NewDecoder(resp.Body).Decode(&eb)
	return nil, newError(resp.StatusCode, eb)
}

// Build session from access header and refresh cookie
// Signature of the access token is not checked, the client only needs its claims
func sessionFromResponse(resp *http.Response, username string) (Session, error) {
	defer resp.Body.Close() // nolint:errcheck

	scheme, access, found := strings.Cut(resp.Header.Get(accessHeaderName), " ")
	if !found || !strings.EqualFold(scheme, accessAuthScheme) || access == "" {
		return Session{}, fmt.Errorf("%w: access token missing in response", apperrors.ErrRemoteStore)
	}

	var refresh string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == refreshCookieName {
			refresh = cookie.Value
		}
	}
	if refresh == "" {
		return Session{}, fmt.Errorf("%w: refresh token missing in response", apperrors.ErrRemoteStore)
	}

	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return Session{}, fmt.Errorf("%w: malformed access token. Err: %w", apperrors.ErrRemoteStore, err)
	}

	s := Session{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         User{ID: claims.UserID, Username: claims.Username},
	}
	if s.User.Username == "" {
		s.User.Username = username
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

type accessClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"uid"`
	Username string    `json:"name"`
}
