package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/client/api"
	"github.com/nkiryanov/sharefin/internal/client/cache"
	"github.com/nkiryanov/sharefin/internal/logger"
)

type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventUserUpdated    Event = "USER_UPDATED"
)

// Access token is refreshed a bit before it expires
const expiryLeeway = 10 * time.Second

// Listener receives every session change; session is nil after sign out
type Listener func(event Event, session *api.Session)

type apiClient interface {
	Register(ctx context.Context, login string, password string, fullName string) (api.Session, error)
	Login(ctx context.Context, login string, password string) (api.Session, error)
	Refresh(ctx context.Context, refresh string) (api.Session, error)
	Logout(ctx context.Context, refresh string) error
	Me(ctx context.Context, access string) (api.User, error)
	UpdateProfile(ctx context.Context, access string, u api.ProfileUpdate) (api.Profile, error)
}

// Provider keeps the session issued by the server in the local cache
// and notifies listeners when it changes
type Provider struct {
	api    apiClient
	cache  *cache.Store
	logger logger.Logger
	now    func() time.Time

	// Serializes session reads and writes, so concurrent callers refresh token once
	sessionMu sync.Mutex

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func New(apiClient apiClient, store *cache.Store, l logger.Logger) *Provider {
	return &Provider{
		api:       apiClient,
		cache:     store,
		logger:    l,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
}

// Register listener; call returned func to unregister it
func (p *Provider) OnSessionChange(fn Listener) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.listeners, id)
		})
	}
}

// Return cached session, refresh it if access token is expired
// No session (or rejected refresh) is not an error: nil session is returned
func (p *Provider) CurrentSession(ctx context.Context) (*api.Session, error) {
	p.sessionMu.Lock()
	defer p.sessionMu.Unlock()

	st := p.cache.Load()
	if st.Session == nil || st.User == nil {
		return nil, nil
	}

	session := sessionFromCache(st)
	if !session.Expired(p.now().Add(expiryLeeway)) {
		return &session, nil
	}

	refreshed, err := p.api.Refresh(ctx, session.RefreshToken)
	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated):
		p.logger.Info("session expired", "username", session.User.Username)
		if err := p.clearSession(); err != nil {
			return nil, err
		}
		p.emit(EventSignedOut, nil)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("can't refresh session. Err: %w", err)
	}

	refreshed.User = session.User
	if err := p.saveSession(refreshed); err != nil {
		return nil, err
	}
	p.emit(EventTokenRefreshed, &refreshed)
	return &refreshed, nil
}

func (p *Provider) SignIn(ctx context.Context, login string, password string) (*api.Session, error) {
	session, err := p.api.Login(ctx, login, password)
	if err != nil {
		return nil, err
	}
	return p.signedIn(ctx, session)
}

func (p *Provider) SignUp(ctx context.Context, login string, password string, fullName string) (*api.Session, error) {
	session, err := p.api.Register(ctx, login, password, fullName)
	if err != nil {
		return nil, err
	}
	return p.signedIn(ctx, session)
}

// Revoke session on the server and forget it locally
// Server errors are logged only: local sign out always proceeds
func (p *Provider) SignOut(ctx context.Context) error {
	p.sessionMu.Lock()
	st := p.cache.Load()
	if st.Session != nil {
		if err := p.api.Logout(ctx, st.Session.RefreshToken); err != nil {
			p.logger.Warn("can't revoke session on server", "error", err)
		}
	}
	err := p.clearSession()
	p.sessionMu.Unlock()

	p.emit(EventSignedOut, nil)
	return err
}

// Update profile details of the current user
func (p *Provider) UpdateUser(ctx context.Context, u api.ProfileUpdate) (api.Profile, error) {
	session, err := p.CurrentSession(ctx)
	if err != nil {
		return api.Profile{}, err
	}
	if session == nil {
		return api.Profile{}, apperrors.ErrSessionMissing
	}

	profile, err := p.api.UpdateProfile(ctx, session.AccessToken, u)
	if err != nil {
		return profile, err
	}

	p.emit(EventUserUpdated, session)
	return profile, nil
}

func (p *Provider) signedIn(ctx context.Context, session api.Session) (*api.Session, error) {
	me, err := p.api.Me(ctx, session.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("can't load signed in user. Err: %w", err)
	}
	session.User = me

	p.sessionMu.Lock()
	err = p.saveSession(session)
	p.sessionMu.Unlock()
	if err != nil {
		return nil, err
	}

	p.emit(EventSignedIn, &session)
	return &session, nil
}

func (p *Provider) emit(event Event, session *api.Session) {
	p.mu.Lock()
	listeners := make([]Listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(event, session)
	}
}

func (p *Provider) saveSession(s api.Session) error {
	return p.cache.Update(func(st *cache.State) {
		st.User = &cache.User{ID: s.User.ID, Username: s.User.Username, IsAdmin: s.User.IsAdmin}
		st.Session = &cache.Session{
			AccessToken:  s.AccessToken,
			RefreshToken: s.RefreshToken,
			ExpiresAt:    s.ExpiresAt,
		}
	})
}

func (p *Provider) clearSession() error {
	return p.cache.Update(func(st *cache.State) {
		st.User = nil
		st.Session = nil
	})
}

func sessionFromCache(st cache.State) api.Session {
	return api.Session{
		AccessToken:  st.Session.AccessToken,
		RefreshToken: st.Session.RefreshToken,
		ExpiresAt:    st.Session.ExpiresAt,
		User: api.User{
			ID:       st.User.ID,
			Username: st.User.Username,
			IsAdmin:  st.User.IsAdmin,
		},
	}
}
