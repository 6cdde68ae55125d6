package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/client/api"
	"github.com/nkiryanov/sharefin/internal/client/provider"
	"github.com/nkiryanov/sharefin/internal/logger"
	"github.com/nkiryanov/sharefin/internal/service/ledger"
)

type Status int

const (
	StatusUnauthenticated Status = iota
	StatusLoading
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State of the current session
// AllTransactions is loaded for admins only
type State struct {
	Status          Status
	User            *api.User
	Profile         *api.Profile
	Transactions    []api.Transaction
	AllTransactions []api.Transaction

	// Error of the last load, if any
	Err error
}

func (s State) clone() State {
	c := s
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	if s.Profile != nil {
		p := *s.Profile
		c.Profile = &p
	}
	c.Transactions = slices.Clone(s.Transactions)
	c.AllTransactions = slices.Clone(s.AllTransactions)
	return c
}

type identityProvider interface {
	CurrentSession(ctx context.Context) (*api.Session, error)
	OnSessionChange(fn provider.Listener) (unsubscribe func())
	SignOut(ctx context.Context) error
}

type backend interface {
	Profile(ctx context.Context, access string) (api.Profile, error)
	ListTransactions(ctx context.Context, access string) ([]api.Transaction, error)
	ListAllTransactions(ctx context.Context, access string) ([]api.Transaction, error)
	CreateTransaction(ctx context.Context, access string, txType string, amount decimal.Decimal) (api.Transaction, error)
}

type Config struct {
	Provider identityProvider
	Backend  backend
	Logger   logger.Logger

	// Called from the reducer goroutine with a copy of every new state
	// Changes are delivered in order
	OnChange func(State)
}

// Messages handled by the reducer
type (
	sessionChanged struct {
		event   provider.Event
		session *api.Session
	}

	// Result of a load started for generation gen
	loaded struct {
		gen   uint64
		state State
	}

	// Local change valid only while generation is still gen
	mutation struct {
		gen uint64
		fn  func(*State)
	}
)

const inboxSize = 16

// Store keeps the current identity, profile and transactions in sync with the identity provider
// Every change is applied by one reducer goroutine; loads run concurrently and their
// results are dropped if a newer session event arrived meanwhile
type Store struct {
	provider identityProvider
	backend  backend
	logger   logger.Logger
	onChange func(State)

	inbox chan any
	done  chan struct{}
	wg    sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	gen         uint64 // bumped on every session event
	cancelLoad  context.CancelFunc
	pending     int           // enqueued messages not yet reduced
	changed     chan struct{} // closed and replaced on every change
	started     bool
	unsubscribe func()

	disposeOnce sync.Once
}

func New(cfg Config) *Store {
	l := cfg.Logger
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Store{
		provider: cfg.Provider,
		backend:  cfg.Backend,
		logger:   l,
		onChange: cfg.OnChange,
		inbox:    make(chan any, inboxSize),
		done:     make(chan struct{}),
		changed:  make(chan struct{}),
	}
}

// Start listening to the provider and load the current session
// A missing session is not an error: the store settles as unauthenticated
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("session store is already initialized")
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	// First load runs before the reducer so no event can observe the initial state
	s.gen++
	s.state = State{Status: StatusLoading}
	loadCtx, cancel := context.WithCancel(s.ctx)
	s.cancelLoad = cancel
	gen := s.gen
	s.mu.Unlock()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.reduceLoop()
	}()
	go func() {
		defer s.wg.Done()
		s.load(loadCtx, gen, nil)
	}()

	unsubscribe := s.provider.OnSessionChange(func(event provider.Event, session *api.Session) {
		s.enqueue(sessionChanged{event: event, session: session})
	})
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	return nil
}

// Stop listening to the provider and stop the reducer
// Safe to call more than once
func (s *Store) Dispose() {
	s.disposeOnce.Do(func() {
		s.mu.Lock()
		unsubscribe := s.unsubscribe
		cancel := s.cancel
		s.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}
		if cancel != nil {
			cancel()
		}
		close(s.done)
		s.wg.Wait()
	})
}

// Return copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Block until every received event is handled and the state is not loading
func (s *Store) WaitSettled(ctx context.Context) (State, error) {
	for {
		s.mu.Lock()
		settled := s.pending == 0 && s.state.Status != StatusLoading
		state := s.state.clone()
		changed := s.changed
		s.mu.Unlock()

		if settled {
			return state, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return state, ctx.Err()
		case <-s.done:
			return state, errors.New("session store is disposed")
		}
	}
}

// Sign out and clear local state
func (s *Store) Logout(ctx context.Context) error {
	err := s.provider.SignOut(ctx)
	if err != nil {
		// Provider did not confirm sign out, clear local state anyway
		s.enqueue(sessionChanged{event: provider.EventSignedOut})
	}

	if _, waitErr := s.WaitSettled(ctx); waitErr != nil {
		return errors.Join(err, waitErr)
	}
	return err
}

// Create pending transaction request of the current user
// Balance is not changed locally, it changes only when the request is approved
func (s *Store) SubmitTransactionRequest(ctx context.Context, amount decimal.Decimal, txType string) (api.Transaction, error) {
	if err := ledger.ValidateRequest(txType, amount); err != nil {
		return api.Transaction{}, err
	}

	s.mu.Lock()
	status, gen, hasUser := s.state.Status, s.gen, s.state.User != nil
	s.mu.Unlock()

	switch {
	case status == StatusLoading:
		return api.Transaction{}, apperrors.ErrSessionLoading
	case status != StatusAuthenticated || !hasUser:
		return api.Transaction{}, apperrors.ErrSessionMissing
	}

	session, err := s.provider.CurrentSession(ctx)
	if err != nil {
		return api.Transaction{}, err
	}
	if session == nil {
		return api.Transaction{}, apperrors.ErrSessionMissing
	}

	t, err := s.backend.CreateTransaction(ctx, session.AccessToken, txType, amount)
	if err != nil {
		return t, err
	}

	s.enqueue(mutation{gen: gen, fn: func(st *State) {
		st.Transactions = append([]api.Transaction{t}, st.Transactions...)
	}})
	return t, nil
}

func (s *Store) enqueue(msg any) {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()

	select {
	case s.inbox <- msg:
	case <-s.done:
	}
}

func (s *Store) reduceLoop() {
	for {
		select {
		case <-s.done:
			s.mu.Lock()
			if s.cancelLoad != nil {
				s.cancelLoad()
			}
			s.mu.Unlock()
			return
		case msg := <-s.inbox:
			s.reduce(msg)
		}
	}
}

func (s *Store) reduce(msg any) {
	s.mu.Lock()
	next, changed := s.apply(msg)
	if changed {
		s.state = next
	}
	s.pending--
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()

	if changed && s.onChange != nil {
		s.onChange(next.clone())
	}
}

// Compute next state, must be called holding mu
func (s *Store) apply(msg any) (State, bool) {
	switch m := msg.(type) {
	case sessionChanged:
		s.gen++
		if s.cancelLoad != nil {
			s.cancelLoad()
			s.cancelLoad = nil
		}

		if m.session == nil {
			s.logger.Debug("session cleared", "event", m.event)
			return State{Status: StatusUnauthenticated}, true
		}

		s.logger.Debug("session changed, reloading", "event", m.event, "username", m.session.User.Username)
		next := s.state.clone()
		next.Status = StatusLoading

		loadCtx, cancel := context.WithCancel(s.ctx)
		s.cancelLoad = cancel
		gen := s.gen
		session := *m.session
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.load(loadCtx, gen, &session)
		}()
		return next, true

	case loaded:
		if m.gen != s.gen {
			s.logger.Debug("stale load result discarded", "gen", m.gen, "current", s.gen)
			return State{}, false
		}
		s.cancelLoad = nil
		return m.state, true

	case mutation:
		if m.gen != s.gen {
			return State{}, false
		}
		next := s.state.clone()
		m.fn(&next)
		return next, true

	default:
		return State{}, false
	}
}

// Load everything visible to the session, nil session means current session of the provider
func (s *Store) load(ctx context.Context, gen uint64, session *api.Session) {
	st := s.fetch(ctx, session)
	s.enqueue(loaded{gen: gen, state: st})
}

func (s *Store) fetch(ctx context.Context, session *api.Session) State {
	if session == nil {
		current, err := s.provider.CurrentSession(ctx)
		if err != nil {
			s.logger.Warn("can't get current session", "error", err)
			return State{Status: StatusUnauthenticated, Err: err}
		}
		if current == nil {
			return State{Status: StatusUnauthenticated}
		}
		session = current
	}

	user := session.User
	st := State{Status: StatusAuthenticated, User: &user}

	profile, err := s.backend.Profile(ctx, session.AccessToken)
	if err != nil {
		return s.loadFailed(user, fmt.Errorf("load profile: %w", err))
	}
	st.Profile = &profile
	st.User.IsAdmin = profile.IsAdmin

	st.Transactions, err = s.backend.ListTransactions(ctx, session.AccessToken)
	if err != nil {
		return s.loadFailed(user, fmt.Errorf("load transactions: %w", err))
	}

	if profile.IsAdmin {
		st.AllTransactions, err = s.backend.ListAllTransactions(ctx, session.AccessToken)
		if err != nil {
			return s.loadFailed(user, fmt.Errorf("load all transactions: %w", err))
		}
	}

	return st
}

// Session without profile is not usable: settle as unauthenticated and keep the error
func (s *Store) loadFailed(user api.User, err error) State {
	if !errors.Is(err, context.Canceled) {
		s.logger.Warn("can't load session data", "username", user.Username, "error", err)
	}
	return State{Status: StatusUnauthenticated, Err: err}
}
