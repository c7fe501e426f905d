package identity

import (
	"context"
	"errors"
	"sync"

	"byteboard/internal/storage"

	"github.com/rs/zerolog"
)

var ErrNoToken = errors.New("no provider token supplied")

// tokenKey is where the GitHub provider token is persisted between
// sessions.
const tokenKey = "byteboard_provider_token"

type Event string

const (
	EventSignedIn  Event = "signed_in"
	EventSignedOut Event = "signed_out"
)

// Credentials is the only shape the rest of the system consumes:
// who the user is and the token that reads their GitHub data.
type Credentials struct {
	Username    string `json:"username"`
	AccessToken string `json:"-"`
}

// UserResolver validates an access token and returns the login it
// belongs to. Satisfied by github.Login.
type UserResolver func(ctx context.Context, accessToken string) (string, error)

// Subscriber is notified on every sign-in and sign-out. Credentials
// are nil on sign-out.
type Subscriber func(Event, *Credentials)

// Service owns the signed-in user's credentials. It is constructed
// once at startup and passed by reference to its consumers; state
// changes reach them through the subscriber registry.
type Service struct {
	mu      sync.Mutex
	kv      storage.KV
	resolve UserResolver
	logger  zerolog.Logger

	creds   *Credentials
	subs    map[int]Subscriber
	nextSub int
}

func NewService(kv storage.KV, resolve UserResolver, logger zerolog.Logger) *Service {
	return &Service{
		kv:      kv,
		resolve: resolve,
		logger:  logger.With().Str("component", "identity").Logger(),
		subs:    map[int]Subscriber{},
	}
}

// Current returns the signed-in user's credentials, if any.
func (s *Service) Current() (Credentials, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return Credentials{}, false
	}
	return *s.creds, true
}

// SignIn validates the token, stores it, and notifies subscribers.
// An invalid token leaves the service signed out.
func (s *Service) SignIn(ctx context.Context, accessToken string) (Credentials, error) {
	if accessToken == "" {
		return Credentials{}, ErrNoToken
	}
	username, err := s.resolve(ctx, accessToken)
	if err != nil {
		return Credentials{}, err
	}

	creds := Credentials{Username: username, AccessToken: accessToken}

	s.mu.Lock()
	s.creds = &creds
	if err := s.kv.Set(tokenKey, accessToken); err != nil {
		s.logger.Error().Err(err).Msg("persisting provider token failed")
	}
	s.mu.Unlock()

	s.logger.Info().Str("username", username).Msg("signed in")
	s.notify(EventSignedIn, &creds)
	return creds, nil
}

// SignOut clears the credentials and the stored token and notifies
// subscribers. Signing out while signed out is a no-op.
func (s *Service) SignOut() {
	s.mu.Lock()
	wasSignedIn := s.creds != nil
	s.creds = nil
	if err := s.kv.Remove(tokenKey); err != nil {
		s.logger.Error().Err(err).Msg("removing provider token failed")
	}
	s.mu.Unlock()

	if !wasSignedIn {
		return
	}
	s.logger.Info().Msg("signed out")
	s.notify(EventSignedOut, nil)
}

// Restore re-validates a token persisted by a previous session. A
// missing or stale token leaves the service signed out without error.
func (s *Service) Restore(ctx context.Context) (Credentials, bool) {
	token, ok := s.kv.Get(tokenKey)
	if !ok || token == "" {
		return Credentials{}, false
	}
	creds, err := s.SignIn(ctx, token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("stored provider token is no longer valid")
		s.mu.Lock()
		_ = s.kv.Remove(tokenKey)
		s.mu.Unlock()
		return Credentials{}, false
	}
	return creds, true
}

// Subscribe registers fn for sign-in/sign-out events and returns the
// handle that removes it again.
func (s *Service) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Service) notify(event Event, creds *Credentials) {
	s.mu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(event, creds)
	}
}
