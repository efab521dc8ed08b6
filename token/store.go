package token

import (
	"context"
	"errors"
	"sync"

	"github.com/ispops/erpauth/storage"
)

const (
	// KeyAccessToken is the storage key holding the bearer token.
	KeyAccessToken = "access_token"
	// KeyRememberMe marks that the durable backend holds the token.
	KeyRememberMe = "remember_me"
)

// Store owns the bearer token. Reads are served from memory; writes go
// through to storage. Concurrent writers race and the last one wins.
type Store struct {
	durable  storage.Backend
	volatile storage.Backend

	mu         sync.RWMutex
	token      string
	remembered bool
}

// NewStore builds a Store. A nil volatile backend defaults to an in-memory one.
func NewStore(durable, volatile storage.Backend) *Store {
	if volatile == nil {
		volatile = storage.NewMemory(0)
	}
	if durable == nil {
		durable = volatile
	}
	return &Store{durable: durable, volatile: volatile}
}

// Load initialises the in-memory token from storage.
func (s *Store) Load(ctx context.Context) error {
	remember, _, err := s.durable.Get(ctx, KeyRememberMe)
	if err != nil {
		return err
	}

	src := s.volatile
	if remember == "true" {
		src = s.durable
	}
	tok, _, err := src.Get(ctx, KeyAccessToken)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token = tok
	s.remembered = remember == "true" && tok != ""
	s.mu.Unlock()
	return nil
}

// Get returns the current token or "" when unauthenticated.
func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Remembered reports whether the current token lives in durable storage.
func (s *Store) Remembered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remembered
}

// Set stores tok. An empty tok behaves like Clear.
//
// The in-memory value is updated even if storage fails, so the caller stays
// authenticated for the life of the process; the storage error is returned.
func (s *Store) Set(ctx context.Context, tok string, remember bool) error {
	if tok == "" {
		return s.Clear(ctx)
	}

	s.mu.Lock()
	s.token = tok
	s.remembered = remember
	s.mu.Unlock()

	if remember {
		return errors.Join(
			s.durable.Set(ctx, KeyAccessToken, tok),
			s.durable.Set(ctx, KeyRememberMe, "true"),
			s.deleteVolatile(ctx),
		)
	}
	if s.volatile == s.durable {
		return errors.Join(
			s.volatile.Set(ctx, KeyAccessToken, tok),
			s.durable.Delete(ctx, KeyRememberMe),
		)
	}
	return errors.Join(
		s.volatile.Set(ctx, KeyAccessToken, tok),
		s.deleteDurable(ctx),
	)
}

// Clear removes the token from memory and both backends.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.remembered = false
	s.mu.Unlock()

	return errors.Join(s.deleteDurable(ctx), s.deleteVolatile(ctx))
}

func (s *Store) deleteDurable(ctx context.Context) error {
	return s.durable.Delete(ctx, KeyAccessToken, KeyRememberMe)
}

func (s *Store) deleteVolatile(ctx context.Context) error {
	if s.volatile == s.durable {
		return nil
	}
	return s.volatile.Delete(ctx, KeyAccessToken)
}
