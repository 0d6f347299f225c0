// Package refresh collapses concurrent credential refreshes into a single
// exchange with the backend.
//
// When the access token expires while many requests are in flight, each of
// them fails with 401 at roughly the same moment. The first caller becomes the
// leader and performs the exchange; every caller arriving while the exchange
// is in flight is queued and receives the leader's outcome.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/saas-admin-client/internal/errors"
	"github.com/jrsteele09/saas-admin-client/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State of the coordinator
type State int

const (
	StateIdle State = iota
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Pair is a freshly issued credential pair
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// CredentialStore is the session the coordinator refreshes
type CredentialStore interface {
	AccessToken() string
	RefreshToken() string
	SetCredentials(accessToken, refreshToken string) error
	Logout() bool
}

// Exchanger trades a refresh token for a new credential pair
type Exchanger func(ctx context.Context, refreshToken string) (Pair, error)

type result struct {
	accessToken string
	err         error
}

// Coordinator owns the refresh state machine for one session
type Coordinator struct {
	store    CredentialStore
	exchange Exchanger
	timeout  time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	lock      sync.Mutex
	state     State
	waiters   []chan result
	exchanges int
}

// Option defines a function type to modify the Coordinator instance.
type Option func(*Coordinator)

// WithTimeout bounds a single exchange (default 15s)
func WithTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func New(store CredentialStore, exchange Exchanger, options ...Option) (*Coordinator, error) {
	if store == nil {
		return nil, errors.New("[refresh New] credential store is required")
	}
	if exchange == nil {
		return nil, errors.New("[refresh New] exchanger is required")
	}

	c := &Coordinator{
		store:    store,
		exchange: exchange,
		timeout:  15 * time.Second,
		logger:   log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Refresh returns an access token to retry a request with. stale is the
// access token the failed request carried: if the session already holds a
// different one, an earlier refresh has completed and no exchange is needed.
//
// On failure the session has been logged out and the returned error wraps
// apperrors.ErrRefreshFailed or apperrors.ErrNoRefreshCredential.
func (c *Coordinator) Refresh(ctx context.Context, stale string) (string, error) {
	c.lock.Lock()

	if c.state == StateRefreshing {
		ch := make(chan result, 1)
		c.waiters = append(c.waiters, ch)
		c.lock.Unlock()
		c.metrics.ObserveWaiter()

		select {
		case r := <-ch:
			return r.accessToken, r.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if current := c.store.AccessToken(); current != "" && current != stale {
		c.lock.Unlock()
		return current, nil
	}

	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		c.lock.Unlock()
		c.metrics.ObserveRefresh("no_credential")
		c.store.Logout()
		return "", apperrors.ErrNoRefreshCredential
	}

	c.state = StateRefreshing
	c.exchanges++
	c.lock.Unlock()

	accessToken, err := c.lead(ctx, refreshToken)

	c.lock.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.state = StateIdle
	c.lock.Unlock()

	for _, ch := range waiters {
		ch <- result{accessToken: accessToken, err: err}
	}
	return accessToken, err
}

// lead performs the exchange. It runs detached from the leader's cancellation
// because queued callers depend on its outcome.
func (c *Coordinator) lead(ctx context.Context, refreshToken string) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	pair, err := c.exchange(ctx, refreshToken)
	if err == nil && (pair.AccessToken == "" || pair.RefreshToken == "") {
		err = apperrors.ErrUnpairedCredentials
	}
	if err == nil {
		err = c.store.SetCredentials(pair.AccessToken, pair.RefreshToken)
	}
	if err != nil {
		c.metrics.ObserveRefresh("failure")
		c.logger.Err(err).Msg("Refresh exchange failed, ending session")
		c.store.Logout()
		return "", fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, err)
	}

	c.metrics.ObserveRefresh("success")
	c.logger.Debug().Msg("Refresh exchange succeeded")
	return pair.AccessToken, nil
}

// State returns the current state
func (c *Coordinator) State() State {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

// Pending returns how many callers are queued behind the in-flight exchange
func (c *Coordinator) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.waiters)
}

// Exchanges returns how many exchanges have been started
func (c *Coordinator) Exchanges() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.exchanges
}
