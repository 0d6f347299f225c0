package refresh_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/saas-admin-client/internal/errors"
	"github.com/jrsteele09/saas-admin-client/internal/metrics"
	"github.com/jrsteele09/saas-admin-client/refresh"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fakeStore struct {
	lock         sync.Mutex
	accessToken  string
	refreshToken string
	logouts      int
	sets         int
}

func (f *fakeStore) AccessToken() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.accessToken
}

func (f *fakeStore) RefreshToken() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.refreshToken
}

func (f *fakeStore) SetCredentials(accessToken, refreshToken string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.accessToken = accessToken
	f.refreshToken = refreshToken
	f.sets++
	return nil
}

func (f *fakeStore) Logout() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.logouts++
	was := f.accessToken != "" || f.refreshToken != ""
	f.accessToken = ""
	f.refreshToken = ""
	return was
}

func (f *fakeStore) counts() (int, int) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.sets, f.logouts
}

// gatedExchanger blocks until release is closed so callers can pile up
type gatedExchanger struct {
	release chan struct{}
	pair    refresh.Pair
	err     error

	lock  sync.Mutex
	calls []string
}

func newGatedExchanger(pair refresh.Pair, err error) *gatedExchanger {
	return &gatedExchanger{release: make(chan struct{}), pair: pair, err: err}
}

func (g *gatedExchanger) Exchange(ctx context.Context, refreshToken string) (refresh.Pair, error) {
	g.lock.Lock()
	g.calls = append(g.calls, refreshToken)
	g.lock.Unlock()

	select {
	case <-g.release:
	case <-ctx.Done():
		return refresh.Pair{}, ctx.Err()
	}
	return g.pair, g.err
}

func (g *gatedExchanger) Calls() []string {
	g.lock.Lock()
	defer g.lock.Unlock()
	return append([]string(nil), g.calls...)
}

func TestNew_MissingDependencies(t *testing.T) {
	_, err := refresh.New(nil, func(context.Context, string) (refresh.Pair, error) { return refresh.Pair{}, nil })
	require.Error(t, err)

	_, err = refresh.New(&fakeStore{}, nil)
	require.Error(t, err)
}

func TestRefresh_ConcurrentCallersShareOneExchange(t *testing.T) {
	store := &fakeStore{accessToken: "a1", refreshToken: "r1"}
	exchanger := newGatedExchanger(refresh.Pair{AccessToken: "a2", RefreshToken: "r2"}, nil)
	m := metrics.New()

	coordinator, err := refresh.New(store, exchanger.Exchange, refresh.WithMetrics(m))
	require.NoError(t, err)

	const callers = 3
	results := make([]string, callers)
	g, ctx := errgroup.WithContext(context.Background())
	for i := range callers {
		g.Go(func() error {
			token, err := coordinator.Refresh(ctx, "a1")
			results[i] = token
			return err
		})
	}

	require.Eventually(t, func() bool {
		return coordinator.State() == refresh.StateRefreshing && coordinator.Pending() == callers-1
	}, time.Second, time.Millisecond)
	close(exchanger.release)

	require.NoError(t, g.Wait())
	require.Equal(t, []string{"a2", "a2", "a2"}, results)
	require.Equal(t, []string{"r1"}, exchanger.Calls())
	require.Equal(t, 1, coordinator.Exchanges())
	require.Equal(t, refresh.StateIdle, coordinator.State())
	require.Equal(t, 0, coordinator.Pending())

	sets, logouts := store.counts()
	require.Equal(t, 1, sets)
	require.Equal(t, 0, logouts)
	require.Equal(t, "a2", store.AccessToken())
	require.Equal(t, "r2", store.RefreshToken())

	require.Equal(t, 1.0, testutil.ToFloat64(m.RefreshExchanges.WithLabelValues("success")))
	require.Equal(t, float64(callers-1), testutil.ToFloat64(m.RefreshWaiters))
}

func TestRefresh_FailureRejectsEveryCallerAndLogsOutOnce(t *testing.T) {
	store := &fakeStore{accessToken: "a1", refreshToken: "r1"}
	backendErr := errors.New("refresh token revoked")
	exchanger := newGatedExchanger(refresh.Pair{}, backendErr)

	coordinator, err := refresh.New(store, exchanger.Exchange)
	require.NoError(t, err)

	const callers = 3
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = coordinator.Refresh(context.Background(), "a1")
		}()
	}

	require.Eventually(t, func() bool {
		return coordinator.Pending() == callers-1
	}, time.Second, time.Millisecond)
	close(exchanger.release)
	wg.Wait()

	for _, err := range errs {
		require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
		require.ErrorIs(t, err, backendErr)
	}
	require.Len(t, exchanger.Calls(), 1)

	sets, logouts := store.counts()
	require.Equal(t, 0, sets)
	require.Equal(t, 1, logouts)
	require.Empty(t, store.AccessToken())
	require.Equal(t, refresh.StateIdle, coordinator.State())
}

func TestRefresh_NoRefreshTokenLogsOut(t *testing.T) {
	store := &fakeStore{accessToken: "a1"}
	exchanger := newGatedExchanger(refresh.Pair{}, nil)

	coordinator, err := refresh.New(store, exchanger.Exchange)
	require.NoError(t, err)

	_, err = coordinator.Refresh(context.Background(), "a1")
	require.ErrorIs(t, err, apperrors.ErrNoRefreshCredential)
	require.Empty(t, exchanger.Calls())
	require.Equal(t, 0, coordinator.Exchanges())

	_, logouts := store.counts()
	require.Equal(t, 1, logouts)
}

func TestRefresh_UnpairedResponseFails(t *testing.T) {
	store := &fakeStore{accessToken: "a1", refreshToken: "r1"}
	coordinator, err := refresh.New(store, func(context.Context, string) (refresh.Pair, error) {
		return refresh.Pair{AccessToken: "a2"}, nil
	})
	require.NoError(t, err)

	_, err = coordinator.Refresh(context.Background(), "a1")
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
	require.ErrorIs(t, err, apperrors.ErrUnpairedCredentials)

	sets, logouts := store.counts()
	require.Equal(t, 0, sets)
	require.Equal(t, 1, logouts)
}

func TestRefresh_StaleTokenSkipsExchange(t *testing.T) {
	store := &fakeStore{accessToken: "a2", refreshToken: "r2"}
	exchanger := newGatedExchanger(refresh.Pair{}, nil)

	coordinator, err := refresh.New(store, exchanger.Exchange)
	require.NoError(t, err)

	token, err := coordinator.Refresh(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, "a2", token)
	require.Empty(t, exchanger.Calls())
}

func TestRefresh_SequentialRefreshesEachExchange(t *testing.T) {
	store := &fakeStore{accessToken: "a1", refreshToken: "r1"}
	n := 1
	coordinator, err := refresh.New(store, func(_ context.Context, refreshToken string) (refresh.Pair, error) {
		n++
		return refresh.Pair{AccessToken: "a" + string(rune('0'+n)), RefreshToken: "r" + string(rune('0'+n))}, nil
	})
	require.NoError(t, err)

	token, err := coordinator.Refresh(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, "a2", token)

	token, err = coordinator.Refresh(context.Background(), "a2")
	require.NoError(t, err)
	require.Equal(t, "a3", token)
	require.Equal(t, 2, coordinator.Exchanges())
}

func TestRefresh_WaiterCancellationDoesNotStopExchange(t *testing.T) {
	store := &fakeStore{accessToken: "a1", refreshToken: "r1"}
	exchanger := newGatedExchanger(refresh.Pair{AccessToken: "a2", RefreshToken: "r2"}, nil)

	coordinator, err := refresh.New(store, exchanger.Exchange)
	require.NoError(t, err)

	leaderDone := make(chan error, 1)
	go func() {
		_, err := coordinator.Refresh(context.Background(), "a1")
		leaderDone <- err
	}()
	require.Eventually(t, func() bool {
		return coordinator.State() == refresh.StateRefreshing
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	waiterDone := make(chan error, 1)
	go func() {
		_, err := coordinator.Refresh(ctx, "a1")
		waiterDone <- err
	}()
	require.Eventually(t, func() bool { return coordinator.Pending() == 1 }, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-waiterDone, context.Canceled)

	close(exchanger.release)
	require.NoError(t, <-leaderDone)
	require.Equal(t, "a2", store.AccessToken())
}

func TestRefresh_LeaderCancellationDoesNotAbortExchange(t *testing.T) {
	store := &fakeStore{accessToken: "a1", refreshToken: "r1"}
	exchanger := newGatedExchanger(refresh.Pair{AccessToken: "a2", RefreshToken: "r2"}, nil)

	coordinator, err := refresh.New(store, exchanger.Exchange)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := coordinator.Refresh(ctx, "a1")
		leaderDone <- err
	}()
	require.Eventually(t, func() bool {
		return coordinator.State() == refresh.StateRefreshing
	}, time.Second, time.Millisecond)

	cancel()
	close(exchanger.release)
	require.NoError(t, <-leaderDone)
	require.Equal(t, "a2", store.AccessToken())
}

func TestRefresh_ExchangeTimeout(t *testing.T) {
	store := &fakeStore{accessToken: "a1", refreshToken: "r1"}
	exchanger := newGatedExchanger(refresh.Pair{}, nil)

	coordinator, err := refresh.New(store, exchanger.Exchange, refresh.WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = coordinator.Refresh(context.Background(), "a1")
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	_, logouts := store.counts()
	require.Equal(t, 1, logouts)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "idle", refresh.StateIdle.String())
	require.Equal(t, "refreshing", refresh.StateRefreshing.String())
}
