package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walletgate/origo/domain"
	"github.com/walletgate/origo/platform/memapi"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// scriptedAuth is an Authenticator whose latency and failure mode the test
// controls.
type scriptedAuth struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
	now   func() time.Time
}

func (a *scriptedAuth) ExchangeCredentials(_ context.Context) (*domain.TokenState, error) {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return &domain.TokenState{
		AccessToken: fmt.Sprintf("tok-%d", a.calls),
		TokenType:   "Bearer",
		ExpiresIn:   3600,
		ObtainedAt:  a.now(),
	}, nil
}

func (a *scriptedAuth) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func (a *scriptedAuth) setErr(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

func TestTokenManagerCachesToken(t *testing.T) {
	ctx := context.Background()
	mem := memapi.New()
	mgr := NewTokenManager(mem, "origo-bridge", "1.0.0")

	first, err := mgr.Token(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := mgr.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second, "valid cached token should be reused")
	assert.Equal(t, 1, mem.ExchangeCount())
}

func TestTokenManagerRefreshesBeforeExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	mem := memapi.New().WithClock(clock.Now)
	mgr := NewTokenManager(mem, "origo-bridge", "1.0.0", WithClock(clock.Now))

	first, err := mgr.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, mem.ExchangeCount())

	// One second inside the 60s buffer of a 3600s token: still valid.
	clock.Advance(3539 * time.Second)
	tok, err := mgr.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, tok)
	assert.Equal(t, 1, mem.ExchangeCount())

	// Crossing into the buffer forces a refresh.
	clock.Advance(1 * time.Second)
	tok, err = mgr.Token(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, tok)
	assert.Equal(t, 2, mem.ExchangeCount())
}

func TestTokenManagerCollapsesConcurrentRefreshes(t *testing.T) {
	ctx := context.Background()
	auth := &scriptedAuth{delay: 30 * time.Millisecond, now: time.Now}
	mgr := NewTokenManager(auth, "origo-bridge", "1.0.0")

	const callers = 8
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = mgr.Token(ctx)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, tokens[0], tokens[i])
	}
	assert.Equal(t, 1, auth.callCount(), "concurrent callers must share one exchange")
}

func TestTokenManagerKeepsCachedTokenOnFailedRefresh(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	auth := &scriptedAuth{now: clock.Now}
	mgr := NewTokenManager(auth, "origo-bridge", "1.0.0", WithClock(clock.Now))

	first, err := mgr.Token(ctx)
	require.NoError(t, err)

	// A failed explicit re-authentication must not clobber the cache.
	auth.setErr(fmt.Errorf("exchange rejected"))
	_, err = mgr.Authenticate(ctx)
	require.Error(t, err)

	tok, err := mgr.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, tok)

	// Once the cached token expires the failure becomes the caller's problem.
	clock.Advance(4000 * time.Second)
	_, err = mgr.Token(ctx)
	require.Error(t, err)
}

func TestTokenManagerHeaders(t *testing.T) {
	ctx := context.Background()
	mem := memapi.New()
	mgr := NewTokenManager(mem, "origo-bridge", "2.1.0")

	hdr, err := mgr.Headers(ctx)
	require.NoError(t, err)

	tok, err := mgr.Token(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Bearer "+tok, hdr.Get("Authorization"))
	assert.Equal(t, "origo-bridge", hdr.Get("Application-ID"))
	assert.Equal(t, "2.1.0", hdr.Get("Application-Version"))
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))
}
