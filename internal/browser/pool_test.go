package browser

import (
	"context"
	"testing"
	"time"

	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/errors"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(size int) *Pool {
	p := New(config.BrowserConfig{PoolSize: size}, zerolog.Nop())
	for i := 0; i < size; i++ {
		p.sessions <- &Session{cfg: p.cfg}
	}
	p.started = true
	return p
}

func TestAcquire_ReturnsImmediatelyWhenSessionAvailable(t *testing.T) {
	p := newTestPool(1)
	s, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestAcquire_BlocksUntilContextDeadline(t *testing.T) {
	p := newTestPool(0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRelease_ReturnsSessionForReuse(t *testing.T) {
	p := newTestPool(1)
	s, err := p.Acquire(context.Background())
	require.NoError(t, err)

	p.Release(s)

	select {
	case reused := <-p.sessions:
		assert.Same(t, s, reused)
	default:
		t.Fatal("expected session to be returned to pool")
	}
}

func TestRelease_DisposesPoisonedSessionAndKeepsPoolFunctional(t *testing.T) {
	p := newTestPool(1)
	s, err := p.Acquire(context.Background())
	require.NoError(t, err)
	s.poisoned = true

	p.Release(s)

	// respawn fails without a real launcher; pool should not deadlock or panic.
	select {
	case <-p.sessions:
		t.Fatal("did not expect a respawned session without a launcher")
	default:
	}
}

func TestClassifyNavError_MapsKnownMessagesToKinds(t *testing.T) {
	assert.Equal(t, errors.FetchDNS, classifyNavError(fakeErr("no such host: example.test")))
	assert.Equal(t, errors.FetchTLS, classifyNavError(fakeErr("x509: certificate signed by unknown authority")))
	assert.Equal(t, errors.FetchTimeout, classifyNavError(fakeErr("context deadline exceeded")))
	assert.Equal(t, errors.FetchHTTPError, classifyNavError(fakeErr("connection refused")))
}

func TestClassifyHTTPStatus_DistinguishesPermanentFromTransient(t *testing.T) {
	cases := []struct {
		status   int
		wantErr  bool
		wantKind errors.FetchErrorKind
	}{
		{status: 0, wantErr: false},
		{status: 200, wantErr: false},
		{status: 301, wantErr: false},
		{status: 404, wantErr: true, wantKind: errors.FetchPermanentHTTP},
		{status: 403, wantErr: true, wantKind: errors.FetchPermanentHTTP},
		{status: 408, wantErr: true, wantKind: errors.FetchHTTPError},
		{status: 429, wantErr: true, wantKind: errors.FetchHTTPError},
		{status: 500, wantErr: true, wantKind: errors.FetchHTTPError},
		{status: 503, wantErr: true, wantKind: errors.FetchHTTPError},
	}
	for _, c := range cases {
		kind, isErr := classifyHTTPStatus(c.status)
		assert.Equal(t, c.wantErr, isErr, "status %d", c.status)
		if c.wantErr {
			assert.Equal(t, c.wantKind, kind, "status %d", c.status)
		}
	}
}

func TestContainsAny_MatchesAnyNeedle(t *testing.T) {
	assert.True(t, containsAny("dial tcp: timeout", "timeout", "dns"))
	assert.False(t, containsAny("connection reset", "timeout", "dns"))
}

type fakeErrType string

func (e fakeErrType) Error() string { return string(e) }

func fakeErr(msg string) error { return fakeErrType(msg) }
