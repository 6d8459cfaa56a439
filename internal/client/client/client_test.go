package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI accepts access token "fresh" and rotates refresh token "r1" into
// "r2". refreshDelay widens the window in which callers pile up.
type fakeAPI struct {
	refreshCalls  atomic.Int32
	refreshDelay  time.Duration
	refreshStatus int
	alwaysDeny    bool
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		time.Sleep(f.refreshDelay)
		if f.refreshStatus != 0 {
			writeJSON(w, f.refreshStatus, map[string]any{"success": false, "message": "session expired"})
			return
		}
		if c, err := r.Cookie("refresh-token"); err != nil || c.Value != "r1" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "session expired"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "access-token", Value: "fresh", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "refresh-token", Value: "r2", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "password" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "invalid email or password"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "access-token", Value: "fresh", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "refresh-token", Value: "r1", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	mux.HandleFunc("GET /api/admire", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("access-token"); f.alwaysDeny || err != nil || c.Value != "fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "matches": []string{"b"}})
	})

	mux.HandleFunc("POST /api/admire", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "target user not found"})
	})

	mux.HandleFunc("GET /echo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"query": r.URL.RawQuery, "path": r.URL.Path})
	})

	mux.HandleFunc("GET /broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{not json"))
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, api *fakeAPI, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	c.SetCookies([]*http.Cookie{
		{Name: "access-token", Value: "stale", Path: "/"},
		{Name: "refresh-token", Value: "r1", Path: "/"},
	})
	return c
}

type interactions struct {
	Success bool     `json:"success"`
	Matches []string `json:"matches"`
}

func TestDo_RefreshesAndRetries(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	var out interactions
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/api/admire", nil, &out))
	assert.Equal(t, []string{"b"}, out.Matches)
	assert.EqualValues(t, 1, api.refreshCalls.Load())

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/api/admire", nil, &out))
	assert.EqualValues(t, 1, api.refreshCalls.Load(), "fresh credentials need no refresh")
}

func TestDo_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	api := &fakeAPI{refreshDelay: 100 * time.Millisecond}
	c := newTestClient(t, api)

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out interactions
			errs[i] = c.Do(context.Background(), http.MethodGet, "/api/admire", nil, &out)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, api.refreshCalls.Load())
}

func TestDo_ConcurrentFailedRefreshIsNotRepeated(t *testing.T) {
	api := &fakeAPI{refreshDelay: 50 * time.Millisecond, refreshStatus: http.StatusUnauthorized}
	c := newTestClient(t, api)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = c.Do(context.Background(), http.MethodGet, "/api/admire", nil, nil)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, common.ErrSessionExpired)
	}
	assert.EqualValues(t, 1, api.refreshCalls.Load())

	// later calls at the same epoch fail without another refresh
	err := c.Do(context.Background(), http.MethodGet, "/api/admire", nil, nil)
	assert.ErrorIs(t, err, common.ErrSessionExpired)
	assert.EqualValues(t, 1, api.refreshCalls.Load())
}

func TestDo_ConcurrentRefreshServerErrorIsSessionExpired(t *testing.T) {
	api := &fakeAPI{refreshDelay: 50 * time.Millisecond, refreshStatus: http.StatusServiceUnavailable}
	c := newTestClient(t, api)

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = c.Do(context.Background(), http.MethodGet, "/api/admire", nil, nil)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, common.ErrSessionExpired)
	}
	assert.EqualValues(t, 1, api.refreshCalls.Load())

	// a server-side failure is not sticky, the next call refreshes again
	err := c.Do(context.Background(), http.MethodGet, "/api/admire", nil, nil)
	assert.ErrorIs(t, err, common.ErrSessionExpired)
	assert.EqualValues(t, 2, api.refreshCalls.Load())
}

func TestDo_RetriesOnlyOnce(t *testing.T) {
	api := &fakeAPI{alwaysDeny: true}
	c := newTestClient(t, api)

	err := c.Do(context.Background(), http.MethodGet, "/api/admire", nil, nil)
	assert.ErrorIs(t, err, common.ErrSessionExpired)
	assert.EqualValues(t, 1, api.refreshCalls.Load())
}

func TestDo_LoginResetsFailedEpoch(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)
	c.SetCookies([]*http.Cookie{{Name: "refresh-token", Value: "revoked", Path: "/"}})

	err := c.Do(context.Background(), http.MethodGet, "/api/admire", nil, nil)
	require.ErrorIs(t, err, common.ErrSessionExpired)

	require.NoError(t, c.Do(context.Background(), http.MethodPost, "/api/auth/login",
		map[string]string{"email": "demo@pup.com", "password": "password"}, nil))

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/api/admire", nil, nil))
	assert.EqualValues(t, 1, api.refreshCalls.Load())
}

func TestDo_LoginFailureDoesNotRefresh(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	err := c.Do(context.Background(), http.MethodPost, "/api/auth/login",
		map[string]string{"email": "demo@pup.com", "password": "wrong"}, nil)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindUnauthenticated, ce.Kind)
	assert.Equal(t, "invalid email or password", ce.Message)
	assert.Zero(t, api.refreshCalls.Load())
}

func TestDo_CallerCancelDoesNotAbortSharedRefresh(t *testing.T) {
	api := &fakeAPI{refreshDelay: 200 * time.Millisecond}
	c := newTestClient(t, api)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.Do(ctx, http.MethodGet, "/api/admire", nil, nil)
	assert.ErrorIs(t, err, common.ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	time.Sleep(300 * time.Millisecond)

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/api/admire", nil, nil))
	assert.EqualValues(t, 1, api.refreshCalls.Load())
}

func TestDo_StateHook(t *testing.T) {
	api := &fakeAPI{}

	var mu sync.Mutex
	var states []State
	c := newTestClient(t, api, WithStateHook(func(_, path string, s State) {
		if path == "/api/admire" {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		}
	}))

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/api/admire", nil, nil))
	assert.Equal(t, []State{StateRequesting, StateRefreshPending, StateRetrying, StateIdle}, states)
}

func TestDo_ErrorMapping(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	err := c.Do(context.Background(), http.MethodPost, "/api/admire", map[string]string{"targetUserId": "42"}, nil)
	assert.ErrorIs(t, err, common.ErrTargetNotFound)
	assert.Equal(t, Result{Success: false, Message: "target user not found"}, ResultOf(err))

	err = c.Do(context.Background(), http.MethodGet, "/broken", nil, &interactions{})
	assert.ErrorIs(t, err, common.ErrNetwork)
}

func TestDo_KeepsQueryString(t *testing.T) {
	c := newTestClient(t, &fakeAPI{})

	var got struct {
		Query string `json:"query"`
		Path  string `json:"path"`
	}
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/echo?limit=5&cursor=djE6YQ", nil, &got))
	assert.Equal(t, "/echo", got.Path)
	assert.Equal(t, "limit=5&cursor=djE6YQ", got.Query)
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	err = c.Do(context.Background(), http.MethodGet, "/api/admire", nil, nil)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindNetwork, ce.Kind)
	assert.Zero(t, ce.Status)
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("localhost:8080")
	assert.Error(t, err)
}

func TestResultOf(t *testing.T) {
	assert.Equal(t, Result{Success: true}, ResultOf(nil))
	assert.Equal(t, Result{Message: "unexpected error"}, ResultOf(errors.New("boom")))
	assert.Equal(t, "session expired, please log in again", ResultOf(sessionExpired()).Message)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, kindOf(http.StatusBadRequest))
	assert.Equal(t, KindUnauthenticated, kindOf(http.StatusUnauthorized))
	assert.Equal(t, KindNotFound, kindOf(http.StatusNotFound))
	assert.Equal(t, KindConflict, kindOf(http.StatusConflict))
	assert.Equal(t, KindRateLimited, kindOf(http.StatusTooManyRequests))
	assert.Equal(t, KindServer, kindOf(http.StatusBadGateway))
}
