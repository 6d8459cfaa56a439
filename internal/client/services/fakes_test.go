package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/pup/internal/client/client"
	"github.com/stretchr/testify/require"
)

type call struct {
	Method string
	Path   string
	Body   string
}

// fakeAPI answers calls from a route table keyed by "METHOD path". A route
// returns the response value (JSON-encoded into out) or an error.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []call
	routes  map[string]func(body string) (any, error)
	cookies []*http.Cookie
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{routes: map[string]func(string) (any, error){}}
}

func (f *fakeAPI) on(method, path string, h func(body string) (any, error)) {
	f.routes[method+" "+path] = h
}

func (f *fakeAPI) Do(ctx context.Context, method, path string, in, out any) error {
	var body string
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = string(b)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call{Method: method, Path: path, Body: body})
	h := f.routes[method+" "+path]
	f.mu.Unlock()

	if h == nil {
		return &client.Error{Kind: client.KindNotFound, Status: http.StatusNotFound, Message: "no route " + path}
	}
	resp, err := h(body)
	if err != nil {
		return err
	}
	if out == nil || resp == nil {
		return nil
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (f *fakeAPI) Cookies() []*http.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Cookie(nil), f.cookies...)
}

// SetCookies behaves like a jar: MaxAge < 0 deletes, anything else replaces
// by name.
func (f *fakeAPI) SetCookies(cs []*http.Cookie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range cs {
		kept := f.cookies[:0]
		for _, old := range f.cookies {
			if old.Name != c.Name {
				kept = append(kept, old)
			}
		}
		f.cookies = kept
		if c.MaxAge >= 0 {
			f.cookies = append(f.cookies, c)
		}
	}
}

func (f *fakeAPI) callsTo(method, path string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func openStore(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.OpenLocalStore(context.Background(), filepath.Join(t.TempDir(), "pup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
