package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/pup/internal/common"
	"golang.org/x/sync/singleflight"
)

const (
	RefreshPath = common.RefreshPath

	defaultTimeout        = 30 * time.Second
	defaultRefreshTimeout = 15 * time.Second
	maxBodyBytes          = 4 << 20
)

// A successful call to one of these replaces the stored credentials.
var credentialPaths = map[string]bool{
	"/api/auth/login":  true,
	"/api/auth/signup": true,
	"/api/auth/logout": true,
}

type Option func(*Client)

// WithHTTPClient replaces the transport. A cookie jar is attached when h
// has none.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h.Jar == nil {
			h.Jar = c.http.Jar
		}
		c.http = h
	}
}

func WithStateHook(h StateHook) Option {
	return func(c *Client) { c.hook = h }
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) { c.refreshTimeout = d }
}

// Client talks JSON to the pup API and keeps the session cookies. On a 401
// it refreshes the session once and retries the call once. Concurrent
// callers that hit a 401 share a single refresh.
//
// Credentials are versioned by an epoch that advances on every successful
// refresh or login. A caller only refreshes for the epoch its request was
// sent with: if that epoch already moved on it simply retries, and if a
// refresh for that epoch already failed it gives up at once.
type Client struct {
	base           *url.URL
	http           *http.Client
	hook           StateHook
	refreshTimeout time.Duration

	flight singleflight.Group

	mu          sync.Mutex
	epoch       uint64
	failed      bool
	failedEpoch uint64
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		base:           u,
		http:           &http.Client{Jar: jar, Timeout: defaultTimeout},
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Cookies returns the session cookies currently held for the API.
func (c *Client) Cookies() []*http.Cookie {
	return c.http.Jar.Cookies(c.base)
}

// SetCookies restores previously saved session cookies.
func (c *Client) SetCookies(cs []*http.Cookie) {
	c.http.Jar.SetCookies(c.base, cs)
	c.credentialsChanged()
}

// Do sends in as JSON to path and decodes a 2xx response into out. Either
// may be nil. Failures are always *Error.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	c.notify(method, path, StateRequesting)
	defer c.notify(method, path, StateIdle)

	epoch := c.currentEpoch()

	status, body, err := c.send(ctx, method, path, in)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && c.refreshable(path) {
		c.notify(method, path, StateRefreshPending)
		if err := c.refresh(ctx, epoch); err != nil {
			return err
		}

		c.notify(method, path, StateRetrying)
		status, body, err = c.send(ctx, method, path, in)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return sessionExpired()
		}
	}

	if status >= 200 && status < 300 && credentialPaths[path] {
		c.credentialsChanged()
	}
	return decode(status, body, out)
}

// refreshable excludes the refresh call itself and the entry points where a
// 401 means wrong credentials rather than an expired session.
func (c *Client) refreshable(path string) bool {
	return path != RefreshPath && !credentialPaths[path]
}

func (c *Client) refresh(ctx context.Context, seen uint64) error {
	if done, err := c.settled(seen); done {
		return err
	}

	ch := c.flight.DoChan(strconv.FormatUint(seen, 10), func() (any, error) {
		if done, err := c.settled(seen); done {
			return nil, err
		}

		// The refresh outlives the caller that started it.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()

		status, _, err := c.send(rctx, http.MethodPost, RefreshPath, nil)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		switch {
		case status >= 200 && status < 300:
			c.epoch++
			c.failed = false
			return nil, nil
		case status >= 500:
			// Not remembered, so the next caller at this epoch tries again.
			return nil, sessionExpired()
		default:
			c.failed, c.failedEpoch = true, seen
			return nil, sessionExpired()
		}
	})

	select {
	case <-ctx.Done():
		return networkError(ctx.Err())
	case res := <-ch:
		return res.Err
	}
}

// settled reports whether the refresh for epoch seen is already decided:
// by a later epoch (nil error) or by a recorded failure.
func (c *Client) settled(seen uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != seen {
		return true, nil
	}
	if c.failed && c.failedEpoch == seen {
		return true, sessionExpired()
	}
	return false, nil
}

func (c *Client) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

func (c *Client) credentialsChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.failed = false
}

func (c *Client) send(ctx context.Context, method, path string, in any) (int, []byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, nil, &Error{Kind: KindValidation, Message: "cannot encode request", Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), body)
	if err != nil {
		return 0, nil, networkError(err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, networkError(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, networkError(err)
	}
	return resp.StatusCode, b, nil
}

// resolve joins path onto the base URL, keeping any query string.
func (c *Client) resolve(path string) string {
	p, q, _ := strings.Cut(path, "?")
	u := c.base.JoinPath(p)
	u.RawQuery = q
	return u.String()
}

func decode(status int, body []byte, out any) error {
	if status >= 200 && status < 300 {
		if out == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return &Error{Kind: KindNetwork, Status: status, Message: "invalid response body", Err: err}
		}
		return nil
	}

	msg := http.StatusText(status)
	var r Result
	if json.Unmarshal(body, &r) == nil && r.Message != "" {
		msg = r.Message
	}
	return &Error{Kind: kindOf(status), Status: status, Message: msg}
}

func (c *Client) notify(method, path string, s State) {
	if c.hook != nil {
		c.hook(method, path, s)
	}
}
