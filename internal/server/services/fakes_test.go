package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/dmitrijs2005/pup/internal/dbx"
	"github.com/dmitrijs2005/pup/internal/server/models"
	"github.com/dmitrijs2005/pup/internal/server/notify"
	"github.com/dmitrijs2005/pup/internal/server/repositories/admirations"
	"github.com/dmitrijs2005/pup/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/pup/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/pup/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// txDB is a real *sql.DB so dbx.WithTx can begin and commit. The fake
// repositories below keep their state in memory and ignore it.
func txDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	profiles map[string]*models.Profile
	gens     map[string]int64
	actions  map[[2]string]*models.AdmireAction
	locks    []string
	tick     time.Time

	failUsers error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*models.User{},
		profiles: map[string]*models.Profile{},
		gens:     map[string]int64{},
		actions:  map[[2]string]*models.AdmireAction{},
		tick:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// now advances a fake clock so every write gets a distinct timestamp.
func (s *memStore) now() time.Time {
	s.tick = s.tick.Add(time.Second)
	return s.tick
}

// addUser inserts a live user with a profile and generation 0.
func (s *memStore) addUser(id string, p models.Profile) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := &models.User{ID: id, Email: id + "@pup.com", Role: models.RoleUser, IsActive: true}
	s.users[id] = u
	p.UserID = id
	p.UpdatedAt = s.now()
	s.profiles[id] = &p
	s.gens[id] = 0
	return u
}

func (s *memStore) action(from, to string) *models.AdmireAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.actions[[2]string{from, to}]; ok {
		cp := *a
		return &cp
	}
	return nil
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository { return (*fakeUsers)(m.s) }

func (m *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository { return (*fakeProfiles)(m.s) }

func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return (*fakeGens)(m.s) }

func (m *fakeRepoManager) Admirations(dbx.DBTX) admirations.Repository { return (*fakeActions)(m.s) }

// --- users ---

type fakeUsers memStore

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUsers != nil {
		return nil, s.failUsers
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return nil, common.ErrAlreadyExists
		}
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	s.users[u.ID] = &cp
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUsers != nil {
		return nil, s.failUsers
	}
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUsers != nil {
		return nil, s.failUsers
	}
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) ClearIsNew(_ context.Context, id string) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.IsNew = false
	}
	return nil
}

func (f *fakeUsers) UpsertSeed(_ context.Context, u *models.User) (string, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			existing.PasswordHash = u.PasswordHash
			existing.IsActive, existing.IsNew, existing.IsDeleted, existing.IsVerified = u.IsActive, u.IsNew, u.IsDeleted, u.IsVerified
			return existing.ID, nil
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return u.ID, nil
}

// --- profiles ---

type fakeProfiles memStore

func (f *fakeProfiles) Create(_ context.Context, userID string) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[userID]; !ok {
		s.profiles[userID] = &models.Profile{UserID: userID, Interests: []string{}, Photos: []string{}, UpdatedAt: s.now()}
	}
	return nil
}

func (f *fakeProfiles) Get(_ context.Context, userID string) (*models.Profile, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) Update(_ context.Context, p *models.Profile) (*models.Profile, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UserID]; !ok {
		return nil, common.ErrorNotFound
	}
	p.UpdatedAt = s.now()
	cp := *p
	cp.AdmiredBy, cp.AdmiredUsers = nil, nil
	s.profiles[p.UserID] = &cp
	return p, nil
}

func (f *fakeProfiles) Browse(_ context.Context, viewerID, afterID string, limit int, flt models.BrowseFilter) ([]*models.Profile, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	match := func(want, got string) bool { return want == "" || strings.EqualFold(want, got) }

	var out []*models.Profile
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		u := s.users[id]
		p := s.profiles[id]
		if id == viewerID || id <= afterID || !u.Live() {
			continue
		}
		if _, acted := s.actions[[2]string{viewerID, id}]; acted {
			continue
		}
		if !match(flt.Domain, p.PurposeDomain) || !match(flt.Archetype, p.PurposeArchetype) || !match(flt.Modality, p.PurposeModality) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// --- refresh generations ---

type fakeGens memStore

func (f *fakeGens) Init(_ context.Context, userID string) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gens[userID]; !ok {
		s.gens[userID] = 0
	}
	return nil
}

func (f *fakeGens) Current(_ context.Context, userID string) (int64, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gens[userID]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return g, nil
}

func (f *fakeGens) Rotate(_ context.Context, userID string, expected int64) (int64, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gens[userID]
	if !ok || g != expected {
		return 0, common.ErrSessionExpired
	}
	s.gens[userID] = g + 1
	return g + 1, nil
}

func (f *fakeGens) Revoke(_ context.Context, userID string) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[userID]++
	return nil
}

// --- admirations ---

type fakeActions memStore

func (f *fakeActions) LockPair(_ context.Context, a, b string) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks = append(s.locks, spyKey(a, b))
	return nil
}

func (f *fakeActions) Get(_ context.Context, from, to string) (*models.AdmireAction, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actions[[2]string{from, to}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeActions) Upsert(_ context.Context, from, to string, kind models.Kind) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[to]; !ok {
		return common.ErrTargetNotFound
	}
	key := [2]string{from, to}
	now := s.now()
	if a, ok := s.actions[key]; ok {
		if a.Kind != kind {
			a.CreatedAt = now
		}
		a.Kind = kind
		a.UpdatedAt = now
		return nil
	}
	s.actions[key] = &models.AdmireAction{FromUserID: from, ToUserID: to, Kind: kind, CreatedAt: now, UpdatedAt: now}
	return nil
}

func (f *fakeActions) list(userID string, keep func(fwd, rev *models.AdmireAction) (string, time.Time, bool)) []models.Counterpart {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Counterpart
	for key, a := range s.actions {
		rev := s.actions[[2]string{key[1], key[0]}]
		other, at, ok := keep(a, rev)
		if !ok {
			continue
		}
		if u := s.users[other]; !u.Live() {
			continue
		}
		out = append(out, models.Counterpart{Profile: *s.profiles[other], ActedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Profile.UserID < out[j].Profile.UserID })
	if out == nil {
		out = []models.Counterpart{}
	}
	return out
}

func isAdmire(a *models.AdmireAction) bool { return a != nil && a.Kind == models.KindAdmire }

func (f *fakeActions) ListAdmirers(_ context.Context, userID string) ([]models.Counterpart, error) {
	return f.list(userID, func(a, rev *models.AdmireAction) (string, time.Time, bool) {
		return a.FromUserID, a.CreatedAt, a.ToUserID == userID && isAdmire(a) && !isAdmire(rev)
	}), nil
}

func (f *fakeActions) ListAdmired(_ context.Context, userID string) ([]models.Counterpart, error) {
	return f.list(userID, func(a, rev *models.AdmireAction) (string, time.Time, bool) {
		return a.ToUserID, a.CreatedAt, a.FromUserID == userID && isAdmire(a) && !isAdmire(rev)
	}), nil
}

func (f *fakeActions) ListMatches(_ context.Context, userID string) ([]models.Counterpart, error) {
	return f.list(userID, func(a, rev *models.AdmireAction) (string, time.Time, bool) {
		if a.FromUserID != userID || !isAdmire(a) || !isAdmire(rev) {
			return "", time.Time{}, false
		}
		at := a.CreatedAt
		if rev.CreatedAt.After(at) {
			at = rev.CreatedAt
		}
		return a.ToUserID, at, true
	}), nil
}

// --- collaborators ---

type fakeNotifier struct {
	mu    sync.Mutex
	calls [][2]string
	err   error
}

func (n *fakeNotifier) MutualMatch(_ context.Context, a, b notify.Contact) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, [2]string{a.UserID, b.UserID})
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type spyCache struct {
	mu          sync.Mutex
	values      map[string]int
	invalidated []string
	sets        int
	gets        int

	// gate, when set, holds Get until it is closed.
	gate chan struct{}
}

func newSpyCache() *spyCache { return &spyCache{values: map[string]int{}} }

func spyKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

func (c *spyCache) Get(_ context.Context, a, b string, _, _ time.Time) (int, bool) {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	c.gets++
	defer c.mu.Unlock()
	v, ok := c.values[spyKey(a, b)]
	return v, ok
}

func (c *spyCache) Set(_ context.Context, a, b string, score int, _, _ time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[spyKey(a, b)] = score
	c.sets++
}

func (c *spyCache) Invalidate(_ context.Context, a, b string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, spyKey(a, b))
	c.invalidated = append(c.invalidated, spyKey(a, b))
}

type fakePhotos struct {
	err error
}

func (p *fakePhotos) PresignUpload(_ context.Context, userID string) (string, string, error) {
	if p.err != nil {
		return "", "", p.err
	}
	key := "photos/" + userID + "/new"
	return key, "http://minio/put/" + key, nil
}

func (p *fakePhotos) PresignDownload(_ context.Context, key string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "http://minio/get/" + key, nil
}
