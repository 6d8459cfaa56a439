package httpserver

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/dmitrijs2005/pup/internal/server/models"
	"github.com/dmitrijs2005/pup/internal/server/services"
)

// Tokens in these tests are readable strings: "access:<id>", "refresh:<id>"
// and "expired".

type fakeUsers struct {
	mu        sync.Mutex
	users     map[string]*models.User
	password  map[string]string
	loggedOut []string
}

func newFakeUsers() *fakeUsers {
	f := &fakeUsers{users: map[string]*models.User{}, password: map[string]string{}}
	f.users["demo"] = &models.User{ID: "demo", Email: services.DemoEmail, Role: models.RoleUser, IsActive: true, IsVerified: true}
	f.password[services.DemoEmail] = services.DemoPassword
	return f
}

func pairFor(id string) *services.TokenPair {
	now := time.Now()
	return &services.TokenPair{
		AccessToken:      "access:" + id,
		AccessExpiresAt:  now.Add(15 * time.Minute),
		RefreshToken:     "refresh:" + id,
		RefreshExpiresAt: now.Add(7 * 24 * time.Hour),
	}
}

func (f *fakeUsers) byEmail(email string) *models.User {
	for _, u := range f.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (f *fakeUsers) Signup(_ context.Context, email, password string) (*services.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !strings.Contains(email, "@") {
		return nil, common.ErrValidation
	}
	if f.byEmail(email) != nil {
		return nil, common.ErrAlreadyExists
	}
	u := &models.User{ID: "u" + email, Email: email, Role: models.RoleUser, IsActive: true, IsNew: true}
	f.users[u.ID] = u
	f.password[email] = password
	return &services.AuthResult{Tokens: pairFor(u.ID), User: u.View()}, nil
}

func (f *fakeUsers) Login(_ context.Context, email, password string) (*services.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byEmail(email)
	if u == nil || f.password[email] != password {
		return nil, common.ErrInvalidCredentials
	}
	return &services.AuthResult{Tokens: pairFor(u.ID), User: u.View()}, nil
}

func (f *fakeUsers) Refresh(_ context.Context, token string) (*services.TokenPair, error) {
	u, err := f.fromToken(token, "refresh:")
	if err != nil {
		return nil, common.ErrSessionExpired
	}
	return pairFor(u.ID), nil
}

func (f *fakeUsers) Logout(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = append(f.loggedOut, userID)
	return nil
}

func (f *fakeUsers) LogoutWithRefresh(ctx context.Context, token string) error {
	u, err := f.fromToken(token, "refresh:")
	if err != nil {
		return nil
	}
	return f.Logout(ctx, u.ID)
}

func (f *fakeUsers) Whoami(_ context.Context, userID string) (*models.UserView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok || !u.Live() {
		return nil, common.ErrUnauthenticated
	}
	return u.View(), nil
}

func (f *fakeUsers) CheckAccess(_ context.Context, token string) (*models.User, error) {
	u, err := f.fromToken(token, "access:")
	if err != nil {
		return nil, err
	}
	if !u.Live() {
		return nil, common.ErrUnauthenticated
	}
	return u, nil
}

func (f *fakeUsers) CheckRefresh(_ context.Context, token string) (*models.User, error) {
	u, err := f.fromToken(token, "refresh:")
	if err != nil || !u.Live() {
		return nil, common.ErrSessionExpired
	}
	return u, nil
}

func (f *fakeUsers) fromToken(token, prefix string) (*models.User, error) {
	if token == "expired" {
		return nil, common.ErrTokenExpired
	}
	id, ok := strings.CutPrefix(token, prefix)
	if !ok {
		return nil, common.ErrMalformedToken
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrUnauthenticated
	}
	cp := *u
	return &cp, nil
}

type fakeMatches struct {
	mu      sync.Mutex
	known   map[string]bool
	actions map[[2]string]models.Kind
	browsed []models.BrowseFilter
}

func newFakeMatches(ids ...string) *fakeMatches {
	f := &fakeMatches{known: map[string]bool{}, actions: map[[2]string]models.Kind{}}
	for _, id := range ids {
		f.known[id] = true
	}
	return f
}

func (f *fakeMatches) Act(_ context.Context, from, to string, kind models.Kind) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !kind.Valid() {
		return false, common.ErrValidation
	}
	if from == to {
		return false, common.ErrInvalidTarget
	}
	if !f.known[to] {
		return false, common.ErrTargetNotFound
	}
	f.actions[[2]string{from, to}] = kind
	return kind == models.KindAdmire && f.actions[[2]string{to, from}] == models.KindAdmire, nil
}

func (f *fakeMatches) Interactions(context.Context, string) (*models.Interactions, error) {
	return &models.Interactions{
		Admirers: []models.ProfileCard{},
		Admired:  []models.ProfileCard{},
		Matches:  []models.ProfileCard{{UserID: "b", Status: models.MatchMutual}},
	}, nil
}

func (f *fakeMatches) Browse(_ context.Context, _, cursor string, limit int, flt models.BrowseFilter, _ bool) (*services.BrowsePage, error) {
	f.mu.Lock()
	f.browsed = append(f.browsed, flt)
	f.mu.Unlock()
	if _, err := services.DecodeCursor(cursor); err != nil {
		return nil, err
	}
	return &services.BrowsePage{Profiles: []models.ProfileCard{{UserID: "b"}}, NextCursor: services.EncodeCursor("b")}, nil
}

type fakeProfiles struct{}

func (fakeProfiles) Get(_ context.Context, userID string) (*services.ProfileView, error) {
	return &services.ProfileView{Profile: &models.Profile{UserID: userID}, MissingFields: []string{}, PhotoURLs: []string{}}, nil
}

func (fakeProfiles) Update(_ context.Context, userID string, patch services.ProfilePatch) (*services.ProfileView, error) {
	p := &models.Profile{UserID: userID}
	if patch.Age != nil {
		if *patch.Age < 18 {
			return nil, common.ErrValidation
		}
		p.Age = *patch.Age
	}
	return &services.ProfileView{Profile: p, MissingFields: []string{}, PhotoURLs: []string{}}, nil
}

func (fakeProfiles) PhotoUploadURL(_ context.Context, userID string) (string, string, error) {
	return "photos/" + userID + "/x", "http://minio/put", nil
}
