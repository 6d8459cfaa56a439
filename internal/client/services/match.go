package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/pup/internal/client/models"
	"github.com/dmitrijs2005/pup/internal/common"
)

type MatchService struct {
	api API
}

func NewMatchService(api API) *MatchService {
	return &MatchService{api: api}
}

func (s *MatchService) Admire(ctx context.Context, targetUserID string) (*models.ActionResult, error) {
	return s.act(ctx, targetUserID, models.KindAdmire)
}

func (s *MatchService) Pass(ctx context.Context, targetUserID string) (*models.ActionResult, error) {
	return s.act(ctx, targetUserID, models.KindPass)
}

func (s *MatchService) act(ctx context.Context, targetUserID string, kind models.Kind) (*models.ActionResult, error) {
	targetUserID = strings.TrimSpace(targetUserID)
	if targetUserID == "" {
		return nil, common.ErrValidation
	}

	var out models.ActionResult
	body := map[string]string{"targetUserId": targetUserID, "action": string(kind)}
	if err := s.api.Do(ctx, http.MethodPost, pathAdmire, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Interactions lists who admired the user, whom the user admired, and the
// mutual matches.
func (s *MatchService) Interactions(ctx context.Context) (*models.Interactions, error) {
	var out models.Interactions
	if err := s.api.Do(ctx, http.MethodGet, pathAdmire, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Matches lists only the mutual matches.
func (s *MatchService) Matches(ctx context.Context) ([]models.ProfileCard, error) {
	got, err := s.Interactions(ctx)
	if err != nil {
		return nil, err
	}
	return got.Matches, nil
}

// Browse fetches one page of candidates. Pass the returned NextCursor to
// get the following page; an empty cursor means the end.
func (s *MatchService) Browse(ctx context.Context, q models.BrowseQuery) (*models.BrowsePage, error) {
	v := url.Values{}
	if q.Cursor != "" {
		v.Set("cursor", q.Cursor)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.WithScores {
		v.Set("scores", "true")
	}
	if q.Domain != "" {
		v.Set("domain", q.Domain)
	}
	if q.Archetype != "" {
		v.Set("archetype", q.Archetype)
	}
	if q.Modality != "" {
		v.Set("modality", q.Modality)
	}

	path := pathMatches
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var out models.BrowsePage
	if err := s.api.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
