package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/dmitrijs2005/pup/internal/dbx"
	"github.com/dmitrijs2005/pup/internal/logging"
	"github.com/dmitrijs2005/pup/internal/scoring"
	"github.com/dmitrijs2005/pup/internal/server/models"
	"github.com/dmitrijs2005/pup/internal/server/notify"
	"github.com/dmitrijs2005/pup/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pup/internal/server/scorecache"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBrowseLimit = 20
	MaxBrowseLimit     = 50

	cursorPrefix  = "v1:"
	notifyTimeout = 10 * time.Second
)

// BrowsePage is one page of candidate profiles. NextCursor is empty on the
// last page.
type BrowsePage struct {
	Profiles   []models.ProfileCard `json:"profiles"`
	NextCursor string               `json:"nextCursor"`
}

// MatchService records admire and pass actions and derives matches from
// them. There is no match table: mutuality is read from the two directions
// of a pair every time.
type MatchService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       scorecache.Cache
	notifier    notify.Notifier
	logger      logging.Logger

	pending sync.WaitGroup
	scores  singleflight.Group
}

func NewMatchService(db *sql.DB, m repomanager.RepositoryManager, cache scorecache.Cache, notifier notify.Notifier, logger logging.Logger) *MatchService {
	return &MatchService{
		db:          db,
		repomanager: m,
		cache:       cache,
		notifier:    notifier,
		logger:      logger.With("module", "matches"),
	}
}

// Admire records from→to as admire and reports whether the pair is now
// mutual.
func (s *MatchService) Admire(ctx context.Context, fromUserID, toUserID string) (bool, error) {
	return s.Act(ctx, fromUserID, toUserID, models.KindAdmire)
}

// Pass records from→to as pass. Any match between the two is gone at once.
func (s *MatchService) Pass(ctx context.Context, fromUserID, toUserID string) error {
	_, err := s.Act(ctx, fromUserID, toUserID, models.KindPass)
	return err
}

// Act upserts the action for the ordered pair. The target check, the upsert
// and the reverse lookup share one transaction, and repeating an action
// changes nothing.
func (s *MatchService) Act(ctx context.Context, fromUserID, toUserID string, kind models.Kind) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("%w: unknown action %q", common.ErrValidation, kind)
	}
	if strings.TrimSpace(toUserID) == "" {
		return false, fmt.Errorf("%w: target user is required", common.ErrValidation)
	}
	if fromUserID == toUserID {
		return false, common.ErrInvalidTarget
	}

	var mutual, newlyMutual bool

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		target, err := s.repomanager.Users(tx).GetByID(ctx, toUserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrTargetNotFound
			}
			return err
		}
		if !target.Live() {
			return common.ErrTargetNotFound
		}

		repo := s.repomanager.Admirations(tx)

		// Without the lock, concurrent A→B and B→A admires under READ
		// COMMITTED can each miss the other's row and both report no match.
		if err := repo.LockPair(ctx, fromUserID, toUserID); err != nil {
			return err
		}

		prev, err := lookupAction(ctx, repo.Get, fromUserID, toUserID)
		if err != nil {
			return err
		}
		if err := repo.Upsert(ctx, fromUserID, toUserID, kind); err != nil {
			return err
		}
		if kind != models.KindAdmire {
			return nil
		}

		reverse, err := lookupAction(ctx, repo.Get, toUserID, fromUserID)
		if err != nil {
			return err
		}
		mutual = models.StatusOf(&models.AdmireAction{Kind: kind}, reverse) == models.MatchMutual
		newlyMutual = mutual && (prev == nil || prev.Kind != models.KindAdmire)
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrTargetNotFound) {
			return false, common.ErrTargetNotFound
		}
		return false, fmt.Errorf("record %s: %w", kind, err)
	}

	s.cache.Invalidate(ctx, fromUserID, toUserID)

	if newlyMutual {
		s.logger.Info(ctx, "mutual match", "user_a", fromUserID, "user_b", toUserID)
		s.notifyMatch(ctx, fromUserID, toUserID)
	}

	return mutual, nil
}

func lookupAction(ctx context.Context, get func(context.Context, string, string) (*models.AdmireAction, error), from, to string) (*models.AdmireAction, error) {
	a, err := get(ctx, from, to)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	return a, err
}

// notifyMatch delivers the match notification in the background. Delivery
// failures are logged and never reach the caller.
func (s *MatchService) notifyMatch(ctx context.Context, a, b string) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		ca, err := s.contact(ctx, a)
		if err != nil {
			s.logger.Warn(ctx, "match notification skipped", "user_id", a, "error", err)
			return
		}
		cb, err := s.contact(ctx, b)
		if err != nil {
			s.logger.Warn(ctx, "match notification skipped", "user_id", b, "error", err)
			return
		}
		if err := s.notifier.MutualMatch(ctx, ca, cb); err != nil {
			s.logger.Error(ctx, "match notification failed", "user_a", a, "user_b", b, "error", err)
		}
	}()
}

// Wait blocks until background notifications have finished.
func (s *MatchService) Wait() {
	s.pending.Wait()
}

func (s *MatchService) contact(ctx context.Context, userID string) (notify.Contact, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return notify.Contact{}, err
	}
	c := notify.Contact{UserID: u.ID, Email: u.Email}
	if p, err := s.repomanager.Profiles(s.db).Get(ctx, userID); err == nil {
		c.DisplayName = p.DisplayName
	}
	return c, nil
}

// ListAdmirers returns users with one-way interest in userID.
func (s *MatchService) ListAdmirers(ctx context.Context, userID string) ([]models.ProfileCard, error) {
	cs, err := s.repomanager.Admirations(s.db).ListAdmirers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list admirers: %w", err)
	}
	return cards(cs, models.MatchNone), nil
}

// ListAdmired returns users userID admires without being admired back.
func (s *MatchService) ListAdmired(ctx context.Context, userID string) ([]models.ProfileCard, error) {
	cs, err := s.repomanager.Admirations(s.db).ListAdmired(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list admired: %w", err)
	}
	return cards(cs, models.MatchPending), nil
}

// ListMatches returns mutual matches of userID with compatibility scores.
func (s *MatchService) ListMatches(ctx context.Context, userID string) ([]models.ProfileCard, error) {
	cs, err := s.repomanager.Admirations(s.db).ListMatches(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if len(cs) == 0 {
		return []models.ProfileCard{}, nil
	}

	me, err := s.ownProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := cards(cs, models.MatchMutual)
	for i := range cs {
		score := s.score(ctx, me, &cs[i].Profile)
		out[i].CompatibilityScore = &score
	}
	return out, nil
}

// Interactions returns admirers, admired and matches together.
func (s *MatchService) Interactions(ctx context.Context, userID string) (*models.Interactions, error) {
	admirers, err := s.ListAdmirers(ctx, userID)
	if err != nil {
		return nil, err
	}
	admired, err := s.ListAdmired(ctx, userID)
	if err != nil {
		return nil, err
	}
	matches, err := s.ListMatches(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Interactions{Admirers: admirers, Admired: admired, Matches: matches}, nil
}

// Browse pages through candidates userID has not acted on yet, ordered by
// user id. cursor is the opaque NextCursor of the previous page or empty.
func (s *MatchService) Browse(ctx context.Context, userID, cursor string, limit int, f models.BrowseFilter, withScores bool) (*BrowsePage, error) {
	after, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultBrowseLimit
	case limit > MaxBrowseLimit:
		limit = MaxBrowseLimit
	}

	found, err := s.repomanager.Profiles(s.db).Browse(ctx, userID, after, limit+1, f)
	if err != nil {
		return nil, fmt.Errorf("browse: %w", err)
	}

	page := &BrowsePage{Profiles: make([]models.ProfileCard, 0, limit)}
	if len(found) > limit {
		found = found[:limit]
		page.NextCursor = EncodeCursor(found[len(found)-1].UserID)
	}

	var me *models.Profile
	if withScores && len(found) > 0 {
		if me, err = s.ownProfile(ctx, userID); err != nil {
			return nil, err
		}
	}

	for _, p := range found {
		card := p.Card()
		if withScores {
			score := s.score(ctx, me, p)
			card.CompatibilityScore = &score
		}
		page.Profiles = append(page.Profiles, card)
	}
	return page, nil
}

func (s *MatchService) ownProfile(ctx context.Context, userID string) (*models.Profile, error) {
	me, err := s.repomanager.Profiles(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return me, nil
}

// score serves from the cache when both profile versions still match.
func (s *MatchService) score(ctx context.Context, me, other *models.Profile) int {
	if me == nil || other == nil {
		return scoring.Compatibility(me, other)
	}

	// Concurrent misses on one pair and profile versions share a single
	// computation and cache write.
	v, _, _ := s.scores.Do(scoreKey(me, other), func() (any, error) {
		if v, ok := s.cache.Get(ctx, me.UserID, other.UserID, me.UpdatedAt, other.UpdatedAt); ok {
			return v, nil
		}
		v := scoring.Compatibility(me, other)
		s.cache.Set(ctx, me.UserID, other.UserID, v, me.UpdatedAt, other.UpdatedAt)
		return v, nil
	})
	return v.(int)
}

func scoreKey(a, b *models.Profile) string {
	if a.UserID > b.UserID {
		a, b = b, a
	}
	return fmt.Sprintf("%s@%d:%s@%d", a.UserID, a.UpdatedAt.UnixNano(), b.UserID, b.UpdatedAt.UnixNano())
}

func cards(cs []models.Counterpart, status models.MatchStatus) []models.ProfileCard {
	out := make([]models.ProfileCard, 0, len(cs))
	for _, c := range cs {
		card := c.Profile.Card()
		card.Status = status
		acted := c.ActedAt
		card.ActedAt = &acted
		out = append(out, card)
	}
	return out
}

// EncodeCursor makes the opaque browse cursor for a position after userID.
func EncodeCursor(userID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + userID))
}

// DecodeCursor reverses EncodeCursor. An empty cursor is the first page.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("%w: bad cursor", common.ErrValidation)
	}
	after, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok || after == "" {
		return "", fmt.Errorf("%w: bad cursor", common.ErrValidation)
	}
	return after, nil
}
