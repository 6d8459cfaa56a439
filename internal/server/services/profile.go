package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pup/internal/common"
	"github.com/dmitrijs2005/pup/internal/dbx"
	"github.com/dmitrijs2005/pup/internal/logging"
	"github.com/dmitrijs2005/pup/internal/scoring"
	"github.com/dmitrijs2005/pup/internal/server/models"
	"github.com/dmitrijs2005/pup/internal/server/photos"
	"github.com/dmitrijs2005/pup/internal/server/repositories/repomanager"
)

const (
	minAge       = 18
	maxAge       = 120
	maxListItems = 20
	maxTextLen   = 2000
)

// PhotoStore presigns object storage URLs for profile photos.
type PhotoStore interface {
	PresignUpload(ctx context.Context, userID string) (string, string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

// ProfileView is a profile with its derived admiration sets and completion.
type ProfileView struct {
	Profile       *models.Profile `json:"profile"`
	Completion    int             `json:"completion"`
	MissingFields []string        `json:"missingFields"`
	PhotoURLs     []string        `json:"photoUrls"`
}

// ProfilePatch carries the fields to change; nil fields are left alone.
type ProfilePatch struct {
	DisplayName      *string           `json:"displayName"`
	Age              *int              `json:"age"`
	Location         *string           `json:"location"`
	Bio              *string           `json:"bio"`
	PurposeDomain    *string           `json:"purposeDomain"`
	PurposeArchetype *string           `json:"purposeArchetype"`
	PurposeModality  *string           `json:"purposeModality"`
	PurposeNarrative *string           `json:"purposeNarrative"`
	Interests        *[]string         `json:"interests"`
	Lifestyle        *models.Lifestyle `json:"lifestyle"`
	Photos           *[]string         `json:"photos"`
}

type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	photos      PhotoStore
	logger      logging.Logger
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, photos PhotoStore, logger logging.Logger) *ProfileService {
	return &ProfileService{db: db, repomanager: m, photos: photos, logger: logger.With("module", "profiles")}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*ProfileView, error) {
	p, err := s.repomanager.Profiles(s.db).Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if err := s.attachAdmiration(ctx, p); err != nil {
		return nil, err
	}
	return s.view(ctx, p), nil
}

// Update applies patch, validates the result and marks onboarding done.
func (s *ProfileService) Update(ctx context.Context, userID string, patch ProfilePatch) (*ProfileView, error) {
	var updated *models.Profile

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Profiles(tx)

		p, err := repo.Get(ctx, userID)
		if err != nil {
			return err
		}
		patch.apply(p)
		if err := validateProfile(p); err != nil {
			return err
		}

		updated, err = repo.Update(ctx, p)
		if err != nil {
			return err
		}
		return s.repomanager.Users(tx).ClearIsNew(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if err := s.attachAdmiration(ctx, updated); err != nil {
		return nil, err
	}
	return s.view(ctx, updated), nil
}

// PhotoUploadURL returns a storage key the user may later list in Photos and
// a presigned PUT URL for it.
func (s *ProfileService) PhotoUploadURL(ctx context.Context, userID string) (string, string, error) {
	key, url, err := s.photos.PresignUpload(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", common.ErrInternal, err)
	}
	return key, url, nil
}

func (s *ProfileService) view(ctx context.Context, p *models.Profile) *ProfileView {
	completion, missing := scoring.Completion(p)

	urls := make([]string, 0, len(p.Photos))
	for _, key := range p.Photos {
		url, err := s.photos.PresignDownload(ctx, key)
		if err != nil {
			s.logger.Warn(ctx, "presign photo failed", "key", key, "error", err)
			continue
		}
		urls = append(urls, url)
	}

	return &ProfileView{Profile: p, Completion: completion, MissingFields: missing, PhotoURLs: urls}
}

// attachAdmiration fills AdmiredBy and AdmiredUsers from the admiration
// listings: one-way admirers and admired plus mutual matches on both sides.
func (s *ProfileService) attachAdmiration(ctx context.Context, p *models.Profile) error {
	repo := s.repomanager.Admirations(s.db)

	admirers, err := repo.ListAdmirers(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("list admirers: %w", err)
	}
	admired, err := repo.ListAdmired(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("list admired: %w", err)
	}
	matches, err := repo.ListMatches(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}

	p.AdmiredBy = append(userIDs(admirers), userIDs(matches)...)
	p.AdmiredUsers = append(userIDs(admired), userIDs(matches)...)
	return nil
}

func userIDs(cs []models.Counterpart) []string {
	ids := make([]string, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.Profile.UserID)
	}
	return ids
}

func (p ProfilePatch) apply(dst *models.Profile) {
	setTrimmed(&dst.DisplayName, p.DisplayName)
	if p.Age != nil {
		dst.Age = *p.Age
	}
	setTrimmed(&dst.Location, p.Location)
	setTrimmed(&dst.Bio, p.Bio)
	setTrimmed(&dst.PurposeDomain, p.PurposeDomain)
	setTrimmed(&dst.PurposeArchetype, p.PurposeArchetype)
	setTrimmed(&dst.PurposeModality, p.PurposeModality)
	setTrimmed(&dst.PurposeNarrative, p.PurposeNarrative)
	if p.Interests != nil {
		dst.Interests = cleanList(*p.Interests)
	}
	if p.Lifestyle != nil {
		dst.Lifestyle = *p.Lifestyle
	}
	if p.Photos != nil {
		dst.Photos = cleanList(*p.Photos)
	}
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// cleanList trims items and drops blanks and duplicates, keeping order.
func cleanList(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func validateProfile(p *models.Profile) error {
	if p.Age != 0 && (p.Age < minAge || p.Age > maxAge) {
		return fmt.Errorf("%w: age must be between %d and %d", common.ErrValidation, minAge, maxAge)
	}
	if len(p.Interests) > maxListItems || len(p.Photos) > maxListItems {
		return fmt.Errorf("%w: at most %d interests and photos", common.ErrValidation, maxListItems)
	}
	for _, text := range []string{p.DisplayName, p.Location, p.Bio, p.PurposeNarrative} {
		if len(text) > maxTextLen {
			return fmt.Errorf("%w: text fields are limited to %d characters", common.ErrValidation, maxTextLen)
		}
	}
	for _, key := range p.Photos {
		if !photos.Owns(p.UserID, key) {
			return fmt.Errorf("%w: unknown photo %q", common.ErrValidation, key)
		}
	}
	return nil
}
