package profiles

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/pup/internal/server/models"
)

// Columns lists profile columns, qualified with alias p, in the order Scan
// expects them.
const Columns = `p.user_id, p.display_name, p.age, p.location, p.bio,
	p.purpose_domain, p.purpose_archetype, p.purpose_modality, p.purpose_narrative,
	p.interests, p.lifestyle, p.photos, p.updated_at`

type RowScanner interface {
	Scan(dest ...any) error
}

// Scan reads a row selected with Columns into p. Extra destinations are
// scanned after the profile columns.
func Scan(s RowScanner, p *models.Profile, extra ...any) error {
	var interests, lifestyle, photos []byte

	dest := []any{
		&p.UserID, &p.DisplayName, &p.Age, &p.Location, &p.Bio,
		&p.PurposeDomain, &p.PurposeArchetype, &p.PurposeModality, &p.PurposeNarrative,
		&interests, &lifestyle, &photos, &p.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}

	if err := unmarshalJSON(interests, &p.Interests); err != nil {
		return fmt.Errorf("interests: %w", err)
	}
	if err := unmarshalJSON(lifestyle, &p.Lifestyle); err != nil {
		return fmt.Errorf("lifestyle: %w", err)
	}
	if err := unmarshalJSON(photos, &p.Photos); err != nil {
		return fmt.Errorf("photos: %w", err)
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
	if p.Photos == nil {
		p.Photos = []string{}
	}
	return nil
}

func unmarshalJSON(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

func marshalList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}
