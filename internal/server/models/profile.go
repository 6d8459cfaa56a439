package models

import "time"

// Lifestyle attributes compared by the compatibility score.
type Lifestyle struct {
	Smoking  string `json:"smoking,omitempty"`
	Drinking string `json:"drinking,omitempty"`
	Diet     string `json:"diet,omitempty"`
	Activity string `json:"activity,omitempty"`
}

// IsZero reports whether no lifestyle attribute is set.
func (l Lifestyle) IsZero() bool {
	return l == Lifestyle{}
}

// Profile is owned 1:1 by a User. AdmiredBy and AdmiredUsers are derived
// from admirations at read time and never stored.
type Profile struct {
	UserID           string    `json:"userId"`
	DisplayName      string    `json:"displayName"`
	Age              int       `json:"age,omitempty"`
	Location         string    `json:"location,omitempty"`
	Bio              string    `json:"bio,omitempty"`
	PurposeDomain    string    `json:"purposeDomain,omitempty"`
	PurposeArchetype string    `json:"purposeArchetype,omitempty"`
	PurposeModality  string    `json:"purposeModality,omitempty"`
	PurposeNarrative string    `json:"purposeNarrative,omitempty"`
	Interests        []string  `json:"interests"`
	Lifestyle        Lifestyle `json:"lifestyle"`
	Photos           []string  `json:"photos"`
	UpdatedAt        time.Time `json:"updatedAt"`

	AdmiredBy    []string `json:"admiredBy,omitempty"`
	AdmiredUsers []string `json:"admiredUsers,omitempty"`
}

// ProfileCard is the compact profile shown in listings. Score and Status are
// filled only where they make sense for the listing.
type ProfileCard struct {
	UserID             string      `json:"userId"`
	DisplayName        string      `json:"displayName"`
	Age                int         `json:"age,omitempty"`
	Location           string      `json:"location,omitempty"`
	Bio                string      `json:"bio,omitempty"`
	PurposeDomain      string      `json:"purposeDomain,omitempty"`
	PurposeArchetype   string      `json:"purposeArchetype,omitempty"`
	PurposeModality    string      `json:"purposeModality,omitempty"`
	Interests          []string    `json:"interests"`
	Photos             []string    `json:"photos"`
	CompatibilityScore *int        `json:"compatibilityScore,omitempty"`
	Status             MatchStatus `json:"status,omitempty"`
	ActedAt            *time.Time  `json:"actedAt,omitempty"`
}

func (p *Profile) Card() ProfileCard {
	return ProfileCard{
		UserID:           p.UserID,
		DisplayName:      p.DisplayName,
		Age:              p.Age,
		Location:         p.Location,
		Bio:              p.Bio,
		PurposeDomain:    p.PurposeDomain,
		PurposeArchetype: p.PurposeArchetype,
		PurposeModality:  p.PurposeModality,
		Interests:        p.Interests,
		Photos:           p.Photos,
	}
}
