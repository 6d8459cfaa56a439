// Package models defines the API payloads the CLI reads and writes.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Kind is what a user did to another user.
type Kind string

const (
	KindAdmire Kind = "admire"
	KindPass   Kind = "pass"
)

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"isVerified"`
	IsActive   bool      `json:"isActive"`
	IsNew      bool      `json:"isNew"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Lifestyle struct {
	Smoking  string `json:"smoking,omitempty"`
	Drinking string `json:"drinking,omitempty"`
	Diet     string `json:"diet,omitempty"`
	Activity string `json:"activity,omitempty"`
}

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
	AdmiredBy        []string  `json:"admiredBy,omitempty"`
	AdmiredUsers     []string  `json:"admiredUsers,omitempty"`
}

// ProfileView is the response of GET/PUT /api/profile.
type ProfileView struct {
	Profile       *Profile `json:"profile"`
	Completion    int      `json:"completion"`
	MissingFields []string `json:"missingFields"`
	PhotoURLs     []string `json:"photoUrls"`
}

// ProfilePatch mirrors the update body: nil fields are left alone.
type ProfilePatch struct {
	DisplayName      *string    `json:"displayName,omitempty"`
	Age              *int       `json:"age,omitempty"`
	Location         *string    `json:"location,omitempty"`
	Bio              *string    `json:"bio,omitempty"`
	PurposeDomain    *string    `json:"purposeDomain,omitempty"`
	PurposeArchetype *string    `json:"purposeArchetype,omitempty"`
	PurposeModality  *string    `json:"purposeModality,omitempty"`
	PurposeNarrative *string    `json:"purposeNarrative,omitempty"`
	Interests        *[]string  `json:"interests,omitempty"`
	Lifestyle        *Lifestyle `json:"lifestyle,omitempty"`
	Photos           *[]string  `json:"photos,omitempty"`
}

// Empty reports whether the patch would change nothing.
func (p ProfilePatch) Empty() bool {
	return p == ProfilePatch{}
}

// ProfileCard is another user as shown in browse and match lists.
type ProfileCard struct {
	UserID             string     `json:"userId"`
	DisplayName        string     `json:"displayName"`
	Age                int        `json:"age,omitempty"`
	Location           string     `json:"location,omitempty"`
	Bio                string     `json:"bio,omitempty"`
	PurposeDomain      string     `json:"purposeDomain,omitempty"`
	PurposeArchetype   string     `json:"purposeArchetype,omitempty"`
	PurposeModality    string     `json:"purposeModality,omitempty"`
	Interests          []string   `json:"interests"`
	Photos             []string   `json:"photos"`
	CompatibilityScore *int       `json:"compatibilityScore,omitempty"`
	Status             string     `json:"status,omitempty"`
	ActedAt            *time.Time `json:"actedAt,omitempty"`
}

// Summary is the one-line rendering used by the CLI lists.
func (c ProfileCard) Summary() string {
	var b strings.Builder
	name := c.DisplayName
	if name == "" {
		name = "(no name)"
	}
	b.WriteString(name)
	if c.Age > 0 {
		fmt.Fprintf(&b, ", %d", c.Age)
	}
	if c.Location != "" {
		fmt.Fprintf(&b, " · %s", c.Location)
	}

	var purpose []string
	for _, p := range []string{c.PurposeDomain, c.PurposeArchetype, c.PurposeModality} {
		if p != "" {
			purpose = append(purpose, p)
		}
	}
	if len(purpose) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(purpose, "/"))
	}
	if c.CompatibilityScore != nil {
		fmt.Fprintf(&b, " %d%%", *c.CompatibilityScore)
	}
	return b.String()
}

type Interactions struct {
	Admirers []ProfileCard `json:"admirers"`
	Admired  []ProfileCard `json:"admired"`
	Matches  []ProfileCard `json:"matches"`
}

type BrowsePage struct {
	Profiles   []ProfileCard `json:"profiles"`
	NextCursor string        `json:"nextCursor"`
}

// BrowseQuery selects one page of GET /api/admire.
type BrowseQuery struct {
	Cursor     string
	Limit      int
	WithScores bool
	Domain     string
	Archetype  string
	Modality   string
}

// ActionResult is the response of POST /api/admire.
type ActionResult struct {
	IsMutualMatch bool   `json:"isMutualMatch"`
	Message       string `json:"message"`
}

// PhotoUpload is a presigned slot for one profile photo.
type PhotoUpload struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
}
