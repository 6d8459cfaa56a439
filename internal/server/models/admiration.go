package models

import "time"

// Kind of a one-directional action from one user toward another.
type Kind string

const (
	KindAdmire Kind = "admire"
	KindPass   Kind = "pass"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindAdmire || k == KindPass
}

// AdmireAction is the single active action for an ordered pair. A later
// action for the same pair replaces the earlier one.
type AdmireAction struct {
	FromUserID string
	ToUserID   string
	Kind       Kind
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MatchStatus describes a pair from one side's point of view.
type MatchStatus string

const (
	MatchNone    MatchStatus = ""
	MatchPending MatchStatus = "pending"
	MatchMutual  MatchStatus = "mutual"
)

// StatusOf derives the match status from the two directions of a pair. A
// nil action means no action in that direction.
func StatusOf(forward, reverse *AdmireAction) MatchStatus {
	if forward == nil || forward.Kind != KindAdmire {
		return MatchNone
	}
	if reverse != nil && reverse.Kind == KindAdmire {
		return MatchMutual
	}
	return MatchPending
}

// Interactions is the aggregate view of a user's admire state.
type Interactions struct {
	Admirers []ProfileCard `json:"admirers"`
	Admired  []ProfileCard `json:"admired"`
	Matches  []ProfileCard `json:"matches"`
}

// BrowseFilter narrows candidate browsing. Empty fields do not filter.
type BrowseFilter struct {
	Domain    string
	Archetype string
	Modality  string
}

// Counterpart is the other side of an admiration listing: their profile and
// when the relevant action happened.
type Counterpart struct {
	Profile Profile
	ActedAt time.Time
}
