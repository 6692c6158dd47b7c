package model

import "time"

// PlayerID uniquely identifies a player within a game
type PlayerID string

// DeathReason records how a player died
type DeathReason string

const (
	DeathDevoured   DeathReason = "devoured"
	DeathVote       DeathReason = "vote"
	DeathPoisoned   DeathReason = "poisoned"
	DeathShot       DeathReason = "shot"
	DeathHeartbreak DeathReason = "heartbreak"
)

// Player represents a participant in one game
type Player struct {
	ID          PlayerID `json:"id"`
	DisplayName string   `json:"display_name"`
	IsModerator bool     `json:"is_moderator,omitempty"`
	IsBot       bool     `json:"is_bot,omitempty"`
	BotStrategy string   `json:"bot_strategy,omitempty"`
	Alive       bool     `json:"alive"`
	Role        RoleID   `json:"role,omitempty"`
	Points      int      `json:"points"`

	DeathReason DeathReason `json:"death_reason,omitempty"`
	DiedAt      *time.Time  `json:"died_at,omitempty"`
	DiedPhase   int         `json:"died_phase,omitempty"`
	DiedStatus  Status      `json:"died_status,omitempty"`

	// Set by cupid and the wild child
	LoverID PlayerID `json:"lover_id,omitempty"`
	ModelID PlayerID `json:"model_id,omitempty"`

	JoinedAt time.Time `json:"joined_at"`
}

// Team returns the faction of the player's current role
func (p *Player) Team() Faction {
	role, ok := LookupRole(p.Role)
	if !ok {
		return FactionNone
	}
	return role.Team
}

// DiedIn reports whether the player died during the given phase number
func (p *Player) DiedIn(phase int) bool {
	return !p.Alive && p.DiedAt != nil && p.DiedPhase == phase
}
