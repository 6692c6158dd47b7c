package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Lobby events
	EventGameCreated     EventType = "game_created"
	EventPlayerJoined    EventType = "player_joined"
	EventPlayerLeft      EventType = "player_left"
	EventSettingsUpdated EventType = "settings_updated"
	EventGameStarted     EventType = "game_started"
	EventRoleAssigned    EventType = "role_assigned"

	// Phase events
	EventPhaseChanged EventType = "phase_changed"
	EventGameEnded    EventType = "game_ended"

	// Resolution events
	EventVoteCast         EventType = "vote_cast"
	EventNightNoVictim    EventType = "night_no_victim"
	EventPlayerSaved      EventType = "player_saved"
	EventWolfKill         EventType = "wolf_kill"
	EventPlayerPoisoned   EventType = "player_poisoned"
	EventPlayerHeartbreak EventType = "player_heartbreak"
	EventWildChildTurned  EventType = "wild_child_turned"
	EventDoubleVoteUsed   EventType = "double_vote_used"
	EventNoElimination    EventType = "no_elimination"
	EventImmunityUsed     EventType = "immunity_used"
	EventPlayerEliminated EventType = "player_eliminated"
	EventPlayerShot       EventType = "player_shot"
	EventPotionReturned   EventType = "potion_returned"

	// Power and shop events
	EventPowerUsed     EventType = "power_used"
	EventPointsAwarded EventType = "points_awarded"
	EventItemPurchased EventType = "item_purchased"
)

// Visibility controls which players may see an event
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityWolves    Visibility = "team:wolves"
	VisibilityActor     Visibility = "actor"
	VisibilityModerator Visibility = "moderator"
)

// Event is one entry of a game's append-only log
type Event struct {
	Seq        int64          `json:"seq"`
	GameCode   GameCode       `json:"game_code"`
	Type       EventType      `json:"type"`
	Visibility Visibility     `json:"visibility"`
	Actor      PlayerID       `json:"actor,omitempty"`
	Phase      int            `json:"phase"`
	Payload    map[string]any `json:"payload,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// VisibleTo reports whether the viewer may see the event. A nil viewer only
// sees public events. A moderator who is not playing sees everything.
func (e Event) VisibleTo(viewer *Player, autoMode bool) bool {
	if e.Visibility == VisibilityPublic {
		return true
	}
	if viewer == nil {
		return false
	}
	if viewer.IsModerator && !autoMode {
		return true
	}
	switch e.Visibility {
	case VisibilityWolves:
		return viewer.Team() == FactionWolves
	case VisibilityActor:
		return viewer.ID == e.Actor
	default:
		return false
	}
}
