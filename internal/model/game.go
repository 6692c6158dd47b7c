package model

import (
	"strings"
	"time"
)

// GameCode is the short human-readable code players use to join a game
type GameCode string

// Status is the current phase of a game
type Status string

const (
	StatusLobby   Status = "lobby"   // Waiting for players to join
	StatusNight   Status = "night"   // Wolves vote, night powers are used
	StatusDay     Status = "day"     // Discussion, day votes may be cast
	StatusCouncil Status = "council" // Final day votes before resolution
	StatusEnded   Status = "ended"   // Terminal, a faction has won
)

// Faction is a team alignment; the empty faction means "no winner yet"
type Faction string

const (
	FactionNone    Faction = ""
	FactionVillage Faction = "village"
	FactionWolves  Faction = "wolves"
	FactionSolo    Faction = "solo"
)

// Default phase durations used when settings leave them unset
const (
	DefaultDaySeconds     = 300
	DefaultCouncilSeconds = 120
)

// Settings holds the moderator-configurable options of a game
type Settings struct {
	DaySeconds     int      `json:"day_seconds,omitempty"`
	CouncilSeconds int      `json:"council_seconds,omitempty"`
	AutoMode       bool     `json:"auto_mode,omitempty"`
	ExtraRoles     []RoleID `json:"extra_roles,omitempty"`
}

// PhaseDuration returns how long the given phase lasts. Only day and council
// are timed; other phases return zero.
func (s Settings) PhaseDuration(status Status) time.Duration {
	switch status {
	case StatusDay:
		if s.DaySeconds > 0 {
			return time.Duration(s.DaySeconds) * time.Second
		}
		return DefaultDaySeconds * time.Second
	case StatusCouncil:
		if s.CouncilSeconds > 0 {
			return time.Duration(s.CouncilSeconds) * time.Second
		}
		return DefaultCouncilSeconds * time.Second
	default:
		return 0
	}
}

// Game is the aggregate root: everything resolution needs is loaded and
// saved as one unit, guarded by Version.
type Game struct {
	ID           string     `json:"id"`
	Code         GameCode   `json:"code"`
	Name         string     `json:"name"`
	Status       Status     `json:"status"`
	Phase        int        `json:"phase"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Settings     Settings   `json:"settings"`
	Winner       Faction    `json:"winner,omitempty"`
	PasswordHash string     `json:"password_hash,omitempty"`

	Players   []Player   `json:"players"`
	Votes     []Vote     `json:"votes,omitempty"`
	PowerUses []PowerUse `json:"power_uses,omitempty"`
	Purchases []Purchase `json:"purchases,omitempty"`

	EventSeq  int64      `json:"event_seq"`
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	// events recorded during the current mutation, drained after commit
	pending []Event
}

// IsActive reports whether the game is between start and end
func (g *Game) IsActive() bool {
	return g.Status == StatusNight || g.Status == StatusDay || g.Status == StatusCouncil
}

// Player returns the player with the given ID, or nil if not found
func (g *Game) Player(id PlayerID) *Player {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i]
		}
	}
	return nil
}

// PlayerByName finds a player by display name, ignoring case
func (g *Game) PlayerByName(name string) *Player {
	for i := range g.Players {
		if strings.EqualFold(g.Players[i].DisplayName, name) {
			return &g.Players[i]
		}
	}
	return nil
}

// Moderator returns the game's moderator, or nil if none
func (g *Game) Moderator() *Player {
	for i := range g.Players {
		if g.Players[i].IsModerator {
			return &g.Players[i]
		}
	}
	return nil
}

// Participates reports whether the player takes part in play. The moderator
// only plays when auto mode is on.
func (g *Game) Participates(p *Player) bool {
	return p != nil && (!p.IsModerator || g.Settings.AutoMode)
}

// Participants returns all players taking part in play, alive or dead
func (g *Game) Participants() []*Player {
	var out []*Player
	for i := range g.Players {
		if g.Participates(&g.Players[i]) {
			out = append(out, &g.Players[i])
		}
	}
	return out
}

// LivingParticipants returns participating players that are still alive
func (g *Game) LivingParticipants() []*Player {
	var out []*Player
	for _, p := range g.Participants() {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// LiveWolves returns the live wolf roster
func (g *Game) LiveWolves() []*Player {
	var out []*Player
	for _, p := range g.LivingParticipants() {
		if p.Team() == FactionWolves {
			out = append(out, p)
		}
	}
	return out
}

// VotesFor returns the votes of the given type cast in the given phase
func (g *Game) VotesFor(phase int, voteType VoteType) []Vote {
	var out []Vote
	for _, v := range g.Votes {
		if v.Phase == phase && v.Type == voteType {
			out = append(out, v)
		}
	}
	return out
}

// UpsertVote records a vote, replacing any earlier vote by the same voter of
// the same type in the same phase
func (g *Game) UpsertVote(v Vote) {
	for i := range g.Votes {
		existing := &g.Votes[i]
		if existing.Voter == v.Voter && existing.Phase == v.Phase && existing.Type == v.Type {
			*existing = v
			return
		}
	}
	g.Votes = append(g.Votes, v)
}

// PowerUsesIn returns uses of the given power recorded in the given phase
func (g *Game) PowerUsesIn(phase int, power PowerID) []PowerUse {
	var out []PowerUse
	for _, u := range g.PowerUses {
		if u.Phase == phase && u.Power == power {
			out = append(out, u)
		}
	}
	return out
}

// PowerUsesBy returns every use of a power by one player
func (g *Game) PowerUsesBy(actor PlayerID, power PowerID) []PowerUse {
	var out []PowerUse
	for _, u := range g.PowerUses {
		if u.Actor == actor && u.Power == power {
			out = append(out, u)
		}
	}
	return out
}

// UnusedPurchase returns the player's first unused purchase of an item, or nil
func (g *Game) UnusedPurchase(player PlayerID, item ItemID) *Purchase {
	for i := range g.Purchases {
		p := &g.Purchases[i]
		if p.Player == player && p.Item == item && !p.Used {
			return p
		}
	}
	return nil
}

// Record appends an event to the pending list with the next sequence number.
// Pending events are persisted after the mutation commits.
func (g *Game) Record(now time.Time, eventType EventType, visibility Visibility, actor PlayerID, payload map[string]any) {
	g.EventSeq++
	g.pending = append(g.pending, Event{
		Seq:        g.EventSeq,
		GameCode:   g.Code,
		Type:       eventType,
		Visibility: visibility,
		Actor:      actor,
		Phase:      g.Phase,
		Payload:    payload,
		CreatedAt:  now,
	})
}

// DrainEvents returns and clears the pending events
func (g *Game) DrainEvents() []Event {
	events := g.pending
	g.pending = nil
	return events
}

// Clone returns a deep copy of the game without pending events
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	out := *g
	out.pending = nil
	out.Deadline = cloneTime(g.Deadline)
	out.EndedAt = cloneTime(g.EndedAt)
	if g.Settings.ExtraRoles != nil {
		out.Settings.ExtraRoles = append([]RoleID(nil), g.Settings.ExtraRoles...)
	}
	if g.Players != nil {
		out.Players = make([]Player, len(g.Players))
		for i, p := range g.Players {
			p.DiedAt = cloneTime(p.DiedAt)
			out.Players[i] = p
		}
	}
	if g.Votes != nil {
		out.Votes = make([]Vote, len(g.Votes))
		for i, v := range g.Votes {
			if v.Target != nil {
				target := *v.Target
				v.Target = &target
			}
			out.Votes[i] = v
		}
	}
	if g.PowerUses != nil {
		out.PowerUses = make([]PowerUse, len(g.PowerUses))
		for i, u := range g.PowerUses {
			u.Targets = append([]PlayerID(nil), u.Targets...)
			if u.Result != nil {
				result := make(map[string]any, len(u.Result))
				for k, v := range u.Result {
					result[k] = v
				}
				u.Result = result
			}
			out.PowerUses[i] = u
		}
	}
	if g.Purchases != nil {
		out.Purchases = append([]Purchase(nil), g.Purchases...)
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
