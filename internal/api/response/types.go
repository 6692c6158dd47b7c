package response

import (
	"time"

	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/services/auth"
	"github.com/mcoot/moonfall/internal/services/bot"
	"github.com/mcoot/moonfall/internal/services/game"
)

// Player represents a player in API responses. Role and team are empty
// unless the viewer may know them.
type Player struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"display_name"`
	IsModerator bool              `json:"is_moderator,omitempty"`
	IsBot       bool              `json:"is_bot,omitempty"`
	Alive       bool              `json:"alive"`
	Role        model.RoleID      `json:"role,omitempty"`
	Team        model.Faction     `json:"team,omitempty"`
	Points      int               `json:"points"`
	DeathReason model.DeathReason `json:"death_reason,omitempty"`
	DiedPhase   int               `json:"died_phase,omitempty"`
	LoverID     string            `json:"lover_id,omitempty"`
}

// Vote represents a ballot the viewer may see
type Vote struct {
	Voter  string         `json:"voter"`
	Target *string        `json:"target,omitempty"`
	Type   model.VoteType `json:"type"`
}

// Item represents a purchase held by the viewer
type Item struct {
	ID   string       `json:"id"`
	Item model.ItemID `json:"item"`
	Used bool         `json:"used"`
}

// Game is the caller's view of a game
type Game struct {
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Status      model.Status   `json:"status"`
	Phase       int            `json:"phase"`
	Deadline    *time.Time     `json:"deadline,omitempty"`
	Settings    model.Settings `json:"settings"`
	Winner      model.Faction  `json:"winner,omitempty"`
	HasPassword bool           `json:"has_password"`
	Players     []Player       `json:"players"`
	Votes       []Vote         `json:"votes"`
	Items       []Item         `json:"items,omitempty"`
	ViewerID    string         `json:"viewer_id,omitempty"`
	EventSeq    int64          `json:"event_seq"`
	CreatedAt   time.Time      `json:"created_at"`
	EndedAt     *time.Time     `json:"ended_at,omitempty"`
}

// canSeeRole reports whether viewer may know subject's role. Roles are public
// once a player dies or the game ends.
func canSeeRole(g *model.Game, viewer, subject *model.Player) bool {
	switch {
	case g.Status == model.StatusEnded || !subject.Alive && subject.DiedAt != nil:
		return true
	case viewer == nil:
		return false
	case viewer.ID == subject.ID:
		return true
	case viewer.IsModerator && !g.Settings.AutoMode:
		return true
	default:
		return viewer.Team() == model.FactionWolves && subject.Team() == model.FactionWolves
	}
}

// canSeeVote mirrors the visibility of the vote_cast event
func canSeeVote(g *model.Game, viewer *model.Player, v model.Vote) bool {
	if v.Type == model.VoteDay {
		return true
	}
	if viewer == nil {
		return false
	}
	if viewer.IsModerator && !g.Settings.AutoMode {
		return true
	}
	return v.Type == model.VoteNightWolf && viewer.Team() == model.FactionWolves
}

// PlayerFromModel converts a model.Player to a response Player for viewer
func PlayerFromModel(g *model.Game, viewer *model.Player, p *model.Player) Player {
	out := Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsModerator: p.IsModerator,
		IsBot:       p.IsBot,
		Alive:       p.Alive,
		Points:      p.Points,
		DeathReason: p.DeathReason,
		DiedPhase:   p.DiedPhase,
	}
	if canSeeRole(g, viewer, p) {
		out.Role = p.Role
		out.Team = p.Team()
	}
	if p.LoverID != "" && viewer != nil {
		if viewer.ID == p.ID || viewer.ID == p.LoverID || viewer.IsModerator && !g.Settings.AutoMode {
			out.LoverID = string(p.LoverID)
		}
	}
	return out
}

// GameFromModel builds the redacted view of g for viewer. A nil viewer gets
// the public view.
func GameFromModel(g *model.Game, viewer *model.Player) Game {
	out := Game{
		Code:        string(g.Code),
		Name:        g.Name,
		Status:      g.Status,
		Phase:       g.Phase,
		Deadline:    g.Deadline,
		Settings:    g.Settings,
		Winner:      g.Winner,
		HasPassword: g.PasswordHash != "",
		Players:     make([]Player, 0, len(g.Players)),
		Votes:       []Vote{},
		EventSeq:    g.EventSeq,
		CreatedAt:   g.CreatedAt,
		EndedAt:     g.EndedAt,
	}
	if viewer != nil {
		out.ViewerID = string(viewer.ID)
	}

	for i := range g.Players {
		out.Players = append(out.Players, PlayerFromModel(g, viewer, &g.Players[i]))
	}

	for _, v := range g.Votes {
		if v.Phase != g.Phase || !canSeeVote(g, viewer, v) {
			continue
		}
		vote := Vote{Voter: string(v.Voter), Type: v.Type}
		if v.Target != nil {
			target := string(*v.Target)
			vote.Target = &target
		}
		out.Votes = append(out.Votes, vote)
	}

	if viewer != nil {
		for _, p := range g.Purchases {
			if p.Player == viewer.ID {
				out.Items = append(out.Items, Item{ID: p.ID, Item: p.Item, Used: p.Used})
			}
		}
	}
	return out
}

// GameResponse wraps a game view in the success envelope
type GameResponse struct {
	Success bool `json:"success"`
	Game    Game `json:"game"`
}

// NewGameResponse creates a GameResponse
func NewGameResponse(g *model.Game, viewer *model.Player) GameResponse {
	return GameResponse{Success: true, Game: GameFromModel(g, viewer)}
}

// SessionResponse is returned when a caller creates or joins a game
type SessionResponse struct {
	Success      bool      `json:"success"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	PlayerID     string    `json:"player_id"`
	Game         Game      `json:"game"`
}

// NewSessionResponse creates a SessionResponse
func NewSessionResponse(g *model.Game, viewer *model.Player, s *auth.Session) SessionResponse {
	return SessionResponse{
		Success:      true,
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
		PlayerID:     string(viewer.ID),
		Game:         GameFromModel(g, viewer),
	}
}

// BotResponse is returned when a bot is added
type BotResponse struct {
	Success bool   `json:"success"`
	Bot     Player `json:"bot"`
}

// RemovedResponse reports how many players were removed
type RemovedResponse struct {
	Success bool `json:"success"`
	Removed int  `json:"removed"`
}

// VoteResponse is returned after a vote is cast
type VoteResponse struct {
	Success    bool         `json:"success"`
	Game       Game         `json:"game"`
	BotActions []bot.Action `json:"bot_actions,omitempty"`
}

// ResolveResponse wraps the outcome of a night or council resolution
type ResolveResponse struct {
	Success    bool              `json:"success"`
	Night      *game.NightResult `json:"night,omitempty"`
	Day        *game.DayResult   `json:"day,omitempty"`
	Game       Game              `json:"game"`
	BotActions []bot.Action      `json:"bot_actions,omitempty"`
}

// PowerResponse returns the result of a power to its caller
type PowerResponse struct {
	Success bool           `json:"success"`
	Power   model.PowerID  `json:"power"`
	Targets []string       `json:"targets"`
	Result  map[string]any `json:"result,omitempty"`
	Deaths  []game.Death   `json:"deaths,omitempty"`
	Winner  model.Faction  `json:"winner,omitempty"`
}

// NewPowerResponse creates a PowerResponse
func NewPowerResponse(r *game.PowerResult) PowerResponse {
	targets := make([]string, len(r.Use.Targets))
	for i, t := range r.Use.Targets {
		targets[i] = string(t)
	}
	return PowerResponse{
		Success: true,
		Power:   r.Use.Power,
		Targets: targets,
		Result:  r.Use.Result,
		Deaths:  r.Deaths,
		Winner:  r.Winner,
	}
}

// PurchaseResponse is returned after buying an item
type PurchaseResponse struct {
	Success  bool           `json:"success"`
	Purchase model.Purchase `json:"purchase"`
}

// EventsResponse lists the events visible to the caller
type EventsResponse struct {
	Success bool          `json:"success"`
	Events  []model.Event `json:"events"`
	LastSeq int64         `json:"last_seq"`
}

// NewEventsResponse creates an EventsResponse. LastSeq is the highest
// sequence number returned, or after when nothing was.
func NewEventsResponse(events []model.Event, after int64) EventsResponse {
	last := after
	if n := len(events); n > 0 {
		last = events[n-1].Seq
	}
	if events == nil {
		events = []model.Event{}
	}
	return EventsResponse{Success: true, Events: events, LastSeq: last}
}

// CatalogResponse lists the roles and shop items
type CatalogResponse struct {
	Success bool         `json:"success"`
	Roles   []model.Role `json:"roles"`
	Items   []model.Item `json:"items"`
}

// HealthResponse is returned by the liveness probe
type HealthResponse struct {
	Status string `json:"status"`
}

// MeResponse describes the caller and what they can currently do
type MeResponse struct {
	Success            bool                                `json:"success"`
	Player             Player                              `json:"player"`
	VoteTargets        map[model.VoteType][]model.PlayerID `json:"vote_targets"`
	AllowedTransitions []model.Status                      `json:"allowed_transitions,omitempty"`
}
