package request

import (
	"github.com/mcoot/moonfall/internal/model"
)

// CreateGameRequest is the request body for creating a game
type CreateGameRequest struct {
	Name          string         `json:"name"`
	ModeratorName string         `json:"moderator_name"`
	Password      string         `json:"password,omitempty"`
	Settings      model.Settings `json:"settings"`
}

// JoinGameRequest is the request body for joining a game
type JoinGameRequest struct {
	DisplayName string `json:"display_name"`
	Password    string `json:"password,omitempty"`
}

// AddBotRequest is the request body for adding a bot to a game
type AddBotRequest struct {
	Strategy string `json:"strategy,omitempty"`
}

// ChangePhaseRequest is the request body for moving a game to another phase
type ChangePhaseRequest struct {
	Target model.Status `json:"target"`
}

// CastVoteRequest is the request body for casting a vote. A missing target
// is an abstention.
type CastVoteRequest struct {
	TargetID *model.PlayerID `json:"target_id"`
	Type     model.VoteType  `json:"type"`
}

// ResolveRequest is the request body for resolving a night or council
type ResolveRequest struct {
	Force bool `json:"force"`
}

// UsePowerRequest is the request body for using a role power
type UsePowerRequest struct {
	Power   model.PowerID    `json:"power"`
	Targets []model.PlayerID `json:"targets"`
}

// AwardPointsRequest is the request body for awarding shop points
type AwardPointsRequest struct {
	PlayerID model.PlayerID `json:"player_id"`
	Amount   int            `json:"amount"`
}

// PurchaseRequest is the request body for buying a shop item
type PurchaseRequest struct {
	Item model.ItemID `json:"item"`
}
