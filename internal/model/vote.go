package model

import "time"

// VoteType distinguishes the ballots cast during a phase
type VoteType string

const (
	VoteDay       VoteType = "day"
	VoteNightWolf VoteType = "night_wolf"
	VotePower     VoteType = "power"
)

// Vote is one ballot. A nil Target is an abstention.
type Vote struct {
	Voter  PlayerID  `json:"voter"`
	Target *PlayerID `json:"target,omitempty"`
	Type   VoteType  `json:"type"`
	Phase  int       `json:"phase"`
	CastAt time.Time `json:"cast_at"`
}

// PowerUse is an append-only ledger entry for one power invocation
type PowerUse struct {
	ID      string         `json:"id"`
	Actor   PlayerID       `json:"actor"`
	Power   PowerID        `json:"power"`
	Targets []PlayerID     `json:"targets,omitempty"`
	Phase   int            `json:"phase"`
	Result  map[string]any `json:"result,omitempty"`
	UsedAt  time.Time      `json:"used_at"`
}

// Purchase is a shop item bought with points
type Purchase struct {
	ID          string    `json:"id"`
	Player      PlayerID  `json:"player"`
	Item        ItemID    `json:"item"`
	Cost        int       `json:"cost"`
	Used        bool      `json:"used"`
	UsedPhase   int       `json:"used_phase,omitempty"`
	PurchasedAt time.Time `json:"purchased_at"`
}
