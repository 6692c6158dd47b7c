package game

import (
	"context"
	"fmt"
	"time"

	"github.com/mcoot/moonfall/internal/model"
)

// CastVote records or replaces a player's ballot for the current phase.
// A nil target abstains, which only day votes allow.
func (c *Controller) CastVote(ctx context.Context, code model.GameCode, voter model.PlayerID, target *model.PlayerID, voteType model.VoteType) (*model.Game, error) {
	return c.mutate(ctx, code, func(g *model.Game, now time.Time) error {
		p, err := requireLivingParticipant(g, voter)
		if err != nil {
			return err
		}

		var visibility model.Visibility
		switch voteType {
		case model.VoteNightWolf:
			if err := validateWolfVote(g, p, target); err != nil {
				return err
			}
			visibility = model.VisibilityWolves
		case model.VoteDay:
			if err := validateDayVote(g, p, target); err != nil {
				return err
			}
			visibility = model.VisibilityPublic
		case model.VotePower:
			return fmt.Errorf("%w: power votes are recorded by using the power", model.ErrInvalidVote)
		default:
			return fmt.Errorf("%w: unknown vote type %q", model.ErrInvalidVote, voteType)
		}

		vote := model.Vote{
			Voter:  p.ID,
			Type:   voteType,
			Phase:  g.Phase,
			CastAt: now,
		}
		var targetValue any
		if target != nil {
			t := *target
			vote.Target = &t
			targetValue = t
		}
		g.UpsertVote(vote)

		g.Record(now, model.EventVoteCast, visibility, p.ID, map[string]any{
			"type":      voteType,
			"target_id": targetValue,
		})
		return nil
	})
}

func validateWolfVote(g *model.Game, voter *model.Player, target *model.PlayerID) error {
	if g.Status != model.StatusNight {
		return model.ErrWrongPhase
	}
	if voter.Team() != model.FactionWolves {
		return model.ErrWrongRole
	}
	valid := wolfTargets(g)
	if target == nil {
		return &model.TargetError{Reason: "wolves cannot abstain", ValidTargets: valid}
	}
	for _, id := range valid {
		if id == *target {
			return nil
		}
	}
	return &model.TargetError{Reason: "wolves must choose a living villager", ValidTargets: valid}
}

func wolfTargets(g *model.Game) []model.PlayerID {
	var out []model.PlayerID
	for _, p := range g.LivingParticipants() {
		if p.Team() != model.FactionWolves {
			out = append(out, p.ID)
		}
	}
	return out
}

func validateDayVote(g *model.Game, voter *model.Player, target *model.PlayerID) error {
	if g.Status != model.StatusDay && g.Status != model.StatusCouncil {
		return model.ErrWrongPhase
	}
	if target == nil {
		return nil
	}
	valid := dayTargets(g, voter)
	for _, id := range valid {
		if id == *target {
			return nil
		}
	}
	return &model.TargetError{Reason: "vote for a living player other than yourself", ValidTargets: valid}
}

func dayTargets(g *model.Game, voter *model.Player) []model.PlayerID {
	var out []model.PlayerID
	for _, p := range g.LivingParticipants() {
		if p.ID != voter.ID {
			out = append(out, p.ID)
		}
	}
	return out
}

// ValidVoteTargets lists who a player may currently vote for. Bots use it to
// pick a legal ballot.
func ValidVoteTargets(g *model.Game, voter *model.Player, voteType model.VoteType) []model.PlayerID {
	switch voteType {
	case model.VoteNightWolf:
		return wolfTargets(g)
	case model.VoteDay:
		return dayTargets(g, voter)
	default:
		return nil
	}
}
