package game

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/mcoot/moonfall/internal/model"
)

// NightResult reports the outcome of a night resolution
type NightResult struct {
	Victim *model.PlayerID        `json:"victim,omitempty"`
	Saved  bool                   `json:"saved"`
	Tie    bool                   `json:"tie"`
	Tally  map[model.PlayerID]int `json:"tally"`
	Deaths []Death                `json:"deaths"`
	Winner model.Faction          `json:"winner,omitempty"`
	Game   *model.Game            `json:"-"`
}

// ResolveNight turns the wolves' votes and the night powers of this phase
// into deaths, then moves to day or ends the game.
//
// Without force, every live wolf must have voted. With zero votes nobody
// dies, including a pending poison.
func (c *Controller) ResolveNight(ctx context.Context, code model.GameCode, actor model.PlayerID, force bool) (*NightResult, error) {
	var result *NightResult
	game, err := c.mutate(ctx, code, func(g *model.Game, now time.Time) error {
		if _, err := requireResolver(g, actor); err != nil {
			return err
		}
		if g.Status != model.StatusNight {
			return model.ErrWrongPhase
		}
		r, err := c.resolveNight(g, force, now)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Game = game

	outcome := "no_victim"
	switch {
	case result.Saved:
		outcome = "saved"
	case result.Victim != nil:
		outcome = "kill"
	}
	c.metrics.Resolution("night", outcome)

	c.logger.Info("night resolved",
		slog.String("game_code", string(code)),
		slog.Int("phase", game.Phase),
		slog.String("outcome", outcome),
		slog.Int("deaths", len(result.Deaths)),
		slog.String("winner", string(result.Winner)),
	)
	return result, nil
}

func (c *Controller) resolveNight(g *model.Game, force bool, now time.Time) (*NightResult, error) {
	roster := g.LiveWolves()
	inRoster := make(map[model.PlayerID]bool, len(roster))
	for _, w := range roster {
		inRoster[w.ID] = true
	}

	result := &NightResult{Tally: map[model.PlayerID]int{}}
	recorded := 0
	for _, v := range g.VotesFor(g.Phase, model.VoteNightWolf) {
		if !inRoster[v.Voter] || v.Target == nil {
			continue
		}
		target := g.Player(*v.Target)
		if target == nil || !target.Alive {
			continue
		}
		recorded++
		result.Tally[target.ID]++
	}

	if !force && recorded < len(roster) {
		return nil, &model.IncompleteVotesError{Recorded: recorded, Required: len(roster)}
	}

	if recorded == 0 {
		g.Record(now, model.EventNightNoVictim, model.VisibilityPublic, "", nil)
		returnPoison(g, now)
		enterPhase(g, model.StatusDay, now)
		return result, nil
	}

	candidates := topCandidates(result.Tally)
	victimID := candidates[0]
	if len(candidates) > 1 {
		result.Tie = true
		victimID = candidates[c.random.Intn(len(candidates))]
	}
	result.Victim = &victimID
	victim := g.Player(victimID)

	if by := nightProtector(g, victimID); by != "" {
		result.Saved = true
		g.Record(now, model.EventPlayerSaved, model.VisibilityModerator, "", map[string]any{
			"player_id": victimID,
			"by":        by,
		})
	} else {
		result.Deaths = append(result.Deaths, kill(g, victim, model.DeathDevoured, model.EventWolfKill, now)...)
	}

	// Poison applies after the wolf kill and skips players already dead
	for _, use := range g.PowerUsesIn(g.Phase, model.PowerWitchPoison) {
		if len(use.Targets) == 0 {
			continue
		}
		result.Deaths = append(result.Deaths, kill(g, g.Player(use.Targets[0]), model.DeathPoisoned, model.EventPlayerPoisoned, now)...)
	}

	if len(result.Deaths) > 0 {
		result.Winner = checkVictory(g, now)
	}
	if result.Winner == model.FactionNone {
		enterPhase(g, model.StatusDay, now)
	}
	return result, nil
}

// returnPoison gives back the poison of a night nobody was hunted in. The
// use is dropped from the ledger so the witch may brew it again.
func returnPoison(g *model.Game, now time.Time) {
	g.PowerUses = slices.DeleteFunc(g.PowerUses, func(u model.PowerUse) bool {
		if u.Phase != g.Phase || u.Power != model.PowerWitchPoison {
			return false
		}
		g.Record(now, model.EventPotionReturned, model.VisibilityActor, u.Actor, map[string]any{
			"power": u.Power,
		})
		return true
	})
}

// nightProtector names what spares the wolves' victim this phase, if anything
func nightProtector(g *model.Game, victim model.PlayerID) string {
	if len(g.PowerUsesIn(g.Phase, model.PowerWitchSave)) > 0 {
		return string(model.RoleWitch)
	}
	for _, use := range g.PowerUsesIn(g.Phase, model.PowerBodyguardProtect) {
		if slices.Contains(use.Targets, victim) {
			return string(model.RoleBodyguard)
		}
	}
	return ""
}

// topCandidates returns the targets with the strictly highest count, sorted
// by ID so a seeded tie-break is reproducible
func topCandidates(tally map[model.PlayerID]int) []model.PlayerID {
	best := 0
	var out []model.PlayerID
	for id, n := range tally {
		switch {
		case n > best:
			best = n
			out = []model.PlayerID{id}
		case n == best && n > 0:
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
