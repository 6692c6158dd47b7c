package bot

import (
	"slices"

	"github.com/mcoot/moonfall/internal/dependencies/random"
	"github.com/mcoot/moonfall/internal/model"
)

// Strategy decides how a bot votes
type Strategy interface {
	// ChooseVote picks a ballot from the legal candidates. A nil result
	// abstains, which only day votes allow.
	ChooseVote(game *model.Game, bot *model.Player, voteType model.VoteType, candidates []model.PlayerID) *model.PlayerID
}

// RandomStrategy votes for a uniformly random legal target
type RandomStrategy struct {
	random random.Random
}

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

func (s *RandomStrategy) ChooseVote(game *model.Game, bot *model.Player, voteType model.VoteType, candidates []model.PlayerID) *model.PlayerID {
	if len(candidates) == 0 {
		return nil
	}
	sorted := slices.Clone(candidates)
	slices.Sort(sorted)
	choice := sorted[s.random.Intn(len(sorted))]
	return &choice
}

// PassiveStrategy abstains by day and, when it must vote as a wolf, follows
// the pack's current favourite
type PassiveStrategy struct{}

func (PassiveStrategy) ChooseVote(game *model.Game, bot *model.Player, voteType model.VoteType, candidates []model.PlayerID) *model.PlayerID {
	if voteType == model.VoteDay || len(candidates) == 0 {
		return nil
	}

	counts := make(map[model.PlayerID]int)
	for _, v := range game.VotesFor(game.Phase, model.VoteNightWolf) {
		if v.Target != nil {
			counts[*v.Target]++
		}
	}
	sorted := slices.Clone(candidates)
	slices.Sort(sorted)
	choice := sorted[0]
	for _, id := range sorted {
		if counts[id] > counts[choice] {
			choice = id
		}
	}
	return &choice
}

// DefaultStrategies returns every built-in strategy keyed by name
func DefaultStrategies(rnd random.Random) map[string]Strategy {
	return map[string]Strategy{
		model.BotStrategyRandom:  NewRandomStrategy(rnd),
		model.BotStrategyPassive: PassiveStrategy{},
	}
}
