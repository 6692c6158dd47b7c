package game

import (
	"errors"
	"sync"

	"github.com/mcoot/moonfall/internal/dependencies/random"
	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/testutil"
)

// Standard night table: p1,p2 wolves; p3 seer; p4 witch; p5 bodyguard; p6 villager
func (s *ControllerSuite) seedNight() {
	s.seedGame(model.StatusNight,
		model.RoleWerewolf, model.RoleWerewolf, model.RoleSeer,
		model.RoleWitch, model.RoleBodyguard, model.RoleVillager,
	)
}

func (s *ControllerSuite) TestResolveNightZeroVotesNoDeath() {
	s.seedNight()
	s.usePower("p4", model.PowerWitchPoison, "p6")

	result, err := s.controller.ResolveNight(s.ctx, testCode, "mod", true)
	s.Require().NoError(err)
	s.Nil(result.Victim)
	s.Empty(result.Deaths)

	game := s.game()
	s.Equal(model.StatusDay, game.Status)
	s.NotNil(game.Deadline)
	for _, p := range game.Players {
		s.True(p.Alive, "player %s should be alive", p.ID)
	}
	s.Len(s.sink.ofType(model.EventNightNoVictim), 1)
	s.Empty(s.sink.ofType(model.EventPlayerPoisoned))

	// The unused poison goes back to the witch
	returned := s.sink.ofType(model.EventPotionReturned)
	s.Require().Len(returned, 1)
	s.Equal(model.PlayerID("p4"), returned[0].Actor)
	s.Equal(model.VisibilityActor, returned[0].Visibility)
	s.Empty(game.PowerUsesBy("p4", model.PowerWitchPoison))
}

func (s *ControllerSuite) TestResolveNightIncompleteVotes() {
	s.seedNight()
	s.vote("p1", "p6", model.VoteNightWolf)

	_, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
	s.ErrorIs(err, model.ErrIncompleteVotes)

	var incomplete *model.IncompleteVotesError
	s.Require().True(errors.As(err, &incomplete))
	s.Equal(1, incomplete.Recorded)
	s.Equal(2, incomplete.Required)
	s.Equal(model.StatusNight, s.game().Status)
}

func (s *ControllerSuite) TestResolveNightForcedSingleVote() {
	s.seedNight()
	s.vote("p1", "p6", model.VoteNightWolf)

	result, err := s.controller.ResolveNight(s.ctx, testCode, "mod", true)
	s.Require().NoError(err)
	s.Require().NotNil(result.Victim)
	s.Equal(model.PlayerID("p6"), *result.Victim)
	s.Equal(map[model.PlayerID]int{"p6": 1}, result.Tally)

	victim := s.player("p6")
	s.False(victim.Alive)
	s.Equal(model.DeathDevoured, victim.DeathReason)
	s.Equal(s.clock.Now(), *victim.DiedAt)
	s.Equal(1, victim.DiedPhase)
	s.Equal(model.StatusDay, s.game().Status)
	s.Len(s.sink.ofType(model.EventWolfKill), 1)
}

func (s *ControllerSuite) TestResolveNightAllVotesIn() {
	s.seedNight()
	s.vote("p1", "p3", model.VoteNightWolf)
	s.vote("p2", "p3", model.VoteNightWolf)

	result, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p3"), *result.Victim)
	s.False(result.Tie)
	s.Require().Len(result.Deaths, 1)
	s.Equal(model.RoleSeer, result.Deaths[0].Role)
}

func (s *ControllerSuite) TestResolveNightIgnoresVotesFromDeadWolves() {
	s.seedNight()
	s.vote("p1", "p3", model.VoteNightWolf)
	s.vote("p2", "p6", model.VoteNightWolf)
	s.edit(func(g *model.Game) { g.Player("p2").Alive = false })

	result, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
	s.Require().NoError(err)
	s.Equal(map[model.PlayerID]int{"p3": 1}, result.Tally)
}

func (s *ControllerSuite) TestResolveNightWitchSave() {
	s.seedNight()
	s.vote("p1", "p6", model.VoteNightWolf)
	s.vote("p2", "p6", model.VoteNightWolf)
	s.usePower("p4", model.PowerWitchSave)

	result, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
	s.Require().NoError(err)
	s.True(result.Saved)
	s.Empty(result.Deaths)
	s.True(s.player("p6").Alive)

	saved := s.sink.ofType(model.EventPlayerSaved)
	s.Require().Len(saved, 1)
	s.Equal(model.VisibilityModerator, saved[0].Visibility)
	s.Equal("witch", saved[0].Payload["by"])
}

func (s *ControllerSuite) TestResolveNightBodyguardProtects() {
	s.seedNight()
	s.vote("p1", "p6", model.VoteNightWolf)
	s.vote("p2", "p6", model.VoteNightWolf)
	s.usePower("p5", model.PowerBodyguardProtect, "p6")

	result, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
	s.Require().NoError(err)
	s.True(result.Saved)
	s.True(s.player("p6").Alive)
}

func (s *ControllerSuite) TestResolveNightBodyguardElsewhere() {
	s.seedNight()
	s.vote("p1", "p6", model.VoteNightWolf)
	s.vote("p2", "p6", model.VoteNightWolf)
	s.usePower("p5", model.PowerBodyguardProtect, "p3")

	result, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
	s.Require().NoError(err)
	s.False(result.Saved)
	s.False(s.player("p6").Alive)
}

func (s *ControllerSuite) TestResolveNightTieBreakKillsOne() {
	s.seedNight()
	s.vote("p1", "p6", model.VoteNightWolf)
	s.vote("p2", "p3", model.VoteNightWolf)
	// Candidates sorted by ID: [p3 p6]
	s.random.QueueIntn(1)

	result, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
	s.Require().NoError(err)
	s.True(result.Tie)
	s.Equal(model.PlayerID("p6"), *result.Victim)
	s.Len(result.Deaths, 1)

	s.True(s.player("p3").Alive)
	s.False(s.player("p6").Alive)
}

func (s *ControllerSuite) TestResolveNightTieBreakIsReproducibleWithSeed() {
	pick := func(seed uint64) model.PlayerID {
		s.SetupTest()
		s.controller = NewController(s.storage, s.sink, nil, s.clock, random.NewSeeded(seed), testutil.NopLogger())
		s.seedNight()
		s.vote("p1", "p6", model.VoteNightWolf)
		s.vote("p2", "p3", model.VoteNightWolf)
		result, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
		s.Require().NoError(err)
		s.Len(result.Deaths, 1)
		return *result.Victim
	}

	s.Equal(pick(99), pick(99))
}

func (s *ControllerSuite) TestResolveNightPoisonIsSecondDeath() {
	s.seedNight()
	s.vote("p1", "p6", model.VoteNightWolf)
	s.vote("p2", "p6", model.VoteNightWolf)
	s.usePower("p4", model.PowerWitchPoison, "p3")

	result, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
	s.Require().NoError(err)
	s.Len(result.Deaths, 2)
	s.Equal(model.DeathDevoured, s.player("p6").DeathReason)
	s.Equal(model.DeathPoisoned, s.player("p3").DeathReason)
}

func (s *ControllerSuite) TestResolveNightPoisonOnVictimKillsOnce() {
	s.seedNight()
	s.vote("p1", "p6", model.VoteNightWolf)
	s.vote("p2", "p6", model.VoteNightWolf)
	s.usePower("p4", model.PowerWitchPoison, "p6")

	result, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
	s.Require().NoError(err)
	s.Require().Len(result.Deaths, 1)
	s.Equal(model.DeathDevoured, s.player("p6").DeathReason)
	s.Empty(s.sink.ofType(model.EventPlayerPoisoned))
}

func (s *ControllerSuite) TestResolveNightPoisonAppliesWhenVictimSaved() {
	s.seedNight()
	s.vote("p1", "p6", model.VoteNightWolf)
	s.vote("p2", "p6", model.VoteNightWolf)
	s.usePower("p4", model.PowerWitchSave)
	s.usePower("p4", model.PowerWitchPoison, "p6")

	result, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
	s.Require().NoError(err)
	s.True(result.Saved)
	s.Require().Len(result.Deaths, 1)
	s.Equal(model.DeathPoisoned, s.player("p6").DeathReason)
}

func (s *ControllerSuite) TestResolveNightLoverHeartbreak() {
	s.seedNight()
	s.edit(func(g *model.Game) {
		g.Player("p3").LoverID = "p6"
		g.Player("p6").LoverID = "p3"
	})
	s.vote("p1", "p6", model.VoteNightWolf)
	s.vote("p2", "p6", model.VoteNightWolf)

	result, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
	s.Require().NoError(err)
	s.Len(result.Deaths, 2)
	s.Equal(model.DeathHeartbreak, s.player("p3").DeathReason)
	s.Len(s.sink.ofType(model.EventPlayerHeartbreak), 1)
}

func (s *ControllerSuite) TestResolveNightWildChildTurns() {
	s.seedGame(model.StatusNight,
		model.RoleWerewolf, model.RoleWildChild, model.RoleVillager,
		model.RoleVillager, model.RoleVillager, model.RoleVillager,
	)
	s.usePower("p2", model.PowerWildChildModel, "p3")
	s.vote("p1", "p3", model.VoteNightWolf)

	_, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
	s.Require().NoError(err)
	s.Equal(model.RoleWerewolf, s.player("p2").Role)

	turned := s.sink.ofType(model.EventWildChildTurned)
	s.Require().Len(turned, 1)
	s.Equal(model.VisibilityWolves, turned[0].Visibility)
}

func (s *ControllerSuite) TestResolveNightWolvesWin() {
	s.seedGame(model.StatusNight, model.RoleWerewolf, model.RoleVillager, model.RoleVillager)
	s.vote("p1", "p2", model.VoteNightWolf)

	result, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
	s.Require().NoError(err)
	s.Equal(model.FactionWolves, result.Winner)

	game := s.game()
	s.Equal(model.StatusEnded, game.Status)
	s.Equal(model.FactionWolves, game.Winner)
	s.Nil(game.Deadline)
	s.Len(s.sink.ofType(model.EventGameEnded), 1)
}

func (s *ControllerSuite) TestResolveNightWrongPhase() {
	s.seedGame(model.StatusDay, model.RoleWerewolf, model.RoleVillager, model.RoleVillager)
	_, err := s.controller.ResolveNight(s.ctx, testCode, "mod", true)
	s.ErrorIs(err, model.ErrWrongPhase)
	s.ErrorIs(err, model.ErrPreconditionFailed)
}

func (s *ControllerSuite) TestResolveNightActorRules() {
	s.seedNight()

	_, err := s.controller.ResolveNight(s.ctx, testCode, "p3", true)
	s.ErrorIs(err, model.ErrUnauthorized)

	s.edit(func(g *model.Game) { g.Settings.AutoMode = true })
	_, err = s.controller.ResolveNight(s.ctx, testCode, "p3", true)
	s.NoError(err)
}

func (s *ControllerSuite) TestConcurrentResolutionHasOneWinner() {
	s.controller = NewController(s.storage, s.sink, nil, s.clock, random.NewSeeded(1), testutil.NopLogger())
	s.seedNight()
	s.vote("p1", "p6", model.VoteNightWolf)
	s.vote("p2", "p3", model.VoteNightWolf)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.controller.ResolveNight(s.ctx, testCode, "mod", false)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, model.ErrWrongPhase)
	}
	s.Equal(1, succeeded)

	dead := 0
	for _, p := range s.game().Players {
		if !p.Alive {
			dead++
		}
	}
	s.Equal(1, dead)
	s.Len(s.sink.ofType(model.EventWolfKill), 1)
}
