package game

import (
	"github.com/mcoot/moonfall/internal/model"
)

// Standard council table: p1,p2 wolves; p3 seer; p4,p5,p6 villagers
func (s *ControllerSuite) seedCouncil() {
	s.seedGame(model.StatusCouncil,
		model.RoleWerewolf, model.RoleWerewolf, model.RoleSeer,
		model.RoleVillager, model.RoleVillager, model.RoleVillager,
	)
}

func (s *ControllerSuite) TestResolveDayEliminates() {
	s.seedCouncil()
	s.vote("p3", "p1", model.VoteDay)
	s.vote("p4", "p1", model.VoteDay)
	s.vote("p1", "p4", model.VoteDay)

	result, err := s.controller.ResolveDay(s.ctx, testCode, "mod")
	s.Require().NoError(err)
	s.Require().NotNil(result.Eliminated)
	s.Equal(model.PlayerID("p1"), *result.Eliminated)
	s.Equal(model.RoleWerewolf, result.RevealedRole)

	game := s.game()
	s.Equal(model.DeathVote, game.Player("p1").DeathReason)
	s.Equal(model.StatusNight, game.Status)
	s.Equal(2, game.Phase)
	s.Nil(game.Deadline)

	eliminated := s.sink.ofType(model.EventPlayerEliminated)
	s.Require().Len(eliminated, 1)
	s.Equal(model.RoleWerewolf, eliminated[0].Payload["role"])
}

func (s *ControllerSuite) TestResolveDayTieNoElimination() {
	s.seedCouncil()
	s.vote("p3", "p1", model.VoteDay)
	s.vote("p1", "p4", model.VoteDay)

	result, err := s.controller.ResolveDay(s.ctx, testCode, "mod")
	s.Require().NoError(err)
	s.True(result.Tie)
	s.Nil(result.Eliminated)
	s.Empty(result.Deaths)
	s.Equal(model.StatusNight, s.game().Status)
	s.Len(s.sink.ofType(model.EventNoElimination), 1)
}

func (s *ControllerSuite) TestResolveDayNoVotes() {
	s.seedCouncil()
	_, err := s.controller.CastVote(s.ctx, testCode, "p3", nil, model.VoteDay)
	s.Require().NoError(err)

	result, err := s.controller.ResolveDay(s.ctx, testCode, "mod")
	s.Require().NoError(err)
	s.False(result.Tie)
	s.Nil(result.Eliminated)
	s.Equal(2, s.game().Phase)
}

func (s *ControllerSuite) TestResolveDayImmunityConsumedOnce() {
	s.seedCouncil()
	s.givePurchase("p1", model.ItemImmunity)
	s.vote("p3", "p1", model.VoteDay)

	result, err := s.controller.ResolveDay(s.ctx, testCode, "mod")
	s.Require().NoError(err)
	s.Nil(result.Eliminated)
	s.Require().NotNil(result.Immune)
	s.Equal(model.PlayerID("p1"), *result.Immune)
	s.True(s.player("p1").Alive)

	game := s.game()
	s.Require().Len(game.Purchases, 1)
	s.True(game.Purchases[0].Used)
	s.Equal(1, game.Purchases[0].UsedPhase)
	s.Len(s.sink.ofType(model.EventImmunityUsed), 1)

	// Next council the immunity is gone
	s.setStatus(model.StatusCouncil)
	s.vote("p3", "p1", model.VoteDay)
	result, err = s.controller.ResolveDay(s.ctx, testCode, "mod")
	s.Require().NoError(err)
	s.Require().NotNil(result.Eliminated)
	s.Equal(model.PlayerID("p1"), *result.Eliminated)
	s.Len(s.sink.ofType(model.EventImmunityUsed), 1)
}

func (s *ControllerSuite) TestResolveDayImmunityIgnoredOnTie() {
	s.seedCouncil()
	s.givePurchase("p1", model.ItemImmunity)
	s.vote("p3", "p1", model.VoteDay)
	s.vote("p1", "p3", model.VoteDay)

	_, err := s.controller.ResolveDay(s.ctx, testCode, "mod")
	s.Require().NoError(err)
	s.False(s.game().Purchases[0].Used)
}

func (s *ControllerSuite) TestResolveDayDoubleVote() {
	s.seedCouncil()
	s.givePurchase("p3", model.ItemDoubleVote)
	s.vote("p3", "p1", model.VoteDay)
	s.vote("p1", "p4", model.VoteDay)

	result, err := s.controller.ResolveDay(s.ctx, testCode, "mod")
	s.Require().NoError(err)
	s.Equal(2, result.Tally["p1"])
	s.Equal(1, result.Tally["p4"])
	s.Equal(model.PlayerID("p1"), *result.Eliminated)
	s.Equal([]model.PlayerID{"p3"}, result.DoubleVotes)
	s.True(s.game().Purchases[0].Used)
	s.Len(s.sink.ofType(model.EventDoubleVoteUsed), 1)
}

func (s *ControllerSuite) TestResolveDayDoubleVoteUnusedWithoutBallot() {
	s.seedCouncil()
	s.givePurchase("p3", model.ItemDoubleVote)
	_, err := s.controller.CastVote(s.ctx, testCode, "p3", nil, model.VoteDay)
	s.Require().NoError(err)
	s.vote("p1", "p4", model.VoteDay)

	result, err := s.controller.ResolveDay(s.ctx, testCode, "mod")
	s.Require().NoError(err)
	s.Empty(result.DoubleVotes)
	s.False(s.game().Purchases[0].Used)
}

func (s *ControllerSuite) TestResolveDayIgnoresOtherPhases() {
	s.seedCouncil()
	s.vote("p3", "p1", model.VoteDay)
	s.edit(func(g *model.Game) { g.Phase = 2 })

	result, err := s.controller.ResolveDay(s.ctx, testCode, "mod")
	s.Require().NoError(err)
	s.Nil(result.Eliminated)
	s.Empty(result.Tally)
}

func (s *ControllerSuite) TestResolveDayRequiresCouncil() {
	s.seedGame(model.StatusDay, model.RoleWerewolf, model.RoleVillager, model.RoleVillager)
	_, err := s.controller.ResolveDay(s.ctx, testCode, "mod")
	s.ErrorIs(err, model.ErrWrongPhase)
}

func (s *ControllerSuite) TestSixPlayerWolvesWin() {
	s.seedCouncil()

	eliminate := func(target model.PlayerID) *DayResult {
		s.setStatus(model.StatusCouncil)
		s.vote("p1", target, model.VoteDay)
		s.vote("p2", target, model.VoteDay)
		result, err := s.controller.ResolveDay(s.ctx, testCode, "mod")
		s.Require().NoError(err)
		s.Require().NotNil(result.Eliminated)
		return result
	}

	first := eliminate("p4")
	s.Equal(model.FactionNone, first.Winner)
	s.Equal(model.StatusNight, s.game().Status)

	second := eliminate("p5")
	s.Equal(model.FactionWolves, second.Winner)

	game := s.game()
	s.Equal(model.StatusEnded, game.Status)
	s.Equal(model.FactionWolves, game.Winner)
	s.True(game.Player("p1").Alive)
	s.True(game.Player("p2").Alive)
	s.True(game.Player("p3").Alive)
}

func (s *ControllerSuite) TestResolveDispatchesByStatus() {
	s.seedCouncil()
	s.vote("p3", "p1", model.VoteDay)

	result, err := s.controller.Resolve(s.ctx, testCode, "mod", false)
	s.Require().NoError(err)
	s.Nil(result.Night)
	s.Require().NotNil(result.Day)

	result, err = s.controller.Resolve(s.ctx, testCode, "mod", true)
	s.Require().NoError(err)
	s.Require().NotNil(result.Night)

	_, err = s.controller.Resolve(s.ctx, testCode, "mod", true)
	s.ErrorIs(err, model.ErrWrongPhase)
}
