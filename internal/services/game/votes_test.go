package game

import (
	"errors"

	"github.com/mcoot/moonfall/internal/model"
)

func (s *ControllerSuite) TestWolfVoteRecorded() {
	s.seedNight()
	s.vote("p1", "p3", model.VoteNightWolf)

	votes := s.game().VotesFor(1, model.VoteNightWolf)
	s.Require().Len(votes, 1)
	s.Equal(model.PlayerID("p1"), votes[0].Voter)
	s.Equal(model.PlayerID("p3"), *votes[0].Target)

	cast := s.sink.ofType(model.EventVoteCast)
	s.Require().Len(cast, 1)
	s.Equal(model.VisibilityWolves, cast[0].Visibility)
}

func (s *ControllerSuite) TestRevoteReplacesBallot() {
	s.seedNight()
	s.vote("p1", "p3", model.VoteNightWolf)
	s.vote("p1", "p4", model.VoteNightWolf)

	votes := s.game().VotesFor(1, model.VoteNightWolf)
	s.Require().Len(votes, 1)
	s.Equal(model.PlayerID("p4"), *votes[0].Target)
}

func (s *ControllerSuite) TestWolfVoteRejectsNonWolf() {
	s.seedNight()
	_, err := s.controller.CastVote(s.ctx, testCode, "p3", pid("p6"), model.VoteNightWolf)
	s.ErrorIs(err, model.ErrWrongRole)
}

func (s *ControllerSuite) TestWolfVoteRejectsWolfTarget() {
	s.seedNight()
	_, err := s.controller.CastVote(s.ctx, testCode, "p1", pid("p2"), model.VoteNightWolf)

	var targetErr *model.TargetError
	s.Require().True(errors.As(err, &targetErr))
	s.ElementsMatch([]model.PlayerID{"p3", "p4", "p5", "p6"}, targetErr.ValidTargets)
}

func (s *ControllerSuite) TestWolfVoteCannotAbstain() {
	s.seedNight()
	_, err := s.controller.CastVote(s.ctx, testCode, "p1", nil, model.VoteNightWolf)
	s.ErrorIs(err, model.ErrPreconditionFailed)
}

func (s *ControllerSuite) TestWolfVoteOnlyAtNight() {
	s.seedNight()
	s.setStatus(model.StatusDay)
	_, err := s.controller.CastVote(s.ctx, testCode, "p1", pid("p3"), model.VoteNightWolf)
	s.ErrorIs(err, model.ErrWrongPhase)
}

func (s *ControllerSuite) TestDayVoteInDayAndCouncil() {
	s.seedCouncil()
	s.setStatus(model.StatusDay)
	s.vote("p3", "p1", model.VoteDay)

	s.setStatus(model.StatusCouncil)
	s.vote("p4", "p1", model.VoteDay)

	s.Len(s.game().VotesFor(1, model.VoteDay), 2)
	for _, e := range s.sink.ofType(model.EventVoteCast) {
		s.Equal(model.VisibilityPublic, e.Visibility)
	}
}

func (s *ControllerSuite) TestDayVoteAbstain() {
	s.seedCouncil()
	_, err := s.controller.CastVote(s.ctx, testCode, "p3", nil, model.VoteDay)
	s.Require().NoError(err)

	votes := s.game().VotesFor(1, model.VoteDay)
	s.Require().Len(votes, 1)
	s.Nil(votes[0].Target)
}

func (s *ControllerSuite) TestDayVoteRejectsSelfAndDead() {
	s.seedCouncil()
	s.edit(func(g *model.Game) { g.Player("p6").Alive = false })

	_, err := s.controller.CastVote(s.ctx, testCode, "p3", pid("p3"), model.VoteDay)
	var targetErr *model.TargetError
	s.Require().True(errors.As(err, &targetErr))
	s.ElementsMatch([]model.PlayerID{"p1", "p2", "p4", "p5"}, targetErr.ValidTargets)

	_, err = s.controller.CastVote(s.ctx, testCode, "p3", pid("p6"), model.VoteDay)
	s.ErrorIs(err, model.ErrPreconditionFailed)

	_, err = s.controller.CastVote(s.ctx, testCode, "p3", pid("mod"), model.VoteDay)
	s.ErrorIs(err, model.ErrPreconditionFailed)
}

func (s *ControllerSuite) TestDeadPlayersCannotVote() {
	s.seedCouncil()
	s.edit(func(g *model.Game) { g.Player("p6").Alive = false })
	_, err := s.controller.CastVote(s.ctx, testCode, "p6", pid("p1"), model.VoteDay)
	s.ErrorIs(err, model.ErrPlayerDead)
}

func (s *ControllerSuite) TestModeratorVotesOnlyInAutoMode() {
	s.seedCouncil()
	_, err := s.controller.CastVote(s.ctx, testCode, "mod", pid("p1"), model.VoteDay)
	s.ErrorIs(err, model.ErrNotParticipating)

	s.edit(func(g *model.Game) {
		g.Settings.AutoMode = true
		g.Player("mod").Role = model.RoleVillager
	})
	s.vote("mod", "p1", model.VoteDay)
}

func (s *ControllerSuite) TestPowerVoteTypeRejected() {
	s.seedNight()
	_, err := s.controller.CastVote(s.ctx, testCode, "p3", pid("p1"), model.VotePower)
	s.ErrorIs(err, model.ErrInvalidVote)

	_, err = s.controller.CastVote(s.ctx, testCode, "p3", pid("p1"), "shout")
	s.ErrorIs(err, model.ErrInvalidVote)
}

func (s *ControllerSuite) TestValidVoteTargets() {
	s.seedNight()
	g := s.game()

	s.ElementsMatch([]model.PlayerID{"p3", "p4", "p5", "p6"}, ValidVoteTargets(g, g.Player("p1"), model.VoteNightWolf))
	s.ElementsMatch([]model.PlayerID{"p1", "p2", "p4", "p5", "p6"}, ValidVoteTargets(g, g.Player("p3"), model.VoteDay))
	s.Nil(ValidVoteTargets(g, g.Player("p3"), model.VotePower))
}
