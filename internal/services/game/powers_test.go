package game

import (
	"errors"

	"github.com/mcoot/moonfall/internal/model"
)

func (s *ControllerSuite) TestSeerReveal() {
	s.seedNight()

	result := s.usePower("p3", model.PowerSeerReveal, "p1")
	s.Equal(model.RoleWerewolf, result.Use.Result["role"])
	s.Equal(model.FactionWolves, result.Use.Result["team"])

	game := s.game()
	s.Require().Len(game.PowerUses, 1)
	s.Equal(model.PowerSeerReveal, game.PowerUses[0].Power)
	s.Equal(1, game.PowerUses[0].Phase)

	used := s.sink.ofType(model.EventPowerUsed)
	s.Require().Len(used, 1)
	s.Equal(model.VisibilityActor, used[0].Visibility)
	s.Equal(model.PlayerID("p3"), used[0].Actor)
}

func (s *ControllerSuite) TestSeerOncePerPhase() {
	s.seedNight()
	s.usePower("p3", model.PowerSeerReveal, "p1")

	_, err := s.controller.UsePower(s.ctx, testCode, "p3", model.PowerSeerReveal, []model.PlayerID{"p2"})
	s.ErrorIs(err, model.ErrPowerUsed)

	// A new phase allows another reveal
	s.edit(func(g *model.Game) { g.Phase = 2 })
	s.usePower("p3", model.PowerSeerReveal, "p2")
}

func (s *ControllerSuite) TestPowerWrongRole() {
	s.seedNight()
	_, err := s.controller.UsePower(s.ctx, testCode, "p6", model.PowerSeerReveal, []model.PlayerID{"p1"})
	s.ErrorIs(err, model.ErrWrongRole)
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *ControllerSuite) TestPowerUnknown() {
	s.seedNight()
	_, err := s.controller.UsePower(s.ctx, testCode, "p3", "moon_beam", nil)
	s.ErrorIs(err, model.ErrPowerNotFound)
}

func (s *ControllerSuite) TestPowerWrongPhase() {
	s.seedNight()
	s.setStatus(model.StatusDay)
	_, err := s.controller.UsePower(s.ctx, testCode, "p3", model.PowerSeerReveal, []model.PlayerID{"p1"})
	s.ErrorIs(err, model.ErrWrongPhase)
}

func (s *ControllerSuite) TestPowerDeadActor() {
	s.seedNight()
	s.edit(func(g *model.Game) { g.Player("p3").Alive = false })
	_, err := s.controller.UsePower(s.ctx, testCode, "p3", model.PowerSeerReveal, []model.PlayerID{"p1"})
	s.ErrorIs(err, model.ErrPlayerDead)
}

func (s *ControllerSuite) TestPowerRejectsInvalidTargetWithValidList() {
	s.seedNight()
	s.edit(func(g *model.Game) { g.Player("p6").Alive = false })

	_, err := s.controller.UsePower(s.ctx, testCode, "p3", model.PowerSeerReveal, []model.PlayerID{"p6"})
	s.ErrorIs(err, model.ErrPreconditionFailed)

	var targetErr *model.TargetError
	s.Require().True(errors.As(err, &targetErr))
	s.Equal("target is dead", targetErr.Reason)
	s.ElementsMatch([]model.PlayerID{"p1", "p2", "p4", "p5"}, targetErr.ValidTargets)

	_, err = s.controller.UsePower(s.ctx, testCode, "p3", model.PowerSeerReveal, []model.PlayerID{"mod"})
	s.Require().True(errors.As(err, &targetErr))
	s.Equal("target is not playing", targetErr.Reason)

	_, err = s.controller.UsePower(s.ctx, testCode, "p3", model.PowerSeerReveal, []model.PlayerID{"p3"})
	s.Require().True(errors.As(err, &targetErr))
	s.Equal("cannot target yourself", targetErr.Reason)
}

func (s *ControllerSuite) TestPowerTargetCount() {
	s.seedNight()
	_, err := s.controller.UsePower(s.ctx, testCode, "p3", model.PowerSeerReveal, nil)
	s.ErrorIs(err, model.ErrPreconditionFailed)

	_, err = s.controller.UsePower(s.ctx, testCode, "p4", model.PowerWitchSave, []model.PlayerID{"p6"})
	s.ErrorIs(err, model.ErrPreconditionFailed)
}

func (s *ControllerSuite) TestWitchPotionsOncePerGame() {
	s.seedNight()
	s.usePower("p4", model.PowerWitchSave)

	s.edit(func(g *model.Game) { g.Phase = 2 })
	_, err := s.controller.UsePower(s.ctx, testCode, "p4", model.PowerWitchSave, nil)
	s.ErrorIs(err, model.ErrPowerUsed)

	// The poison is a separate potion
	s.usePower("p4", model.PowerWitchPoison, "p1")
}

func (s *ControllerSuite) TestBodyguardCannotRepeatTarget() {
	s.seedNight()
	s.edit(func(g *model.Game) { g.Phase = 2 })
	s.usePower("p5", model.PowerBodyguardProtect, "p6")

	s.edit(func(g *model.Game) { g.Phase = 3 })
	_, err := s.controller.UsePower(s.ctx, testCode, "p5", model.PowerBodyguardProtect, []model.PlayerID{"p6"})
	s.ErrorIs(err, model.ErrPreconditionFailed)

	var targetErr *model.TargetError
	s.Require().True(errors.As(err, &targetErr))
	s.NotContains(targetErr.ValidTargets, model.PlayerID("p6"))

	s.usePower("p5", model.PowerBodyguardProtect, "p3")

	// Phase 4 may return to p6
	s.edit(func(g *model.Game) { g.Phase = 4 })
	s.usePower("p5", model.PowerBodyguardProtect, "p6")
}

func (s *ControllerSuite) TestBodyguardOncePerPhase() {
	s.seedNight()
	s.usePower("p5", model.PowerBodyguardProtect, "p6")
	_, err := s.controller.UsePower(s.ctx, testCode, "p5", model.PowerBodyguardProtect, []model.PlayerID{"p3"})
	s.ErrorIs(err, model.ErrPowerUsed)
}

func (s *ControllerSuite) TestCupidLink() {
	s.seedGame(model.StatusNight, model.RoleWerewolf, model.RoleCupid, model.RoleVillager, model.RoleVillager)

	s.usePower("p2", model.PowerCupidLink, "p3", "p4")
	s.Equal(model.PlayerID("p4"), s.player("p3").LoverID)
	s.Equal(model.PlayerID("p3"), s.player("p4").LoverID)
}

func (s *ControllerSuite) TestCupidRequiresDistinctTargets() {
	s.seedGame(model.StatusNight, model.RoleWerewolf, model.RoleCupid, model.RoleVillager, model.RoleVillager)

	_, err := s.controller.UsePower(s.ctx, testCode, "p2", model.PowerCupidLink, []model.PlayerID{"p3", "p3"})
	var targetErr *model.TargetError
	s.Require().True(errors.As(err, &targetErr))
	s.Equal("targets must be distinct", targetErr.Reason)
}

func (s *ControllerSuite) TestCupidFirstNightOnly() {
	s.seedGame(model.StatusNight, model.RoleWerewolf, model.RoleCupid, model.RoleVillager, model.RoleVillager)
	s.edit(func(g *model.Game) { g.Phase = 2 })

	_, err := s.controller.UsePower(s.ctx, testCode, "p2", model.PowerCupidLink, []model.PlayerID{"p3", "p4"})
	s.ErrorIs(err, model.ErrWrongPhase)
}

func (s *ControllerSuite) TestHunterMustBeNewlyDead() {
	s.seedGame(model.StatusDay, model.RoleWerewolf, model.RoleHunter, model.RoleVillager, model.RoleVillager)

	_, err := s.controller.UsePower(s.ctx, testCode, "p2", model.PowerHunterShot, []model.PlayerID{"p1"})
	s.ErrorIs(err, model.ErrPreconditionFailed)

	// Died two phases ago
	now := s.clock.Now()
	s.edit(func(g *model.Game) {
		g.Phase = 3
		p := g.Player("p2")
		p.Alive = false
		p.DiedAt = &now
		p.DiedPhase = 1
	})
	_, err = s.controller.UsePower(s.ctx, testCode, "p2", model.PowerHunterShot, []model.PlayerID{"p1"})
	s.ErrorIs(err, model.ErrPreconditionFailed)
}

func (s *ControllerSuite) TestHunterKilledAtNightCannotShootNextNight() {
	s.seedGame(model.StatusNight,
		model.RoleWerewolf, model.RoleHunter,
		model.RoleVillager, model.RoleVillager, model.RoleVillager,
	)
	s.vote("p1", "p2", model.VoteNightWolf)
	_, err := s.controller.ResolveNight(s.ctx, testCode, "mod", false)
	s.Require().NoError(err)
	s.False(s.player("p2").Alive)
	s.Equal(model.StatusNight, s.player("p2").DiedStatus)

	_, err = s.controller.ChangePhase(s.ctx, testCode, "mod", model.StatusCouncil)
	s.Require().NoError(err)
	_, err = s.controller.ResolveDay(s.ctx, testCode, "mod")
	s.Require().NoError(err)
	s.Require().Equal(model.StatusNight, s.game().Status)
	s.Require().Equal(2, s.game().Phase)

	_, err = s.controller.UsePower(s.ctx, testCode, "p2", model.PowerHunterShot, []model.PlayerID{"p3"})
	s.ErrorIs(err, model.ErrPreconditionFailed)
	s.True(s.player("p3").Alive)
}

func (s *ControllerSuite) TestHunterShotAfterElimination() {
	s.seedGame(model.StatusCouncil,
		model.RoleWerewolf, model.RoleWerewolf, model.RoleHunter,
		model.RoleVillager, model.RoleVillager, model.RoleVillager,
	)
	s.vote("p1", "p3", model.VoteDay)
	_, err := s.controller.ResolveDay(s.ctx, testCode, "mod")
	s.Require().NoError(err)
	s.Equal(model.StatusNight, s.game().Status)

	result := s.usePower("p3", model.PowerHunterShot, "p1")
	s.Require().Len(result.Deaths, 1)
	s.Equal(model.DeathShot, s.player("p1").DeathReason)
	s.Equal(model.FactionNone, result.Winner)

	used := s.sink.ofType(model.EventPowerUsed)
	s.Require().Len(used, 1)
	s.Equal(model.VisibilityPublic, used[0].Visibility)

	_, err = s.controller.UsePower(s.ctx, testCode, "p3", model.PowerHunterShot, []model.PlayerID{"p2"})
	s.ErrorIs(err, model.ErrPowerUsed)
}

func (s *ControllerSuite) TestHunterShotEndsGame() {
	s.seedGame(model.StatusDay, model.RoleWerewolf, model.RoleHunter, model.RoleVillager)
	now := s.clock.Now()
	s.edit(func(g *model.Game) {
		p := g.Player("p2")
		p.Alive = false
		p.DiedAt = &now
		p.DiedPhase = 1
	})

	result := s.usePower("p2", model.PowerHunterShot, "p1")
	s.Equal(model.FactionVillage, result.Winner)
	s.Equal(model.StatusEnded, s.game().Status)
}

func (s *ControllerSuite) TestWildChildModel() {
	s.seedGame(model.StatusNight, model.RoleWerewolf, model.RoleWildChild, model.RoleVillager)
	s.usePower("p2", model.PowerWildChildModel, "p3")
	s.Equal(model.PlayerID("p3"), s.player("p2").ModelID)

	_, err := s.controller.UsePower(s.ctx, testCode, "p2", model.PowerWildChildModel, []model.PlayerID{"p1"})
	s.ErrorIs(err, model.ErrPowerUsed)
}

func (s *ControllerSuite) TestTricksterSwap() {
	s.seedGame(model.StatusNight, model.RoleWerewolf, model.RoleTrickster, model.RoleSeer, model.RoleVillager)

	s.usePower("p2", model.PowerTricksterSwap, "p1", "p3")
	s.Equal(model.RoleSeer, s.player("p1").Role)
	s.Equal(model.RoleWerewolf, s.player("p3").Role)

	used := s.sink.ofType(model.EventPowerUsed)
	s.Require().Len(used, 1)
	s.Equal(model.VisibilityActor, used[0].Visibility)
}

func (s *ControllerSuite) TestModeratorCannotUsePowers() {
	s.seedNight()
	_, err := s.controller.UsePower(s.ctx, testCode, "mod", model.PowerSeerReveal, []model.PlayerID{"p1"})
	s.ErrorIs(err, model.ErrNotParticipating)
}
