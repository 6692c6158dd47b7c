package game

import (
	"github.com/mcoot/moonfall/internal/model"
)

func (s *ControllerSuite) TestAwardPoints() {
	s.seedCouncil()
	_, err := s.controller.AwardPoints(s.ctx, testCode, "mod", "p3", 4)
	s.Require().NoError(err)
	_, err = s.controller.AwardPoints(s.ctx, testCode, "mod", "p3", 2)
	s.Require().NoError(err)

	s.Equal(6, s.player("p3").Points)

	awarded := s.sink.ofType(model.EventPointsAwarded)
	s.Require().Len(awarded, 2)
	s.Equal(model.VisibilityActor, awarded[1].Visibility)
	s.Equal(6, awarded[1].Payload["total"])
}

func (s *ControllerSuite) TestAwardPointsValidation() {
	s.seedCouncil()

	_, err := s.controller.AwardPoints(s.ctx, testCode, "mod", "p3", 0)
	s.ErrorIs(err, model.ErrPreconditionFailed)

	_, err = s.controller.AwardPoints(s.ctx, testCode, "p1", "p3", 2)
	s.ErrorIs(err, model.ErrNotModerator)

	_, err = s.controller.AwardPoints(s.ctx, testCode, "mod", "mod", 2)
	s.ErrorIs(err, model.ErrNotParticipating)

	_, err = s.controller.AwardPoints(s.ctx, testCode, "mod", "ghost", 2)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ControllerSuite) TestPurchaseDeductsPoints() {
	s.seedCouncil()
	s.edit(func(g *model.Game) { g.Player("p3").Points = 7 })

	purchase, err := s.controller.Purchase(s.ctx, testCode, "p3", model.ItemDoubleVote)
	s.Require().NoError(err)
	s.Equal(3, purchase.Cost)
	s.False(purchase.Used)

	s.Equal(4, s.player("p3").Points)
	s.NotNil(s.game().UnusedPurchase("p3", model.ItemDoubleVote))
	s.Len(s.sink.ofType(model.EventItemPurchased), 1)
}

func (s *ControllerSuite) TestPurchaseInsufficientPoints() {
	s.seedCouncil()
	s.edit(func(g *model.Game) { g.Player("p3").Points = 4 })

	_, err := s.controller.Purchase(s.ctx, testCode, "p3", model.ItemImmunity)
	s.ErrorIs(err, model.ErrInsufficientPoints)
	s.Equal(4, s.player("p3").Points)
}

func (s *ControllerSuite) TestPurchaseOneUnusedItemPerKind() {
	s.seedCouncil()
	s.edit(func(g *model.Game) { g.Player("p3").Points = 10 })

	_, err := s.controller.Purchase(s.ctx, testCode, "p3", model.ItemDoubleVote)
	s.Require().NoError(err)
	_, err = s.controller.Purchase(s.ctx, testCode, "p3", model.ItemDoubleVote)
	s.ErrorIs(err, model.ErrItemHeld)

	// A different item is fine
	_, err = s.controller.Purchase(s.ctx, testCode, "p3", model.ItemImmunity)
	s.Require().NoError(err)
	s.Equal(2, s.player("p3").Points)
}

func (s *ControllerSuite) TestPurchaseAfterItemUsed() {
	s.seedCouncil()
	s.edit(func(g *model.Game) { g.Player("p3").Points = 6 })

	_, err := s.controller.Purchase(s.ctx, testCode, "p3", model.ItemDoubleVote)
	s.Require().NoError(err)
	s.vote("p3", "p1", model.VoteDay)
	_, err = s.controller.ResolveDay(s.ctx, testCode, "mod")
	s.Require().NoError(err)

	s.setStatus(model.StatusDay)
	_, err = s.controller.Purchase(s.ctx, testCode, "p3", model.ItemDoubleVote)
	s.Require().NoError(err)
	s.Equal(0, s.player("p3").Points)
}

func (s *ControllerSuite) TestPurchaseRules() {
	s.seedGame(model.StatusLobby, model.RoleVillager, model.RoleVillager, model.RoleVillager)
	_, err := s.controller.Purchase(s.ctx, testCode, "p1", model.ItemImmunity)
	s.ErrorIs(err, model.ErrWrongPhase)

	s.setStatus(model.StatusDay)
	_, err = s.controller.Purchase(s.ctx, testCode, "p1", "crown")
	s.ErrorIs(err, model.ErrItemNotFound)

	s.edit(func(g *model.Game) {
		p := g.Player("p2")
		p.Alive = false
		p.Points = 10
	})
	_, err = s.controller.Purchase(s.ctx, testCode, "p2", model.ItemImmunity)
	s.ErrorIs(err, model.ErrPlayerDead)
}
