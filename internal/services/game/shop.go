package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/moonfall/internal/model"
)

// AwardPoints credits a player with points. Only the moderator may award.
func (c *Controller) AwardPoints(ctx context.Context, code model.GameCode, actor, player model.PlayerID, amount int) (*model.Game, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: points must be positive", model.ErrPreconditionFailed)
	}
	return c.mutate(ctx, code, func(g *model.Game, now time.Time) error {
		if _, err := requireModerator(g, actor); err != nil {
			return err
		}
		p := g.Player(player)
		if p == nil {
			return model.ErrPlayerNotFound
		}
		if !g.Participates(p) {
			return model.ErrNotParticipating
		}
		p.Points += amount
		g.Record(now, model.EventPointsAwarded, model.VisibilityActor, p.ID, map[string]any{
			"amount": amount,
			"total":  p.Points,
		})
		return nil
	})
}

// Purchase spends a player's points on a shop item. A player holds at most
// one unused item of each kind.
func (c *Controller) Purchase(ctx context.Context, code model.GameCode, player model.PlayerID, itemID model.ItemID) (*model.Purchase, error) {
	item, ok := model.LookupItem(itemID)
	if !ok {
		return nil, model.ErrItemNotFound
	}

	var purchase model.Purchase
	_, err := c.mutate(ctx, code, func(g *model.Game, now time.Time) error {
		if !g.IsActive() {
			return model.ErrWrongPhase
		}
		p, err := requireLivingParticipant(g, player)
		if err != nil {
			return err
		}
		if g.UnusedPurchase(p.ID, item.ID) != nil {
			return model.ErrItemHeld
		}
		if p.Points < item.Cost {
			return model.ErrInsufficientPoints
		}

		p.Points -= item.Cost
		purchase = model.Purchase{
			ID:          uuid.NewString(),
			Player:      p.ID,
			Item:        item.ID,
			Cost:        item.Cost,
			PurchasedAt: now,
		}
		g.Purchases = append(g.Purchases, purchase)
		g.Record(now, model.EventItemPurchased, model.VisibilityActor, p.ID, map[string]any{
			"item": item.ID,
			"cost": item.Cost,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("item purchased",
		slog.String("game_code", string(code)),
		slog.String("item", string(item.ID)),
	)
	return &purchase, nil
}
