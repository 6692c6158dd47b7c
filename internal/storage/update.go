package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mcoot/moonfall/internal/model"
)

// UpdateAttempts bounds how many times Update re-runs a mutation that lost an
// optimistic version race
const UpdateAttempts = 5

// Update loads a game, applies fn and saves it with a version check. On a
// version conflict the game is reloaded and fn runs again against the fresh
// state, so fn must not have side effects outside the game it is given.
//
// The returned game still holds the events fn recorded; callers drain them
// after the commit.
func Update(ctx context.Context, s Storage, code model.GameCode, fn func(*model.Game) error) (*model.Game, error) {
	backoff := retry.WithMaxRetries(UpdateAttempts-1, retry.NewExponential(5*time.Millisecond))

	var committed *model.Game
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		game, err := s.GetGame(ctx, code)
		if err != nil {
			return err
		}
		if err := fn(game); err != nil {
			return err
		}
		if err := s.SaveGame(ctx, game); err != nil {
			if errors.Is(err, model.ErrVersionConflict) {
				return retry.RetryableError(err)
			}
			return err
		}
		committed = game
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}
