package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mcoot/moonfall/internal/dependencies/clock"
	"github.com/mcoot/moonfall/internal/dependencies/random"
	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/services/auth"
	"github.com/mcoot/moonfall/internal/services/game"
	"github.com/mcoot/moonfall/internal/storage"
)

const (
	// GameCodeLength is the length of generated game codes
	GameCodeLength = 6
	// GameCodeAlphabet is the characters used in game codes (avoid confusing chars)
	GameCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// MaxDisplayNameLength bounds player and game names
	MaxDisplayNameLength = 32
	// maxCodeAttempts bounds retries when a generated code is taken
	maxCodeAttempts = 10
)

// Controller manages games before they start: creation, joining, leaving,
// bots and settings
type Controller struct {
	storage        storage.Storage
	gameController *game.Controller
	events         game.EventSink
	auth           *auth.Service
	clock          clock.Clock
	random         random.Random
	logger         *slog.Logger
}

// NewController creates a new lobby Controller. events may be nil.
func NewController(
	storage storage.Storage,
	gameController *game.Controller,
	events game.EventSink,
	auth *auth.Service,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:        storage,
		gameController: gameController,
		events:         events,
		auth:           auth,
		clock:          clock,
		random:         random,
		logger:         logger.With(slog.String("component", "lobby")),
	}
}

// CreateGameParams describes a new game
type CreateGameParams struct {
	Name          string
	ModeratorName string
	Password      string
	Settings      model.Settings
}

// Membership is a player's seat in a game together with their session
type Membership struct {
	Game    *model.Game
	Player  model.Player
	Session *auth.Session
}

// CreateGame creates a game in the lobby with the caller as moderator
func (c *Controller) CreateGame(ctx context.Context, params CreateGameParams) (*Membership, error) {
	name, err := cleanName(params.Name)
	if err != nil {
		return nil, err
	}
	moderatorName, err := cleanName(params.ModeratorName)
	if err != nil {
		return nil, err
	}
	if err := validateSettings(params.Settings); err != nil {
		return nil, err
	}
	hash, err := c.auth.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	moderator := model.Player{
		ID:          model.PlayerID(uuid.NewString()),
		DisplayName: moderatorName,
		IsModerator: true,
		Alive:       true,
		JoinedAt:    now,
	}

	var g *model.Game
	for range maxCodeAttempts {
		code, err := c.generateCode(ctx)
		if err != nil {
			return nil, err
		}

		g = &model.Game{
			ID:           uuid.NewString(),
			Code:         code,
			Name:         name,
			Status:       model.StatusLobby,
			Settings:     params.Settings,
			PasswordHash: hash,
			Players:      []model.Player{moderator},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		g.Record(now, model.EventGameCreated, model.VisibilityPublic, moderator.ID, map[string]any{
			"name": name,
		})
		g.Record(now, model.EventPlayerJoined, model.VisibilityPublic, moderator.ID, map[string]any{
			"player_id":    moderator.ID,
			"display_name": moderator.DisplayName,
			"moderator":    true,
		})

		err = c.storage.CreateGame(ctx, g)
		if errors.Is(err, model.ErrGameCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		c.publish(ctx, g)
		c.logger.Info("game created",
			slog.String("game_code", string(g.Code)),
			slog.Bool("password", hash != ""),
		)
		return &Membership{
			Game:    g,
			Player:  moderator,
			Session: c.auth.CreateSession(g.Code, moderator.ID),
		}, nil
	}
	return nil, fmt.Errorf("generating game code: %w", model.ErrGameCodeTaken)
}

// generateCode picks a code not currently in use
func (c *Controller) generateCode(ctx context.Context) (model.GameCode, error) {
	for range maxCodeAttempts {
		code := model.GameCode(c.random.String(GameCodeLength, GameCodeAlphabet))
		exists, err := c.storage.GameExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("generating game code: %w", model.ErrGameCodeTaken)
}

// GetGame retrieves a game by code
func (c *Controller) GetGame(ctx context.Context, code model.GameCode) (*model.Game, error) {
	return c.storage.GetGame(ctx, code)
}

// JoinGame adds a player to a game that is still in the lobby
func (c *Controller) JoinGame(ctx context.Context, code model.GameCode, displayName, password string) (*Membership, error) {
	name, err := cleanName(displayName)
	if err != nil {
		return nil, err
	}

	// Check the password before taking part in the optimistic update so a
	// retry does not re-run bcrypt
	current, err := c.storage.GetGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := c.auth.CheckPassword(current.PasswordHash, password); err != nil {
		return nil, err
	}

	var player model.Player
	g, err := c.update(ctx, code, func(g *model.Game, now time.Time) error {
		if g.Status != model.StatusLobby {
			return model.ErrGameAlreadyStarted
		}
		if g.PlayerByName(name) != nil {
			return model.ErrDisplayNameTaken
		}

		player = model.Player{
			ID:          model.PlayerID(uuid.NewString()),
			DisplayName: name,
			Alive:       true,
			JoinedAt:    now,
		}
		g.Players = append(g.Players, player)
		g.Record(now, model.EventPlayerJoined, model.VisibilityPublic, player.ID, map[string]any{
			"player_id":    player.ID,
			"display_name": player.DisplayName,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player joined",
		slog.String("game_code", string(code)),
		slog.String("player_id", string(player.ID)),
	)
	return &Membership{
		Game:    g,
		Player:  player,
		Session: c.auth.CreateSession(code, player.ID),
	}, nil
}

// LeaveGame removes a player from a game still in the lobby. The moderator
// cannot leave.
func (c *Controller) LeaveGame(ctx context.Context, code model.GameCode, playerID model.PlayerID) (*model.Game, error) {
	g, err := c.update(ctx, code, func(g *model.Game, now time.Time) error {
		if g.Status != model.StatusLobby {
			return model.ErrGameAlreadyStarted
		}
		p := g.Player(playerID)
		if p == nil {
			return model.ErrPlayerNotFound
		}
		if p.IsModerator {
			return model.ErrModeratorCannotLeave
		}
		removePlayer(g, playerID)
		g.Record(now, model.EventPlayerLeft, model.VisibilityPublic, playerID, map[string]any{
			"player_id": playerID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.auth.InvalidatePlayer(code, playerID)
	return g, nil
}

// AddBot seats a bot player using the given strategy
func (c *Controller) AddBot(ctx context.Context, code model.GameCode, actor model.PlayerID, strategy string) (*model.Player, error) {
	if strategy == "" {
		strategy = model.BotStrategyRandom
	}
	if !slices.Contains(model.ValidBotStrategies(), strategy) {
		return nil, fmt.Errorf("%w: unknown bot strategy %q", model.ErrInvalidSettings, strategy)
	}

	var bot model.Player
	_, err := c.update(ctx, code, func(g *model.Game, now time.Time) error {
		if err := requireModerator(g, actor); err != nil {
			return err
		}
		if g.Status != model.StatusLobby {
			return model.ErrGameAlreadyStarted
		}

		n := 1
		for g.PlayerByName(fmt.Sprintf("Bot %d", n)) != nil {
			n++
		}
		bot = model.Player{
			ID:          model.PlayerID("bot-" + uuid.NewString()),
			DisplayName: fmt.Sprintf("Bot %d", n),
			IsBot:       true,
			BotStrategy: strategy,
			Alive:       true,
			JoinedAt:    now,
		}
		g.Players = append(g.Players, bot)
		g.Record(now, model.EventPlayerJoined, model.VisibilityPublic, bot.ID, map[string]any{
			"player_id":    bot.ID,
			"display_name": bot.DisplayName,
			"bot":          true,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("bot added",
		slog.String("game_code", string(code)),
		slog.String("bot_id", string(bot.ID)),
		slog.String("strategy", strategy),
	)
	return &bot, nil
}

// RemoveBots removes every bot from a game in the lobby and reports how
// many were removed
func (c *Controller) RemoveBots(ctx context.Context, code model.GameCode, actor model.PlayerID) (int, error) {
	removed := 0
	_, err := c.update(ctx, code, func(g *model.Game, now time.Time) error {
		if err := requireModerator(g, actor); err != nil {
			return err
		}
		if g.Status != model.StatusLobby {
			return model.ErrGameAlreadyStarted
		}

		removed = 0
		var bots []model.PlayerID
		for _, p := range g.Players {
			if p.IsBot {
				bots = append(bots, p.ID)
			}
		}
		for _, id := range bots {
			removePlayer(g, id)
			g.Record(now, model.EventPlayerLeft, model.VisibilityPublic, id, map[string]any{
				"player_id": id,
				"bot":       true,
			})
			removed++
		}
		return nil
	})
	return removed, err
}

// RemoveBot removes a single bot
func (c *Controller) RemoveBot(ctx context.Context, code model.GameCode, actor, botID model.PlayerID) error {
	_, err := c.update(ctx, code, func(g *model.Game, now time.Time) error {
		if err := requireModerator(g, actor); err != nil {
			return err
		}
		if g.Status != model.StatusLobby {
			return model.ErrGameAlreadyStarted
		}
		p := g.Player(botID)
		if p == nil {
			return model.ErrPlayerNotFound
		}
		if !p.IsBot {
			return model.ErrNotBot
		}
		removePlayer(g, botID)
		g.Record(now, model.EventPlayerLeft, model.VisibilityPublic, botID, map[string]any{
			"player_id": botID,
			"bot":       true,
		})
		return nil
	})
	return err
}

// UpdateSettings replaces the game settings. Settings stay editable until the
// game ends; new durations apply from the next phase change.
func (c *Controller) UpdateSettings(ctx context.Context, code model.GameCode, actor model.PlayerID, settings model.Settings) (*model.Game, error) {
	if err := validateSettings(settings); err != nil {
		return nil, err
	}
	return c.update(ctx, code, func(g *model.Game, now time.Time) error {
		if err := requireModerator(g, actor); err != nil {
			return err
		}
		if g.Status == model.StatusEnded {
			return model.ErrGameEnded
		}
		if g.Status != model.StatusLobby && !slices.Equal(g.Settings.ExtraRoles, settings.ExtraRoles) {
			return fmt.Errorf("%w: roles are dealt at start", model.ErrGameAlreadyStarted)
		}
		g.Settings = settings
		g.Record(now, model.EventSettingsUpdated, model.VisibilityPublic, actor, map[string]any{
			"day_seconds":     settings.DaySeconds,
			"council_seconds": settings.CouncilSeconds,
			"auto_mode":       settings.AutoMode,
			"extra_roles":     settings.ExtraRoles,
		})
		return nil
	})
}

// StartGame deals roles and begins the first night
func (c *Controller) StartGame(ctx context.Context, code model.GameCode, actor model.PlayerID) (*model.Game, error) {
	return c.gameController.StartGame(ctx, code, actor)
}

// update mirrors the game controller's optimistic update for lobby changes
func (c *Controller) update(ctx context.Context, code model.GameCode, fn func(g *model.Game, now time.Time) error) (*model.Game, error) {
	g, err := storage.Update(ctx, c.storage, code, func(g *model.Game) error {
		now := c.clock.Now()
		if err := fn(g, now); err != nil {
			return err
		}
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.publish(ctx, g)
	return g, nil
}

func (c *Controller) publish(ctx context.Context, g *model.Game) {
	events := g.DrainEvents()
	if c.events != nil {
		c.events.Publish(ctx, g.Code, events)
	}
}

func requireModerator(g *model.Game, actor model.PlayerID) error {
	p := g.Player(actor)
	if p == nil {
		return model.ErrPlayerNotFound
	}
	if !p.IsModerator {
		return model.ErrNotModerator
	}
	return nil
}

func removePlayer(g *model.Game, id model.PlayerID) {
	g.Players = slices.DeleteFunc(g.Players, func(p model.Player) bool {
		return p.ID == id
	})
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return "", model.ErrInvalidDisplayName
	}
	return name, nil
}

func validateSettings(s model.Settings) error {
	if s.DaySeconds < 0 || s.CouncilSeconds < 0 {
		return fmt.Errorf("%w: durations cannot be negative", model.ErrInvalidSettings)
	}
	return model.ValidateExtraRoles(s.ExtraRoles)
}
