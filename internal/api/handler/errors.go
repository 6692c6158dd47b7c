package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/moonfall/internal/api/apierr"
	"github.com/mcoot/moonfall/internal/api/middleware"
	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/services/bot"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 64 << 10

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// decode reads a JSON body into v. An empty body leaves v untouched when
// allowEmpty is set.
func decode(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return apierr.NewInvalidRequestError("invalid request body")
	}
	return nil
}

// gameCode reads the {code} route variable. Codes are case-insensitive.
func gameCode(r *http.Request) model.GameCode {
	return model.GameCode(strings.ToUpper(mux.Vars(r)["code"]))
}

func muxVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// caller returns the session's player id for an authenticated route
func caller(r *http.Request) model.PlayerID {
	return middleware.MustGetSession(r.Context()).PlayerID
}

// viewer finds the caller in g. A session whose player has left the game
// is rejected.
func viewer(r *http.Request, g *model.Game) (*model.Player, error) {
	p := g.Player(caller(r))
	if p == nil {
		return nil, apierr.NewForbiddenError("Player is no longer in this game")
	}
	return p, nil
}

// runBots lets bots act after a phase change. Failures are logged only.
func runBots(ctx context.Context, bots *bot.Service, code model.GameCode, logger *slog.Logger) []bot.Action {
	if bots == nil {
		return nil
	}
	actions, err := bots.ProcessBots(ctx, code)
	if err != nil {
		logger.Warn("bot processing failed",
			slog.String("game_code", string(code)),
			slog.String("error", err.Error()),
		)
	}
	return actions
}
