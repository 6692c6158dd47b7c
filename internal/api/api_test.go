package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/moonfall/internal/api"
	"github.com/mcoot/moonfall/internal/api/apierr"
	"github.com/mcoot/moonfall/internal/api/response"
	"github.com/mcoot/moonfall/internal/factory"
	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/services/auth"
	"github.com/mcoot/moonfall/internal/testutil"
)

type APISuite struct {
	suite.Suite
	app     *factory.App
	handler http.Handler
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	// API tests are integration tests - use the production factory with a fixed seed
	app, err := factory.New(context.Background(), factory.Config{
		AuthConfig: auth.Config{SessionDuration: time.Hour, BcryptCost: bcrypt.MinCost},
		Logger:     testutil.NopLogger(),
		Seed:       42,
	})
	s.Require().NoError(err)
	s.app = app

	s.handler = api.NewRouter(api.RouterConfig{
		Logger:          testutil.NopLogger(),
		AuthService:     app.AuthService,
		LobbyController: app.LobbyController,
		GameController:  app.GameController,
		BotService:      app.BotService,
		Journal:         app.Journal,
		StreamManager:   app.StreamManager,
		Metrics:         app.Metrics,
		PublicURL:       "https://moonfall.test",
		CORSOrigins:     []string{"https://moonfall.test"},
		ServeMetrics:    true,
	})
}

func (s *APISuite) TearDownTest() {
	s.NoError(s.app.Close())
}

func (s *APISuite) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewBuffer(b)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *APISuite) decode(rr *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func (s *APISuite) apiError(rr *httptest.ResponseRecorder) apierr.APIError {
	var resp apierr.ErrorResponse
	s.decode(rr, &resp)
	s.False(resp.Success)
	return resp.Error
}

// table is a game with a moderator and named players, keyed by display name
type table struct {
	code     string
	modToken string
	tokens   map[string]string
	ids      map[string]string
}

func (s *APISuite) createGame(password string, players ...string) *table {
	rr := s.request(http.MethodPost, "/api/v1/games", map[string]any{
		"name":           "Full Moon",
		"moderator_name": "Mod",
		"password":       password,
	}, "")
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var created response.SessionResponse
	s.decode(rr, &created)
	t := &table{
		code:     created.Game.Code,
		modToken: created.SessionToken,
		tokens:   map[string]string{},
		ids:      map[string]string{},
	}

	for _, name := range players {
		rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/players", map[string]any{
			"display_name": name,
			"password":     password,
		}, "")
		s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

		var joined response.SessionResponse
		s.decode(rr, &joined)
		t.tokens[name] = joined.SessionToken
		t.ids[name] = joined.PlayerID
	}
	return t
}

// start begins the game and returns player names grouped by team
func (s *APISuite) start(t *table) (wolves, village []string) {
	rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/start", nil, t.modToken)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var resp response.GameResponse
	s.decode(rr, &resp)
	s.Require().Equal(model.StatusNight, resp.Game.Status)

	for _, p := range resp.Game.Players {
		switch {
		case p.IsModerator:
		case p.Team == model.FactionWolves:
			wolves = append(wolves, p.DisplayName)
		default:
			village = append(village, p.DisplayName)
		}
	}
	return wolves, village
}

func (s *APISuite) TestHealthCheck() {
	rr := s.request(http.MethodGet, "/api/v1/health", nil, "")
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "ok")
	s.NotEmpty(rr.Header().Get("X-Request-ID"))
}

func (s *APISuite) TestCatalog() {
	rr := s.request(http.MethodGet, "/api/v1/catalog", nil, "")
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp response.CatalogResponse
	s.decode(rr, &resp)
	s.True(resp.Success)
	s.NotEmpty(resp.Roles)
	s.NotEmpty(resp.Items)
}

func (s *APISuite) TestCreateGameReturnsModeratorSession() {
	t := s.createGame("")

	rr := s.request(http.MethodGet, "/api/v1/games/"+t.code, nil, t.modToken)
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp response.GameResponse
	s.decode(rr, &resp)
	s.True(resp.Success)
	s.Equal(model.StatusLobby, resp.Game.Status)
	s.Require().Len(resp.Game.Players, 1)
	s.True(resp.Game.Players[0].IsModerator)
	s.False(resp.Game.HasPassword)
	s.NotContains(rr.Body.String(), "password_hash")
}

func (s *APISuite) TestCreateGameValidation() {
	rr := s.request(http.MethodPost, "/api/v1/games", map[string]any{"name": "", "moderator_name": "Mod"}, "")
	s.Equal(http.StatusConflict, rr.Code)
	s.Equal(apierr.CodePreconditionFailed, s.apiError(rr).Code)

	rr = s.request(http.MethodPost, "/api/v1/games", map[string]any{"bogus": true}, "")
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal(apierr.CodeInvalidRequest, s.apiError(rr).Code)
}

func (s *APISuite) TestAuthentication() {
	t := s.createGame("")
	other := s.createGame("")

	rr := s.request(http.MethodGet, "/api/v1/games/"+t.code, nil, "")
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal(apierr.CodeUnauthenticated, s.apiError(rr).Code)

	rr = s.request(http.MethodGet, "/api/v1/games/"+t.code, nil, "sess_bogus")
	s.Equal(http.StatusUnauthorized, rr.Code)

	rr = s.request(http.MethodGet, "/api/v1/games/"+t.code, nil, other.modToken)
	s.Equal(http.StatusForbidden, rr.Code)
}

func (s *APISuite) TestJoinWithPassword() {
	t := s.createGame("hunter2")

	rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/players", map[string]any{
		"display_name": "Ada",
		"password":     "wrong",
	}, "")
	s.Equal(http.StatusPreconditionFailed, rr.Code)
	s.Equal(apierr.CodeWrongPassword, s.apiError(rr).Code)

	rr = s.request(http.MethodPost, "/api/v1/games/"+t.code+"/players", map[string]any{
		"display_name": "Ada",
		"password":     "hunter2",
	}, "")
	s.Equal(http.StatusCreated, rr.Code)

	var resp response.SessionResponse
	s.decode(rr, &resp)
	s.True(resp.Game.HasPassword)
	s.NotEmpty(resp.SessionToken)
}

func (s *APISuite) TestJoinUnknownGame() {
	rr := s.request(http.MethodPost, "/api/v1/games/ZZZZZZ/players", map[string]any{"display_name": "Ada"}, "")
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal(apierr.CodeGameNotFound, s.apiError(rr).Code)
}

func (s *APISuite) TestQRCode() {
	t := s.createGame("")

	rr := s.request(http.MethodGet, "/api/v1/games/"+t.code+"/qr", nil, "")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Equal("image/png", rr.Header().Get("Content-Type"))
	s.True(bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))

	rr = s.request(http.MethodGet, "/api/v1/games/ZZZZZZ/qr", nil, "")
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *APISuite) TestLeaveAndLogout() {
	t := s.createGame("", "Ada", "Bo")

	rr := s.request(http.MethodDelete, "/api/v1/games/"+t.code+"/players/me", nil, t.tokens["Ada"])
	s.Require().Equal(http.StatusOK, rr.Code)

	// Leaving ends the session
	rr = s.request(http.MethodGet, "/api/v1/games/"+t.code, nil, t.tokens["Ada"])
	s.Equal(http.StatusUnauthorized, rr.Code)

	rr = s.request(http.MethodDelete, "/api/v1/games/"+t.code+"/players/me", nil, t.modToken)
	s.Equal(http.StatusConflict, rr.Code)

	rr = s.request(http.MethodDelete, "/api/v1/games/"+t.code+"/session", nil, t.tokens["Bo"])
	s.Require().Equal(http.StatusOK, rr.Code)
	rr = s.request(http.MethodGet, "/api/v1/games/"+t.code, nil, t.tokens["Bo"])
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func (s *APISuite) TestModeratorOnlyActions() {
	t := s.createGame("", "Ada", "Bo", "Cy")

	rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/start", nil, t.tokens["Ada"])
	s.Equal(http.StatusForbidden, rr.Code)
	s.Equal(apierr.CodeNotModerator, s.apiError(rr).Code)

	rr = s.request(http.MethodPatch, "/api/v1/games/"+t.code+"/settings", map[string]any{"day_seconds": 60}, t.tokens["Ada"])
	s.Equal(http.StatusForbidden, rr.Code)

	rr = s.request(http.MethodPatch, "/api/v1/games/"+t.code+"/settings", map[string]any{"day_seconds": 60}, t.modToken)
	s.Require().Equal(http.StatusOK, rr.Code)
	var resp response.GameResponse
	s.decode(rr, &resp)
	s.Equal(60, resp.Game.Settings.DaySeconds)
}

func (s *APISuite) TestBots() {
	t := s.createGame("")

	for range 3 {
		rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/bots", map[string]any{"strategy": "passive"}, t.modToken)
		s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

		var resp response.BotResponse
		s.decode(rr, &resp)
		s.True(resp.Bot.IsBot)
	}

	rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/bots", map[string]any{"strategy": "clever"}, t.modToken)
	s.Equal(http.StatusConflict, rr.Code)

	rr = s.request(http.MethodDelete, "/api/v1/games/"+t.code+"/bots", nil, t.modToken)
	s.Require().Equal(http.StatusOK, rr.Code)
	var removed response.RemovedResponse
	s.decode(rr, &removed)
	s.Equal(3, removed.Removed)
}

func (s *APISuite) TestRolesAreRedacted() {
	t := s.createGame("", "Ada", "Bo", "Cy", "Di")
	s.start(t)

	for name, token := range t.tokens {
		rr := s.request(http.MethodGet, "/api/v1/games/"+t.code, nil, token)
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp response.GameResponse
		s.decode(rr, &resp)
		s.Equal(t.ids[name], resp.Game.ViewerID)

		for _, p := range resp.Game.Players {
			if p.ID == t.ids[name] {
				s.NotEmpty(p.Role, "%s sees their own role", name)
			} else if p.Team != model.FactionWolves {
				s.Empty(p.Role, "%s must not see %s's role", name, p.DisplayName)
			}
		}
	}
}

func (s *APISuite) TestFullRound() {
	t := s.createGame("", "Ada", "Bo", "Cy", "Di", "Ed", "Flo")
	wolves, village := s.start(t)
	s.Require().Len(wolves, 2)
	s.Require().Len(village, 4)
	victim := village[0]

	// Resolving before every wolf voted is refused with the counts
	rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/votes", map[string]any{
		"target_id": t.ids[victim],
		"type":      "night_wolf",
	}, t.tokens[wolves[0]])
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	rr = s.request(http.MethodPost, "/api/v1/games/"+t.code+"/resolve", nil, t.modToken)
	s.Require().Equal(http.StatusConflict, rr.Code)
	apiErr := s.apiError(rr)
	s.Equal(apierr.CodeIncompleteVotes, apiErr.Code)
	s.Equal(1.0, apiErr.Details["recorded"])
	s.Equal(2.0, apiErr.Details["required"])

	rr = s.request(http.MethodPost, "/api/v1/games/"+t.code+"/votes", map[string]any{
		"target_id": t.ids[victim],
		"type":      "night_wolf",
	}, t.tokens[wolves[1]])
	s.Require().Equal(http.StatusOK, rr.Code)

	rr = s.request(http.MethodPost, "/api/v1/games/"+t.code+"/resolve", map[string]any{}, t.modToken)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	var night response.ResolveResponse
	s.decode(rr, &night)
	s.Require().NotNil(night.Night)
	s.Require().NotNil(night.Night.Victim)
	s.Equal(model.PlayerID(t.ids[victim]), *night.Night.Victim)
	s.Equal(model.StatusDay, night.Game.Status)

	// Day to council, then the village votes out a wolf
	rr = s.request(http.MethodPost, "/api/v1/games/"+t.code+"/phase", map[string]any{"target": "council"}, t.modToken)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	for _, name := range village[1:] {
		rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/votes", map[string]any{"target_id": t.ids[wolves[0]]}, t.tokens[name])
		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	}

	rr = s.request(http.MethodPost, "/api/v1/games/"+t.code+"/resolve", nil, t.modToken)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	var day response.ResolveResponse
	s.decode(rr, &day)
	s.Require().NotNil(day.Day)
	s.Require().NotNil(day.Day.Eliminated)
	s.Equal(model.PlayerID(t.ids[wolves[0]]), *day.Day.Eliminated)
	s.Equal(model.RoleWerewolf, day.Day.RevealedRole)
	s.Equal(model.StatusNight, day.Game.Status)
	s.Equal(2, day.Game.Phase)
}

// autoNight starts an auto-mode game with a witch and returns the tokens of
// each participant grouped by role
func (s *APISuite) autoNight() (*table, map[model.RoleID][]string, map[string]string) {
	t := s.createGame("", "Ada", "Bo", "Cy", "Di", "Ed")
	rr := s.request(http.MethodPatch, "/api/v1/games/"+t.code+"/settings", map[string]any{
		"auto_mode":   true,
		"extra_roles": []string{"witch"},
	}, t.modToken)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	rr = s.request(http.MethodPost, "/api/v1/games/"+t.code+"/start", nil, t.modToken)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	g, err := s.app.GameController.GetGame(context.Background(), model.GameCode(t.code))
	s.Require().NoError(err)

	tokens := map[string]string{}
	for name, id := range t.ids {
		tokens[id] = t.tokens[name]
	}
	byRole := map[model.RoleID][]string{}
	for _, p := range g.Participants() {
		if p.IsModerator {
			tokens[string(p.ID)] = t.modToken
		}
		byRole[p.Role] = append(byRole[p.Role], string(p.ID))
	}
	s.Require().Len(byRole[model.RoleWerewolf], 2)
	s.Require().Len(byRole[model.RoleWitch], 1)
	s.Require().Len(byRole[model.RoleVillager], 2)
	return t, byRole, tokens
}

func (s *APISuite) wolvesVote(t *table, wolves []string, target string, tokens map[string]string) {
	for _, wolf := range wolves {
		rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/votes", map[string]any{
			"target_id": target,
			"type":      "night_wolf",
		}, tokens[wolf])
		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	}
}

func (s *APISuite) TestAutoModeResolveHidesSavedTarget() {
	t, byRole, tokens := s.autoNight()
	target := byRole[model.RoleVillager][0]
	resolver := byRole[model.RoleVillager][1]

	rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/powers", map[string]any{
		"power": "witch_save",
	}, tokens[byRole[model.RoleWitch][0]])
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.wolvesVote(t, byRole[model.RoleWerewolf], target, tokens)

	rr = s.request(http.MethodPost, "/api/v1/games/"+t.code+"/resolve", nil, tokens[resolver])
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var resp response.ResolveResponse
	s.decode(rr, &resp)
	s.Require().NotNil(resp.Night)
	s.Nil(resp.Night.Victim)
	s.False(resp.Night.Saved)
	s.False(resp.Night.Tie)
	s.Nil(resp.Night.Tally)
	s.Empty(resp.Night.Deaths)
	s.Equal(model.StatusDay, resp.Game.Status)
	for _, p := range resp.Game.Players {
		s.True(p.Alive, p.DisplayName)
	}
}

func (s *APISuite) TestAutoModeResolveShowsDevouredVictim() {
	t, byRole, tokens := s.autoNight()
	target := byRole[model.RoleVillager][0]
	resolver := byRole[model.RoleVillager][1]

	s.wolvesVote(t, byRole[model.RoleWerewolf], target, tokens)

	rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/resolve", nil, tokens[resolver])
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var resp response.ResolveResponse
	s.decode(rr, &resp)
	s.Require().NotNil(resp.Night)
	s.Require().NotNil(resp.Night.Victim)
	s.Equal(model.PlayerID(target), *resp.Night.Victim)
	s.Nil(resp.Night.Tally)
	s.Require().Len(resp.Night.Deaths, 1)
	s.Equal(model.DeathDevoured, resp.Night.Deaths[0].Reason)
}

func (s *APISuite) TestInvalidMoves() {
	t := s.createGame("", "Ada", "Bo", "Cy", "Di", "Ed", "Flo")
	wolves, village := s.start(t)

	// Night cannot jump to council
	rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/phase", map[string]any{"target": "council"}, t.modToken)
	s.Equal(http.StatusConflict, rr.Code)
	apiErr := s.apiError(rr)
	s.Equal(apierr.CodeInvalidTransition, apiErr.Code)
	s.Equal("night", apiErr.Details["from"])

	// Wolves cannot target a wolf and are told who they can target
	rr = s.request(http.MethodPost, "/api/v1/games/"+t.code+"/votes", map[string]any{
		"target_id": t.ids[wolves[1]],
		"type":      "night_wolf",
	}, t.tokens[wolves[0]])
	s.Equal(http.StatusConflict, rr.Code)
	apiErr = s.apiError(rr)
	s.Equal(apierr.CodeInvalidTarget, apiErr.Code)
	s.Len(apiErr.Details["valid_targets"], len(village))

	// Villagers cannot cast wolf votes
	rr = s.request(http.MethodPost, "/api/v1/games/"+t.code+"/votes", map[string]any{
		"target_id": t.ids[village[1]],
		"type":      "night_wolf",
	}, t.tokens[village[0]])
	s.Equal(http.StatusForbidden, rr.Code)

	// Unknown power
	rr = s.request(http.MethodPost, "/api/v1/games/"+t.code+"/powers", map[string]any{"power": "fly"}, t.tokens[village[0]])
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *APISuite) TestMeListsVoteTargets() {
	t := s.createGame("", "Ada", "Bo", "Cy", "Di", "Ed", "Flo")
	wolves, village := s.start(t)

	rr := s.request(http.MethodGet, "/api/v1/games/"+t.code+"/players/me", nil, t.tokens[wolves[0]])
	s.Require().Equal(http.StatusOK, rr.Code)
	var me response.MeResponse
	s.decode(rr, &me)
	s.Equal(model.RoleWerewolf, me.Player.Role)
	s.Len(me.VoteTargets[model.VoteNightWolf], len(village))

	rr = s.request(http.MethodGet, "/api/v1/games/"+t.code+"/players/me", nil, t.modToken)
	s.Require().Equal(http.StatusOK, rr.Code)
	me = response.MeResponse{}
	s.decode(rr, &me)
	s.Equal([]model.Status{model.StatusDay}, me.AllowedTransitions)
}

func (s *APISuite) TestEventsAreFilteredPerPlayer() {
	t := s.createGame("", "Ada", "Bo", "Cy")
	s.start(t)

	rr := s.request(http.MethodGet, "/api/v1/games/"+t.code+"/events", nil, t.tokens["Ada"])
	s.Require().Equal(http.StatusOK, rr.Code)
	var resp response.EventsResponse
	s.decode(rr, &resp)

	assigned := 0
	for _, e := range resp.Events {
		if e.Type == model.EventRoleAssigned {
			assigned++
			s.Equal(model.PlayerID(t.ids["Ada"]), e.Actor)
		}
	}
	s.Equal(1, assigned)

	rr = s.request(http.MethodGet, "/api/v1/games/"+t.code+"/events?after=1000", nil, t.tokens["Ada"])
	s.Require().Equal(http.StatusOK, rr.Code)
	resp = response.EventsResponse{}
	s.decode(rr, &resp)
	s.Empty(resp.Events)
	s.Equal(int64(1000), resp.LastSeq)

	rr = s.request(http.MethodGet, "/api/v1/games/"+t.code+"/events?after=-3", nil, t.tokens["Ada"])
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *APISuite) TestShop() {
	t := s.createGame("", "Ada", "Bo", "Cy")
	s.start(t)

	rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/points", map[string]any{"player_id": t.ids["Ada"], "amount": 5}, t.modToken)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	rr = s.request(http.MethodPost, "/api/v1/games/"+t.code+"/purchases", map[string]any{"item": "double_vote"}, t.tokens["Ada"])
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	var bought response.PurchaseResponse
	s.decode(rr, &bought)
	s.Equal(model.ItemDoubleVote, bought.Purchase.Item)

	rr = s.request(http.MethodPost, "/api/v1/games/"+t.code+"/purchases", map[string]any{"item": "double_vote"}, t.tokens["Bo"])
	s.Equal(http.StatusConflict, rr.Code)
}

func (s *APISuite) TestBotsPlayAfterStart() {
	t := s.createGame("")
	for range 4 {
		rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/bots", nil, t.modToken)
		s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	}
	s.start(t)

	// The bot wolf has already voted so the night resolves without force
	rr := s.request(http.MethodPost, "/api/v1/games/"+t.code+"/resolve", nil, t.modToken)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var resp response.ResolveResponse
	s.decode(rr, &resp)
	s.NotNil(resp.Night.Victim)
	s.NotEmpty(resp.BotActions)
}

func (s *APISuite) TestMetricsEndpoint() {
	s.createGame("")

	rr := s.request(http.MethodGet, "/metrics", nil, "")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "moonfall_games_created_total")
}

func (s *APISuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/games", nil)
	req.Header.Set("Origin", "https://moonfall.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	s.Equal("https://moonfall.test", rr.Header().Get("Access-Control-Allow-Origin"))
}
