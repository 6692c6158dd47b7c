package e2e_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/moonfall/internal/api"
	"github.com/mcoot/moonfall/internal/api/response"
	"github.com/mcoot/moonfall/internal/factory"
	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/testutil"
)

// cliRunner runs the CLI binary as one player with their own session file
type cliRunner struct {
	binaryPath  string
	serverURL   string
	sessionFile string
}

func buildCLI(t *testing.T) string {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	binaryPath := filepath.Join(t.TempDir(), "moonfall-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/moonfall")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))
	return binaryPath
}

func newCLIRunner(t *testing.T, binaryPath, serverURL string) *cliRunner {
	t.Helper()
	return &cliRunner{
		binaryPath:  binaryPath,
		serverURL:   serverURL,
		sessionFile: filepath.Join(t.TempDir(), "session.json"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--session-file", r.sessionFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "MOONFALL_TOKEN=", "MOONFALL_GAME=")
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) mustRun(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := r.run(args...)
	require.NoError(t, err, "moonfall %v: %s", args, out)
	if v != nil {
		require.NoError(t, json.Unmarshal([]byte(out), v), out)
	}
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startTestServer runs the real API server on a free port
func startTestServer(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := testutil.NopLogger()
	app, err := factory.New(context.Background(), factory.Config{Logger: logger, Seed: 7})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		AuthService:     app.AuthService,
		LobbyController: app.LobbyController,
		GameController:  app.GameController,
		BotService:      app.BotService,
		Journal:         app.Journal,
		StreamManager:   app.StreamManager,
		Metrics:         app.Metrics,
		PublicURL:       "http://" + listener.Addr().String(),
	})
	server := api.NewServer(router, api.DefaultServerConfig(), logger)
	server.OnShutdown(app.StreamManager.Close)

	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	t.Cleanup(func() {
		_ = server.Shutdown(context.Background())
		_ = app.Close()
	})

	serverURL := "http://" + listener.Addr().String()
	waitForServer(t, serverURL+"/api/v1/health")
	return serverURL
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

func TestCLIEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the CLI binary")
	}

	binary := buildCLI(t)
	serverURL := startTestServer(t)

	t.Run("health", func(t *testing.T) {
		cli := newCLIRunner(t, binary, serverURL)
		var health response.HealthResponse
		cli.mustRun(t, &health, "health")
		assert.Equal(t, "ok", health.Status)
	})

	t.Run("commands without a game fail", func(t *testing.T) {
		cli := newCLIRunner(t, binary, serverURL)
		out, err := cli.run("game", "show")
		assert.Error(t, err)
		assert.Contains(t, out, "no game code")
	})

	t.Run("wrong password", func(t *testing.T) {
		mod := newCLIRunner(t, binary, serverURL)
		var created response.SessionResponse
		mod.mustRun(t, &created, "lobby", "create", "--name", "Locked", "--password", "hunter2")

		player := newCLIRunner(t, binary, serverURL)
		out, err := player.run("lobby", "join", created.Game.Code, "--name", "Ada", "--password", "nope")
		assert.Error(t, err)
		assert.Contains(t, out, "WRONG_PASSWORD")
	})

	t.Run("moderated game", func(t *testing.T) {
		mod := newCLIRunner(t, binary, serverURL)
		var created response.SessionResponse
		mod.mustRun(t, &created, "lobby", "create", "--name", "Full Moon", "--moderator", "Mod")
		code := created.Game.Code
		require.Len(t, code, 6)

		players := map[string]*cliRunner{}
		for _, name := range []string{"Ada", "Bo", "Cy"} {
			p := newCLIRunner(t, binary, serverURL)
			var joined response.SessionResponse
			p.mustRun(t, &joined, "lobby", "join", code, "--name", name)
			assert.Equal(t, code, joined.Game.Code)
			players[name] = p
		}

		// The remembered session means later commands need no code
		var game response.Game
		mod.mustRun(t, &game, "game", "show")
		assert.Len(t, game.Players, 4)

		mod.mustRun(t, &game, "game", "start")
		assert.Equal(t, model.StatusNight, game.Status)

		// Find the wolf through each player's own view
		var wolf *cliRunner
		var villagers []string
		for _, p := range players {
			var me response.MeResponse
			p.mustRun(t, &me, "game", "me")
			if me.Player.Team == model.FactionWolves {
				wolf = p
			} else {
				villagers = append(villagers, me.Player.ID)
			}
		}
		require.NotNil(t, wolf)
		require.Len(t, villagers, 2)

		wolf.mustRun(t, nil, "vote", "--night", villagers[0])

		var resolved response.ResolveResponse
		mod.mustRun(t, &resolved, "game", "resolve")
		require.NotNil(t, resolved.Night)
		require.NotNil(t, resolved.Night.Victim)
		assert.Equal(t, model.PlayerID(villagers[0]), *resolved.Night.Victim)

		// One wolf against one villager ends the game
		assert.Equal(t, model.FactionWolves, resolved.Night.Winner)
		assert.Equal(t, model.StatusEnded, resolved.Game.Status)

		var events response.EventsResponse
		mod.mustRun(t, &events, "events", "list")
		require.NotEmpty(t, events.Events)
		assert.Equal(t, model.EventGameEnded, events.Events[len(events.Events)-1].Type)
	})

	t.Run("bots", func(t *testing.T) {
		mod := newCLIRunner(t, binary, serverURL)
		mod.mustRun(t, nil, "lobby", "create")
		mod.mustRun(t, nil, "bots", "add", "-n", "5")

		var game response.Game
		mod.mustRun(t, &game, "game", "show")
		assert.Len(t, game.Players, 6)

		out, err := mod.run("bots", "remove")
		require.NoError(t, err, out)
		assert.Contains(t, out, "Removed 5 bot(s)")
	})
}
