package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds CLI configuration
type Config struct {
	ServerURL   string
	Token       string
	GameCode    string
	SessionFile string
	Output      string
	Verbose     bool
}

// Session is what the CLI remembers between invocations
type Session struct {
	GameCode string `json:"game_code"`
	PlayerID string `json:"player_id"`
	Token    string `json:"token"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:   getEnvOrDefault("MOONFALL_SERVER", "http://localhost:8080"),
		Token:       os.Getenv("MOONFALL_TOKEN"),
		GameCode:    os.Getenv("MOONFALL_GAME"),
		SessionFile: getEnvOrDefault("MOONFALL_SESSION_FILE", defaultSessionFile()),
		Output:      "text",
		Verbose:     false,
	}
}

// LoadSession fills in the token and game code from the session file when
// they were not given by flag or environment
func (c *Config) LoadSession() error {
	data, err := os.ReadFile(c.SessionFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // No session file is fine
		}
		return err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if c.Token == "" {
		c.Token = s.Token
	}
	if c.GameCode == "" {
		c.GameCode = s.GameCode
	}
	return nil
}

// SaveSession saves the session to the session file
func (c *Config) SaveSession(s Session) error {
	c.Token = s.Token
	c.GameCode = s.GameCode

	dir := filepath.Dir(c.SessionFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(c.SessionFile, data, 0600)
}

// ClearSession removes the session file
func (c *Config) ClearSession() error {
	c.Token = ""
	if err := os.Remove(c.SessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Code returns the game code to act on, preferring an explicit argument
func (c *Config) Code(args []string) (string, error) {
	code := c.GameCode
	if len(args) > 0 && args[0] != "" {
		code = args[0]
	}
	if code == "" {
		return "", errors.New("no game code: pass --game or create/join a game first")
	}
	return strings.ToUpper(code), nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".moonfall/session.json"
	}
	return filepath.Join(home, ".moonfall", "session.json")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
