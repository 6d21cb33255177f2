package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	ServerURL         string
	ListenAddr        string
	IdentityFile      string
	Username          string
	Code              string
	Create            bool
	GridSize          int
	NoticeTTL         time.Duration
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	Verbose           bool
}

func defaultIdentityFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "identity.json"
	}
	return filepath.Join(home, ".dotsboxes", "identity.json")
}

// LoadConfig parses flags, falling back to DOTS_* environment variables.
func LoadConfig(args []string, getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}
	envInt := func(key string, def int) int {
		if v, err := strconv.Atoi(getenv(key)); err == nil {
			return v
		}
		return def
	}

	var cfg Config
	fs := flag.NewFlagSet("dotsboxes", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerURL, "server", env("DOTS_BACKEND_URL", "ws://localhost:4000/ws"), "game server websocket URL")
	fs.StringVar(&cfg.ListenAddr, "listen", env("DOTS_LISTEN_ADDR", ":42069"), "UI bridge listen address")
	fs.StringVar(&cfg.IdentityFile, "identity", env("DOTS_IDENTITY_FILE", defaultIdentityFile()), "file holding the persisted user id")
	fs.StringVar(&cfg.Username, "username", env("DOTS_USERNAME", ""), "display name")
	fs.StringVar(&cfg.Code, "code", "", "game code to join")
	fs.BoolVar(&cfg.Create, "create", false, "create a new game instead of joining one")
	fs.IntVar(&cfg.GridSize, "grid", envInt("DOTS_GRID_SIZE", 5), fmt.Sprintf("dots per side when creating a game, usually one of %v", GridSizes))
	fs.DurationVar(&cfg.NoticeTTL, "notice", DefaultNoticeTTL, "how long notices stay up")
	fs.IntVar(&cfg.ReconnectAttempts, "reconnect-attempts", 5, "dial attempts before giving up")
	fs.DurationVar(&cfg.ReconnectDelay, "reconnect-delay", 2*time.Second, "pause between dial attempts")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "log gestures and notices")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Code = NormalizeCode(cfg.Code)
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.ServerURL == "" {
		return errors.New("server URL is required")
	}
	if err := validateUsername(c.Username); err != nil {
		return err
	}
	if c.Create {
		if c.GridSize < 2 {
			return fmt.Errorf("%w: %d", ErrInvalidGridSize, c.GridSize)
		}
	} else if c.Code == "" {
		return ErrCodeRequired
	}
	if c.NoticeTTL <= 0 {
		return fmt.Errorf("notice expiry must be positive, got %s", c.NoticeTTL)
	}
	return nil
}
