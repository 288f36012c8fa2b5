package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/peterbourgon/ff"

	"orange-console/internal/model"
)

const (
	programName = "orange-console"
	programVar  = "ORANGE"
)

// Config contains runtime options for the console.
type Config struct {
	ServerURL   string
	HTTPTimeout time.Duration
	LogFile     string
	SessionFile string
	Secret      string
	Workers     int
	Logout      bool
	StartPage   model.Kind

	// PreviewDir holds scratch copies of remote assets while they are
	// previewed. Empty disables remote previews.
	PreviewDir string
}

// Parse reads CLI flags, ORANGE_* environment variables and an optional
// config file into Config.
func Parse(args []string) (Config, error) {
	return parse(args, os.Stderr)
}

func parse(args []string, usage io.Writer) (Config, error) {
	defaultWorkers := max(runtime.NumCPU(), 1)

	set := flag.NewFlagSet(programName, flag.ContinueOnError)
	set.SetOutput(usage)
	serverURL := set.String("server", "http://localhost:3001", "catalog API base endpoint")
	httpTimeout := set.Duration("http-timeout", 30*time.Second, "HTTP request timeout")
	logFile := set.String("log-file", programName+".log", "log file path")
	sessionFile := set.String("session-file", "", "session file path (default: <user config dir>/orange-console/session.json)")
	secret := set.String("secret", "", "shared console secret")
	workers := set.Int("workers", defaultWorkers, "number of concurrent startup fetches")
	logout := set.Bool("logout", false, "clear the saved session and exit")
	page := set.String("page", model.KindSinger.String(), "initial page: singers, albums, songs or recommendations")
	previewDir := set.String("preview-dir", filepath.Join(os.TempDir(), programName), "scratch directory for remote asset previews")
	remotePreviews := set.Bool("remote-previews", true, "preview already uploaded assets in edit dialogs")
	_ = set.String("config-path", "", "path to config (optional)")

	if err := ff.Parse(set, args,
		ff.WithConfigFileFlag("config-path"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix(programVar),
	); err != nil {
		return Config{}, fmt.Errorf("parse args: %w", err)
	}

	if *workers < 1 {
		*workers = 1
	}

	cfg := Config{
		ServerURL:   strings.TrimRight(strings.TrimSpace(*serverURL), "/"),
		HTTPTimeout: *httpTimeout,
		LogFile:     *logFile,
		SessionFile: *sessionFile,
		Secret:      *secret,
		Workers:     *workers,
		Logout:      *logout,
	}
	if *remotePreviews {
		cfg.PreviewDir = strings.TrimSpace(*previewDir)
	}

	startPage, err := model.ParseKind(*page)
	if err != nil {
		return Config{}, err
	}
	cfg.StartPage = startPage

	if cfg.ServerURL == "" {
		return Config{}, errors.New("server endpoint must not be empty")
	}
	if cfg.SessionFile == "" {
		cfg.SessionFile = defaultSessionFile()
	}
	if cfg.Secret == "" && !cfg.Logout {
		return Config{}, errors.New("a console secret is required (-secret or ORANGE_SECRET)")
	}

	return cfg, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, programName, "session.json")
}
