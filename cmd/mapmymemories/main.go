// Package main is the entry point for the MapMyMemories server.
//
// MapMyMemories tracks the places its users have visited: each pin is a
// photo plus coordinates, appended to a per-user CSV ledger. The ledger and
// the photos live in a local data directory, versioned with git, and are
// mirrored to a GitHub repository through the contents API. Configuration is
// read from CLI flags and a .env file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/r-Iyer/MapMyMemories/internal/geo"
	"github.com/r-Iyer/MapMyMemories/internal/server"
	"github.com/r-Iyer/MapMyMemories/internal/server/handlers"
	"github.com/r-Iyer/MapMyMemories/internal/server/ipgeo"
	"github.com/r-Iyer/MapMyMemories/internal/server/ratelimit"
	"github.com/r-Iyer/MapMyMemories/internal/storage/git"
	"github.com/r-Iyer/MapMyMemories/internal/storage/github"
	"github.com/r-Iyer/MapMyMemories/internal/storage/local"
	"github.com/r-Iyer/MapMyMemories/internal/uploader"
)

// envConfig holds the settings read from the environment and the .env file.
// The GitHub settings are optional: without a repository the server runs
// local-only and upload responses carry no remote URLs.
type envConfig struct {
	GitHubRepo   string `env:"GITHUB_REPO"`
	GitHubBranch string `env:"GITHUB_BRANCH" envDefault:"main"`
	GitHubToken  string `env:"GITHUB_TOKEN"`
	RemoteRoot   string `env:"REMOTE_ROOT" envDefault:"app/public"`
	HTTP         string `env:"HTTP"`
	LogLevel     string `env:"LOG_LEVEL"`
	GeoDB        string `env:"GEO_DB"`
}

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "mapmymemories: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	httpAddr := flag.String("http", "localhost:8080", "Address to listen on (e.g., localhost:8080, :8080, 0.0.0.0:8080). Use 0.0.0.0:port to listen on all interfaces.")
	dataDir := flag.String("data-dir", "./data", "Data directory")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	geoDB := flag.String("geo-db", "", "Path to MaxMind MMDB file for IP geolocation (optional)")
	geocode := flag.Bool("geocode", true, "Fill empty state/country fields by reverse geocoding the pin coordinates")
	audit := flag.Bool("audit", true, "Version the data directory with git")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *version {
		printVersion()
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelInfo)
	// Skip timestamps when running under systemd (it adds its own).
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Drop time when running under systemd.
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			// Drop localhost IPs (not useful in logs).
			if a.Key == "ip" {
				if v := a.Value.String(); v == "127.0.0.1" || v == "::1" {
					return slog.Attr{}
				}
			}
			val := a.Value.Any()
			skip := false
			switch t := val.(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case uint64:
				skip = t == 0
			case int64:
				skip = t == 0
			case float64:
				skip = t == 0
			case time.Time:
				skip = t.IsZero()
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(*dataDir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Load .env from the data directory, then the current directory. Missing
	// files are fine; the environment wins over both.
	for _, p := range []string{filepath.Join(*dataDir, ".env"), ".env"} {
		if err := godotenv.Load(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	// Environment values apply only where the flag was left at its default.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	if !set["http"] && cfg.HTTP != "" {
		*httpAddr = cfg.HTTP
	}
	if !set["log-level"] && cfg.LogLevel != "" {
		*logLevel = cfg.LogLevel
	}
	if !set["geo-db"] && cfg.GeoDB != "" {
		*geoDB = cfg.GeoDB
	}

	switch *logLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %q", *logLevel)
	}

	// Normalize addr: ":8080" becomes "localhost:8080"
	addr := *httpAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", *httpAddr, err)
	}

	store, err := local.NewStore(*dataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize local store: %w", err)
	}

	svc := &handlers.Services{
		Uploader: &uploader.Service{Local: store},
		Local:    store,
	}

	if cfg.GitHubRepo != "" {
		if cfg.GitHubToken == "" {
			return errors.New("GITHUB_TOKEN must be set when GITHUB_REPO is configured")
		}
		svc.Uploader.Remote = github.NewClient(github.Config{
			Repo:   cfg.GitHubRepo,
			Branch: cfg.GitHubBranch,
			Token:  cfg.GitHubToken,
		})
		svc.Uploader.RemoteRoot = cfg.RemoteRoot
		slog.InfoContext(ctx, "Remote mirroring enabled", "repo", cfg.GitHubRepo, "branch", cfg.GitHubBranch)
	} else {
		slog.InfoContext(ctx, "No GITHUB_REPO configured, running local-only")
	}

	if *audit {
		repo, err := git.Open(*dataDir, "mapmymemories", "server@mapmymemories.local")
		if err != nil {
			return fmt.Errorf("failed to open audit repository: %w", err)
		}
		svc.Uploader.Audit = repo
		svc.History = repo
	}

	if *geocode {
		locator, err := geo.NewAutofiller()
		if err != nil {
			slog.WarnContext(ctx, "Reverse geocoding unavailable", "err", err)
		} else {
			svc.Uploader.Locator = locator
		}
	}

	// Open IP geolocation database if configured
	var geoChecker *ipgeo.Checker
	if *geoDB != "" {
		geoChecker, err = ipgeo.Open(*geoDB)
		if err != nil {
			return fmt.Errorf("failed to open geo database: %w", err)
		}
		defer func() { _ = geoChecker.Close() }()
		slog.InfoContext(ctx, "IP geolocation enabled", "db", *geoDB)
	}

	// Watch own executable for modifications (for development restarts)
	if err := watchExecutable(ctx, stop); err != nil {
		return fmt.Errorf("failed to watch executable: %w", err)
	}

	uploadLimiter := ratelimit.NewLimiter(30, time.Minute, 10)
	defer uploadLimiter.Stop()

	buildVersion, _, _, _ := getBuildInfo()
	hcfg := &handlers.Config{Version: buildVersion}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(svc, hcfg, uploadLimiter, geoChecker),
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "Starting server", "addr", addr, "dataDir", *dataDir, "version", buildVersion)
		serverErr <- httpServer.ListenAndServe()
	}()

	// Wait for either context cancellation or server error
	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		// Graceful shutdown
		slog.InfoContext(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		slog.InfoContext(ctx, "Server stopped")
	}
	return nil
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("mapmymemories %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}

// watchExecutable watches the current executable for modifications and calls
// stop to trigger graceful shutdown when detected. This enables seamless
// restarts during development.
func watchExecutable(ctx context.Context, stop context.CancelFunc) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(exe); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) {
					slog.InfoContext(ctx, "Executable modified, initiating shutdown")
					stop()
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching executable", "err", err)
			}
		}
	}()
	return nil
}
