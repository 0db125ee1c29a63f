package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/scena/internal/api"
	"github.com/kalambet/scena/internal/assistant"
	"github.com/kalambet/scena/internal/config"
	"github.com/kalambet/scena/internal/dialogue"
	"github.com/kalambet/scena/internal/intent"
	"github.com/kalambet/scena/internal/matching"
	"github.com/kalambet/scena/internal/ollama"
	"github.com/kalambet/scena/internal/session"
	"github.com/kalambet/scena/internal/stage"
	"github.com/kalambet/scena/internal/storage"
	"github.com/kalambet/scena/internal/talent"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scena server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running scena server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scena system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "scena.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func logLevelFor(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseTTL(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("invalid TTL, using default", "value", value, "default", fallback)
		return fallback
	}
	return d
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "scena version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevelFor(cfg.Log.Level),
	})))

	apiToken, err := config.APIToken(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("scena is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("scena is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Build the talent catalog and seed it on first run.
	catalog := talent.NewCatalog(store)
	if n, err := catalog.SeedIfEmpty(); err != nil {
		return fmt.Errorf("seeding talent catalog: %w", err)
	} else if n > 0 {
		slog.Info("first run, seeded starter catalog", "profiles", n)
	}

	// Two-tier session store: volatile memory in front of SQLite, with
	// degrade-to-memory when the durable tier misbehaves.
	durableTTL := parseTTL(cfg.Session.DurableTTL, session.DefaultDurableTTL)
	memoryTTL := parseTTL(cfg.Session.MemoryTTL, session.DefaultDurableTTL)
	mem := session.NewMemoryStore(memoryTTL)
	sessions := session.NewFallbackStore(mem, store, durableTTL)
	go mem.Run(ctx)
	go sessions.Run(ctx)

	// Periodically purge expired sessions from the durable tier.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := store.PurgeExpiredSessions(); err != nil {
					slog.Warn("purging expired sessions failed", "error", err)
				} else if n > 0 {
					slog.Debug("purged expired sessions", "count", n)
				}
			}
		}
	}()

	// Pick rule-based or model-backed extraction and replies. The model path
	// still falls back to the rules on every failure.
	ruleExtractor := intent.NewRuleExtractor(intent.DefaultRuleset())
	templates := dialogue.NewTemplateResponder()
	var extractor intent.Extractor = ruleExtractor
	var responder dialogue.Responder = templates
	if cfg.Ollama.Enabled {
		client := ollama.New(cfg.Ollama.BaseURL)
		if client.IsRunning(ctx) {
			extractor = intent.NewLLMExtractor(client, cfg.Ollama.Model, ruleExtractor)
			responder = dialogue.NewLLMResponder(client, cfg.Ollama.Model, templates)
			slog.Info("using local model", "model", cfg.Ollama.Model, "base_url", cfg.Ollama.BaseURL)
		} else {
			slog.Warn("Ollama enabled but not reachable, using rule-based extraction", "base_url", cfg.Ollama.BaseURL)
		}
	}

	engine := matching.NewEngine()
	stages := stage.NewController(stage.DefaultTokens())
	asst := assistant.New(sessions, stages, extractor, engine, catalog, responder)

	handler := api.NewHandler(api.Deps{
		Assistant: asst,
		Catalog:   catalog,
		Engine:    engine,
		Extractor: extractor,
		Token:     apiToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Build and start MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Assistant: asst,
		Catalog:   catalog,
		Engine:    engine,
		Extractor: extractor,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "scena listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout, then drain pending durable writes.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	sessions.Flush()
	return shutdownErr
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("scena is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop scena (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to scena (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	running := false
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if cfg.Ollama.Enabled {
		ollamaResp, err := client.Get(cfg.Ollama.BaseURL + "/api/version")
		if err != nil {
			printStatus("Ollama", "not running")
		} else {
			ollamaResp.Body.Close()
			printStatus("Ollama", "running at %s", cfg.Ollama.BaseURL)
		}
		printStatus("Model", "%s", cfg.Ollama.Model)
	} else {
		printStatus("Extraction", "rule-based")
	}

	// Show session and catalog counts if the server is up.
	if running {
		if c, err := newAPIClient(); err == nil {
			statsResp, err := c.get(ctx, "/stats")
			if err == nil {
				var stats struct {
					ActiveSessions int    `json:"active_sessions"`
					TotalMessages  int    `json:"total_messages"`
					StorageMode    string `json:"storage_mode"`
				}
				if decodeJSON(statsResp, &stats) == nil {
					printStatus("Sessions", "%d active, %d messages", stats.ActiveSessions, stats.TotalMessages)
					printStatus("Storage mode", "%s", stats.StorageMode)
				}
			}
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
