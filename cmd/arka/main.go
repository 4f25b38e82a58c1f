// Package main is the Arka CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/arka/internal/app"
	"github.com/hyperjump/arka/internal/cli"
	"github.com/hyperjump/arka/internal/config"
	"github.com/hyperjump/arka/internal/indexer"
	"github.com/hyperjump/arka/internal/models"
	"github.com/hyperjump/arka/internal/server"
	"github.com/hyperjump/arka/internal/vector"
	"github.com/hyperjump/arka/internal/watcher"
	"github.com/hyperjump/arka/pkg/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/arka/config.yaml"
	defaultServerURL  = "http://localhost:5000"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory is preferred if present; when neither exists the built-in
// defaults are used. Returns the config and the path that was actually loaded
// ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "ask":
		runAsk()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("arka version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config and creates the logger shared by every command.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	cfg.Debug = debugMode
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	if resolved == "" {
		resolved = "(built-in defaults)"
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	components, err := app.Init(context.Background(), cfg, logger, app.Options{})
	if err != nil {
		if errors.Is(err, vector.ErrCollectionNotFound) {
			logger.Error("collection not found; run 'arka ingest' first", zap.String("collection", cfg.Storage.Collection))
		}
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Chat, components, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	rebuild := fs.Bool("rebuild", false, "delete the collection before storing new chunks")
	watch := fs.Bool("watch", false, "keep running and rebuild when the source directory changes")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if fs.NArg() > 0 {
		cfg.Source.Directory = fs.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Init(ctx, cfg, logger, app.Options{
		CreateCollection: true,
		SkipGeneration:   true,
		Rebuild:          *rebuild || *watch,
	})
	if err != nil {
		logger.Fatal("Failed to initialize ingestion", zap.Error(err))
	}
	defer components.Close()

	ingest := func(ctx context.Context) bool {
		report, err := components.Pipeline.Run(ctx, cfg.Source.Directory)
		if err != nil {
			if errors.Is(err, indexer.ErrNoDocuments) {
				fmt.Fprintf(os.Stderr, "No documents found in %s\n", cfg.Source.Directory)
			} else {
				fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
			}
			return false
		}
		if err := cli.WriteIngestReport(os.Stdout, report, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		}
		return true
	}

	ok := ingest(ctx)
	if !*watch {
		if !ok {
			components.Close()
			os.Exit(1)
		}
		return
	}

	var watchOpts []watcher.WatcherOption
	if cfg.Debug {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	w := watcher.NewWatcher(cfg.Source.Directory, cfg.Source.Extensions,
		func(ctx context.Context) { ingest(ctx) },
		watchOpts...,
	)
	if err := w.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	logger.Info("watching source directory", zap.String("dir", w.Root()))
	<-ctx.Done()
	w.Stop()
}

// reorderArgs moves any flags (and their values) that appear after the
// positional arguments to the front so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: arka ask [flags] <question>\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  arka ask Berapa tarif jasa dermaga?
  arka ask --server "" "Jam operasional terminal?"   # answer without a running server
  arka ask --output json "Apa layanan Pelindo?"
`)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used when --server is empty)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = answer directly without a server)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	question := buildQuestion(fs.Args())
	if question == "" {
		printAskUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var resp *models.ChatResponse
	if *serverURL != "" {
		resp, err = askViaHTTP(*serverURL, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, logger := setup(*configPath, false)
		defer logger.Sync()
		components, err := app.Init(context.Background(), cfg, logger, app.Options{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		turn, err := components.Chat.Answer(context.Background(), question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		resp = &models.ChatResponse{Response: turn.GeneratedAnswer}
	}
	if err := cli.WriteAnswer(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL, question string) (*models.ChatResponse, error) {
	body, err := json.Marshal(models.ChatRequest{Message: question})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp)
	}
	var out models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// serverError turns a non-200 response into an error, preferring the JSON error message.
func serverError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used when --server is empty)")
	serverURL := fs.String("server", "", "server URL (empty = read the local collection and ledger)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var st *models.Status
	if *serverURL != "" {
		st, err = statusViaHTTP(*serverURL)
	} else {
		cfg, logger := setup(*configPath, false)
		defer logger.Sync()
		st, err = app.OpenStatus(context.Background(), cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*models.Status, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp)
	}
	var st models.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &st, nil
}

func printUsage() {
	fmt.Println(`arka - Pelindo document assistant (retrieval-augmented answers over PDFs)

Usage:
  arka server [flags]            Start the HTTP server (POST /chat)
  arka ingest [flags] [dir]      Extract, chunk, embed and store source documents
  arka ask [flags] <question>    Ask a question
  arka status [flags]            Show collection and ingestion status
  arka version                   Show version
  arka help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/arka/config.yaml, or ./config.yaml)
  --debug            Enable debug logging

Ingest Flags:
  --config string    Config file path
  --rebuild          Delete the collection before storing new chunks
  --watch            Keep running and rebuild when the source directory changes
  --output string    Output format: text or json (default: text)

Ask Flags:
  --server string    Server URL (default: http://localhost:5000). Use --server "" to answer without a server.
  --output string    Output format: text or json (default: text)

Status Flags:
  --server string    Server URL. Empty (default) reads the local collection and ledger.
  --output string    Output format: text or json (default: text)

Environment:
  GEMINI_API_KEY     Gemini API key (also read from .env)
  ARKA_SOURCE_DIR    Source document directory
  ARKA_VECTOR_PATH   Vector store directory

Examples:
  arka ingest --rebuild dokumen_sumber
  arka server
  arka ask "Berapa tarif jasa dermaga?"
  arka status --output json`)
}
