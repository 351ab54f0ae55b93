// Command laterr runs the content analysis service.
//
// Usage:
//
//	laterr serve --config laterr.yaml
//	laterr validate --config laterr.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FCMSStudent/laterr-sub000/pkg/ai"
	"github.com/FCMSStudent/laterr-sub000/pkg/config"
	"github.com/FCMSStudent/laterr-sub000/pkg/embedders"
	"github.com/FCMSStudent/laterr-sub000/pkg/extraction"
	"github.com/FCMSStudent/laterr-sub000/pkg/fetch"
	"github.com/FCMSStudent/laterr-sub000/pkg/logger"
	"github.com/FCMSStudent/laterr-sub000/pkg/observability"
	"github.com/FCMSStudent/laterr-sub000/pkg/pipeline"
	"github.com/FCMSStudent/laterr-sub000/pkg/server"
	"github.com/FCMSStudent/laterr-sub000/pkg/ssrf"
	"github.com/FCMSStudent/laterr-sub000/pkg/webmeta"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the analysis server."`
	Validate ValidateCmd `cmd:"" help:"Validate configuration file."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (text or json)." default:"text"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("laterr version %s\n", version)
	return nil
}

// ValidateCmd loads and validates the configuration.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	if cli.Config == "" {
		return fmt.Errorf("--config is required for validate")
	}
	if _, err := config.Load(cli.Config); err != nil {
		return err
	}
	fmt.Printf("%s: configuration is valid\n", cli.Config)
	return nil
}

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Port int `help:"Override the configured listen port."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	config.LoadDotEnv()

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	cleanup, err := setupLogging(cli, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutdown signal received")
		cancel()
	}()

	metrics := observability.NewMetrics()
	srv := server.New(cfg.Server, buildAnalyzer(cfg, metrics), metrics)
	return srv.Start(ctx)
}

// buildAnalyzer wires the pipeline from configuration.
func buildAnalyzer(cfg *config.Config, metrics *observability.Metrics) *pipeline.Analyzer {
	guard := ssrf.NewGuard()
	fetcher := fetch.New(guard, cfg.Fetch)

	var scrape *webmeta.ScrapeClient
	if cfg.Fetch.ScrapeURL != "" {
		scrape = webmeta.NewScrapeClient(cfg.Fetch.ScrapeURL, cfg.Fetch.ScrapeAPIKey,
			time.Duration(cfg.Fetch.PageTimeout)*time.Second)
	}
	web := webmeta.NewService(fetcher, scrape, cfg.Pipeline.MaxTextChars)

	return pipeline.NewAnalyzer(
		guard,
		web,
		fetcher,
		extraction.NewRegistry(extraction.LimitsFromConfig(cfg.Pipeline)),
		ai.NewClient(cfg.AI, ai.WithRetryNotify(func(int) { metrics.AIRetriesTotal.Inc() })),
		embedders.NewClient(cfg.Embedder),
		cfg.Pipeline,
		metrics,
	)
}

func setupLogging(cli *CLI, cfg *config.Config) (func(), error) {
	levelStr := cfg.Logger.Level
	if cli.LogLevel != "" {
		levelStr = cli.LogLevel
	}
	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}

	format := cfg.Logger.Format
	if cli.LogFormat != "" {
		format = cli.LogFormat
	}

	cleanup := func() {}
	var output *os.File = os.Stderr
	logFile := cfg.Logger.File
	if cli.LogFile != "" {
		logFile = cli.LogFile
	}
	if logFile != "" {
		f, closeFn, err := logger.OpenLogFile(logFile)
		if err != nil {
			return nil, err
		}
		output = f
		cleanup = closeFn
	}

	logger.Init(level, output, format)
	return cleanup, nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("laterr"),
		kong.Description("Content ingestion and analysis service."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
