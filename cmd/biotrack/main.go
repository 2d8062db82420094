package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/biotrack/internal/cache"
	"github.com/erazemk/biotrack/internal/client"
	"github.com/erazemk/biotrack/internal/config"
	"github.com/erazemk/biotrack/internal/db"
	"github.com/erazemk/biotrack/internal/logging"
	"github.com/erazemk/biotrack/internal/metrics"
	"github.com/erazemk/biotrack/internal/service"
	"github.com/erazemk/biotrack/internal/store"
)

const usage = `Usage: biotrack [flags] <command> [args]

Commands:
  login <username> <password>                    print a bearer token
  get <id>                                       show a shipment
  search [-filter f] [-sort s] [-page n] [-limit n]
  add <courier> <tracking> <fromLocationId> <toLocationId>
  set <id> <attribute> <value>                   courierName, trackingNumber, fromLocation, toLocation
  state <id> <transition> [time] [skipTime]      times are RFC 3339, default now
  back-to <id> <state>                           created, packed, sent, received or unpacked
  remove <id>
  can-add <inventoryId>
  add-specimens [-container id] <id> <inventoryId>...
  tag <id> <present|received|missing|extra> <inventoryId>...
  specimens [-filter f] [-sort s] [-page n] [-limit n] <id>
  remove-specimen <id> <inventoryId>
  cached                                         list shipments in the local cache

Flags:
  -c, -config <path>      YAML config file
  -api <url>              API base URL (env BIOTRACK_API_URL)
  -token <token>          bearer token (env BIOTRACK_TOKEN)
  -timeout <duration>     request timeout (env BIOTRACK_TIMEOUT)
  -cache <path>           SQLite cache snapshot (env BIOTRACK_CACHE_DB)
  -log-level <level>      debug, info, warn or error (env BIOTRACK_LOG_LEVEL)
  -l, -log <path>         log file path
  -h, -help               show this help and exit
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("biotrack", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")

	var apiURL, token, cachePath, logLevel, logPath string
	var timeout time.Duration
	fs.StringVar(&apiURL, "api", "", "")
	fs.StringVar(&token, "token", "", "")
	fs.DurationVar(&timeout, "timeout", 0, "")
	fs.StringVar(&cachePath, "cache", "", "")
	fs.StringVar(&logLevel, "log-level", "", "")
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() { fmt.Fprint(os.Stdout, usage) }

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "api":
			cfg.APIURL = apiURL
		case "token":
			cfg.Token = token
		case "timeout":
			cfg.Timeout = timeout
		case "cache":
			cfg.CacheDB = cachePath
		case "log-level":
			cfg.LogLevel = logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	logger, closeLog, err := logging.Setup(logging.Config{Level: cfg.LogLevel, LogPath: logPath, Stdout: os.Stderr})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(metrics.DefaultConfig("client"))
	opts := []cache.Option{cache.WithLogger(logger), cache.WithMetrics(m)}
	if cfg.CacheDB != "" {
		database, err := db.Open(cfg.CacheDB)
		if err != nil {
			slog.Error("failed to open cache database", "error", err)
			return 1
		}
		defer database.Close()
		if err := db.Migrate(database); err != nil {
			slog.Error("failed to migrate cache database", "error", err)
			return 1
		}
		opts = append(opts, cache.WithPersister(store.NewSnapshot(database)))
	}
	c := cache.New(opts...)
	if n, err := c.Restore(ctx); err != nil {
		slog.Warn("failed to restore cache", "error", err)
	} else if n > 0 {
		slog.Debug("cache restored", "shipments", n)
	}

	cl := client.New(
		client.Config{BaseURL: cfg.APIURL, Token: cfg.Token, Timeout: cfg.Timeout},
		client.WithLogger(logger),
		client.WithMetrics(m),
		client.WithBreaker(&cfg.Breaker),
	)
	a := &app{svc: service.New(cl, c, logger), client: cl, out: os.Stdout}

	if err := a.dispatch(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		if f, ok := c.Failure(); ok {
			slog.Error("request failed", "action", f.Action, "error", f.Err)
			c.ClearFailure()
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		return 1
	}
	return 0
}
