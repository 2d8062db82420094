package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/biotrack/internal/api"
	"github.com/erazemk/biotrack/internal/auth"
	"github.com/erazemk/biotrack/internal/db"
	"github.com/erazemk/biotrack/internal/logging"
	"github.com/erazemk/biotrack/internal/metrics"
	"github.com/erazemk/biotrack/internal/store"
)

func main() {
	fs := flag.NewFlagSet("shipmentsim", flag.ContinueOnError)

	var dbPath string
	fs.StringVar(&dbPath, "db", "shipmentsim.sqlite3", "")
	fs.StringVar(&dbPath, "d", "shipmentsim.sqlite3", "")

	var addr string
	fs.StringVar(&addr, "addr", ":8080", "")
	fs.StringVar(&addr, "a", ":8080", "")

	var seedPath string
	fs.StringVar(&seedPath, "seed", "", "")
	fs.StringVar(&seedPath, "s", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	var logLevel string
	fs.StringVar(&logLevel, "log-level", "info", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: shipmentsim [flags]

Serves the shipment API from memory, for development and integration tests.

Flags:
  -d, -db <path>          SQLite database holding the token signing key (default: shipmentsim.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -s, -seed <path>        YAML file with locations and specimens (default: built-in sample)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
      -log-level <level>  debug, info, warn or error (default: info)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	logger, closeLog, err := logging.Setup(logging.Config{Level: logLevel, LogPath: logPath, Service: "shipmentsim"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	database, err := db.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// The signing key survives restarts, so issued tokens stay valid.
	jwtSecret, err := store.GetJWTSecret(context.Background(), database)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		os.Exit(1)
	}

	inventory := defaultSeed()
	if seedPath != "" {
		if inventory, err = loadSeed(seedPath); err != nil {
			slog.Error("failed to load seed", "error", err)
			os.Exit(1)
		}
	}

	srv := api.NewServer(logger)
	if err := inventory.apply(srv); err != nil {
		slog.Error("failed to seed server", "error", err)
		os.Exit(1)
	}
	slog.Info("server seeded", "locations", len(inventory.Locations), "specimens", len(inventory.Specimens))

	passwords, err := addUsers(srv)
	if err != nil {
		slog.Error("failed to create users", "error", err)
		os.Exit(1)
	}
	printUsers(passwords)

	m := metrics.New(metrics.DefaultConfig("server"))
	server := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(srv, jwtSecret, logger, m),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// addUsers creates one user per role with a random password.
func addUsers(srv *api.Server) (map[string]string, error) {
	passwords := make(map[string]string)
	for _, role := range []string{auth.RoleCoordinator, auth.RoleViewer} {
		password, err := generatePassword(16)
		if err != nil {
			return nil, fmt.Errorf("generating password: %w", err)
		}
		if err := srv.AddUser(role, password, role); err != nil {
			return nil, fmt.Errorf("creating %s user: %w", role, err)
		}
		passwords[role] = password
	}
	return passwords, nil
}

// printUsers prints the generated credentials to stdout.
func printUsers(passwords map[string]string) {
	fmt.Println("Accounts (valid until restart):")
	for _, role := range []string{auth.RoleCoordinator, auth.RoleViewer} {
		fmt.Printf("  Username: %-12s Password: %s\n", role, passwords[role])
	}
	fmt.Println()
	fmt.Println("Get a token with: biotrack login <username> <password>")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
