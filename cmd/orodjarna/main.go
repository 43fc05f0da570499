package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/erazemk/orodjarna/internal/api"
	"github.com/erazemk/orodjarna/internal/auth"
	"github.com/erazemk/orodjarna/internal/config"
	"github.com/erazemk/orodjarna/internal/db"
	"github.com/erazemk/orodjarna/internal/pictures"
	"github.com/erazemk/orodjarna/internal/store"
)

func main() {
	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = cmdServe(args)
	case "init":
		err = cmdInit(args)
	case "hash-secret":
		err = cmdHashSecret()
	default:
		err = fmt.Errorf("unknown command: %s", cmd)
	}

	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func cmdInit(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	return initialize(cfg)
}

func cmdHashSecret() error {
	fmt.Fprint(os.Stderr, "Secret: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("reading secret: %w", err)
	}

	hash, err := auth.HashSecret(strings.TrimSpace(line))
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func cmdServe(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	// Optionally also write to a log file.
	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		return err
	}
	defer closeLog()

	// First run: create the database and the secret file.
	if missing(cfg.DBPath) || missing(cfg.SecretFile) {
		if err := initialize(cfg); err != nil {
			return err
		}
		fmt.Println()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	// Apply schema and indexes (idempotent).
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	secret, err := auth.LoadSharedSecret(cfg.SecretFile)
	if err != nil {
		return err
	}

	// Device tokens are signed with a key generated on first run.
	tokenKey, err := store.GetTokenSecret(context.Background(), database)
	if err != nil {
		return err
	}

	pics, err := openPictures(cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr: cfg.Addr,
		Handler: api.NewRouter(api.Options{
			DB:       database,
			Pictures: pics,
			Secret:   secret,
			TokenKey: tokenKey,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return run(server, cfg)
}

// run serves until SIGINT or SIGTERM, then shuts down gracefully.
func run(server *http.Server, cfg *config.Config) error {
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

	slog.Info("server started", "addr", cfg.Addr, "tls", cfg.UseTLS())

	var err error
	if cfg.UseTLS() {
		err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database", "path", cfg.DBPath)
	return nil
}

func openPictures(cfg *config.Config) (pictures.Store, error) {
	if cfg.UseMinio() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		b, err := pictures.NewBucket(ctx, cfg.Minio)
		if err != nil {
			return nil, err
		}
		slog.Info("pictures stored in minio", "endpoint", cfg.Minio.Endpoint, "bucket", cfg.Minio.Bucket)
		return b, nil
	}

	d, err := pictures.NewDir(cfg.PictureDir)
	if err != nil {
		return nil, err
	}
	slog.Info("pictures stored on disk", "dir", cfg.PictureDir)
	return d, nil
}

// initialize creates the database schema and, if it does not exist yet, a
// shared secret file with a random secret.
func initialize(cfg *config.Config) error {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	fmt.Printf("Database ready: %s\n", cfg.DBPath)

	if !missing(cfg.SecretFile) {
		fmt.Printf("Keeping existing secret file: %s\n", cfg.SecretFile)
		return nil
	}

	secret, err := generateSecret(24)
	if err != nil {
		return fmt.Errorf("generating secret: %w", err)
	}
	if err := os.WriteFile(cfg.SecretFile, []byte(secret+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing secret file: %w", err)
	}

	printInitResult(cfg.SecretFile, secret)
	return nil
}

func missing(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, os.ErrNotExist)
}

// printInitResult prints the generated shared secret to stdout.
func printInitResult(path, secret string) {
	fmt.Printf("Secret file created: %s\n", path)
	fmt.Println()
	fmt.Println("Configure the scanner app with this secret:")
	fmt.Printf("  %s\n", secret)
	fmt.Println()
	fmt.Println("To keep only a hash on disk, run `orodjarna hash-secret`")
	fmt.Println("and replace the file contents with its output.")
}

// generateSecret creates a random secret of the given length.
func generateSecret(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
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
