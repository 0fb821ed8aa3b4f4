package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/danielhkuo/livesurvey/cliparse"
	"github.com/danielhkuo/livesurvey/db"
	"github.com/danielhkuo/livesurvey/router"
	"github.com/danielhkuo/livesurvey/session"
	"github.com/danielhkuo/livesurvey/store"
)

func main() {
	var err error

	// Variables from .env fill whatever the environment leaves unset
	if err := cliparse.LoadEnvFile(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	st, err := openStore(context.Background(), cfg)
	if err != nil {
		slog.Error("store setup failed", "store", cfg.StoreType, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionLifetime)
	handler := router.NewRouter(st, sessions, cfg)

	// Create server
	server := http.Server{
		Handler: handler,
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "store", cfg.StoreType)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// openStore connects the configured backend. SQL stores get their schema
// and the default question on first start.
func openStore(ctx context.Context, cfg cliparse.Config) (store.Store, error) {
	switch cfg.StoreType {
	case cliparse.StoreFile:
		st, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		slog.Info("Using file store", "dir", cfg.DataDir)
		return st, nil

	case cliparse.StoreSQLite, cliparse.StorePostgres:
		dialect := db.SQLite
		if cfg.StoreType == cliparse.StorePostgres {
			dialect = db.Postgres
		}

		conn, err := db.Open(dialect, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.CreateSchema(conn, dialect); err != nil {
			conn.Close()
			return nil, err
		}
		slog.Info("Database schema ready", "dialect", dialect)

		st := store.NewSQLStore(conn, dialect)
		if err := st.Seed(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown store type %q", cfg.StoreType)
}
