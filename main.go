package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/snake/apps/go-server/internal/httpserver"
	"github.com/robalobadob/snake/apps/go-server/internal/sqlite"
	"github.com/robalobadob/snake/apps/go-server/internal/store"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := sqlite.Open(getEnv("DB_PATH", "./data/snake.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	if err := sqlite.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	sessions := store.NewMemoryStore()
	srv := httpserver.New(sessions, db)

	// Stop hosted games before exiting so no tick writes to a closed DB.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("shutting down")
		srv.Close()
		_ = db.Close()
		os.Exit(0)
	}()

	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting snake server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
