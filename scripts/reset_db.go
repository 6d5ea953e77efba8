package main

import (
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/mandatedisrael/zenfi/internal/logger"
	"github.com/mandatedisrael/zenfi/internal/state"
)

// Drops the journal tables and recreates them empty. Destructive; refuses
// to run without the -yes flag.
func main() {
	yes := flag.Bool("yes", false, "confirm dropping all journal tables")
	flag.Parse()

	logger.Initialize(envOr("LOG_LEVEL", "info"))

	if !*yes {
		log.Fatal().Msg("This drops harvest_snapshots and operation_receipts. Re-run with -yes to confirm.")
	}

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found. Relying on OS environment variables.")
	}

	if os.Getenv("DB_USER") == "" || os.Getenv("DB_NAME") == "" {
		log.Fatal().Msg("DB_USER and DB_NAME must be set.")
	}

	cfg := state.DBConfig{
		Host:     envOr("DB_HOST", "localhost"),
		Port:     envOrInt("DB_PORT", 5432),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  envOr("DB_SSLMODE", "disable"),
	}

	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Str("dbname", cfg.DBName).Msg("Connecting to database")
	if err := state.InitDB(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer state.CloseDB()

	if _, err := state.DB.Exec(`
		DROP TABLE IF EXISTS harvest_snapshots CASCADE;
		DROP TABLE IF EXISTS operation_receipts CASCADE;
	`); err != nil {
		log.Fatal().Err(err).Msg("Failed to drop journal tables")
	}
	log.Info().Msg("Dropped journal tables")

	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to recreate schema")
	}
	log.Info().Msg("Database reset complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
