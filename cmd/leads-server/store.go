package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"luxury-leads-backend/internal/db"
	"luxury-leads-backend/internal/store"
)

// openStore connects to DB_URL and applies pending migrations.
func openStore() (*store.DatabaseStore, func(), error) {
	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.RunMigrations(); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	closeFn := func() {
		if err := database.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
	return store.NewDatabaseStore(database), closeFn, nil
}
