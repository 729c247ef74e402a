// Command migrate creates or updates the database schema and exits.
package main

import (
	"food-marketplace-api/config"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	db, err := config.OpenDB(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	logrus.WithField("driver", cfg.DBDriver).Info("Migration completed.")
}
