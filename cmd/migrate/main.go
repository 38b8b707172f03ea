package main

import (
	"context"
	"time"

	mongoMigration "expertconnect/internal/migrations/mongo"
	slotsrepo "expertconnect/internal/slots/repository"
	"expertconnect/pkg/config"
)

const JobName = "migrate"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()
	cfg := config.Load(JobName)
	defer cfg.GracefulShutdown()

	if cfg.NeedsMongo() {
		cfg.SetMongo()
		cfg.Log.Info("Starting Mongo migration job")
		db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
		if err := mongoMigration.RunMigration(ctx, db, cfg.Log); err != nil {
			cfg.Log.Fatal("Mongo migration failed", "error", err)
		}
	}

	if cfg.SlotStoreBackend == config.BackendPostgres {
		cfg.SetPostgres()
		cfg.Log.Info("Starting Postgres migration job")
		if err := slotsrepo.EnsurePostgresSchema(ctx, cfg.Client.Postgres); err != nil {
			cfg.Log.Fatal("Postgres migration failed", "error", err)
		}
	}

	cfg.Log.Info("Migration completed successfully")
}
