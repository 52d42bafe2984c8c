package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS farm_environments (
		farm_id VARCHAR(128) PRIMARY KEY,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		soil_sensor JSONB,
		vegetation JSONB,
		soil_chemistry JSONB,
		weather JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS crop_recommendations (
		farm_id VARCHAR(128) PRIMARY KEY,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		water_availability VARCHAR(16) NOT NULL,
		max_cost_index INTEGER NOT NULL,
		avg_temp DOUBLE PRECISION,
		history JSONB NOT NULL DEFAULT '[]'::jsonb,
		recommendations JSONB NOT NULL DEFAULT '[]'::jsonb,
		generated_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS chat_threads (
		farm_id VARCHAR(128) NOT NULL,
		thread_id VARCHAR(64) NOT NULL,
		model VARCHAR(64),
		messages JSONB NOT NULL DEFAULT '[]'::jsonb,
		last JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (farm_id, thread_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_chat_threads_farm_updated ON chat_threads (farm_id, updated_at DESC);`,
	`CREATE TABLE IF NOT EXISTS yield_history (
		farm_id VARCHAR(128) PRIMARY KEY,
		summary JSONB NOT NULL,
		entries JSONB NOT NULL DEFAULT '[]'::jsonb
	);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
