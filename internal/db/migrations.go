package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`CREATE TABLE IF NOT EXISTS proposals (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		version INTEGER NOT NULL DEFAULT 1 CHECK (version >= 1),
		author TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		content_type VARCHAR(32) NOT NULL DEFAULT 'proposal',
		view_token TEXT NOT NULL,
		share_expires_at TIMESTAMPTZ,
		cover JSONB,
		letter JSONB,
		about JSONB,
		how_we_work JSONB,
		solutions JSONB,
		markets JSONB,
		clients JSONB,
		team JSONB,
		proposal JSONB,
		value JSONB,
		contact JSONB,
		shapes JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'proposals' AND column_name = 'share_expires_at') THEN
			ALTER TABLE proposals ADD COLUMN share_expires_at TIMESTAMPTZ;
		END IF;
		IF NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'proposals' AND column_name = 'shapes') THEN
			ALTER TABLE proposals ADD COLUMN shapes JSONB;
		END IF;
	END
	$$;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_proposals_view_token ON proposals (view_token);`,
	`CREATE INDEX IF NOT EXISTS idx_proposals_active ON proposals (content_type, is_active, updated_at DESC);`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'member_role') THEN
			CREATE TYPE member_role AS ENUM ('admin', 'team_member');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'member_status') THEN
			CREATE TYPE member_status AS ENUM ('pending', 'active');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT NOT NULL,
		name TEXT,
		role member_role NOT NULL,
		status member_status NOT NULL DEFAULT 'pending',
		password_hash TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_profiles_email ON profiles (email);`,
	`CREATE TABLE IF NOT EXISTS team_members (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID REFERENCES profiles(id) ON DELETE SET NULL,
		email TEXT NOT NULL,
		name TEXT,
		role member_role NOT NULL,
		status member_status NOT NULL DEFAULT 'pending',
		bio TEXT,
		image TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_team_members_user_id ON team_members (user_id) WHERE user_id IS NOT NULL;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
