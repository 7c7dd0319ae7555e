package main

import (
	"context"
	"fmt"
	"log"

	"formintake-backend/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg := config.Load()

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()

	tables := []struct {
		name string
		sql  string
	}{
		{
			name: "submissions",
			sql: `
CREATE TABLE IF NOT EXISTS submissions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title TEXT NOT NULL,
    -- set by the ingest flow right after creation
    status VARCHAR(32) NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
		},
		{
			name: "submission_meta",
			sql: `
CREATE TABLE IF NOT EXISTS submission_meta (
    submission_id UUID NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
    meta_key VARCHAR(255) NOT NULL,
    meta_value TEXT NOT NULL,
    PRIMARY KEY (submission_id, meta_key)
);`,
		},
		{
			name: "file_attachments",
			sql: `
CREATE TABLE IF NOT EXISTS file_attachments (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    submission_id UUID NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
    field_name VARCHAR(255) NOT NULL,
    stored_name VARCHAR(255) NOT NULL,
    original_name TEXT NOT NULL,
    mime_type VARCHAR(255) NOT NULL,
    size BIGINT NOT NULL,
    url TEXT NOT NULL,
    thumbnail_url TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT stored_name_unique UNIQUE (submission_id, stored_name)
);`,
		},
	}

	for _, table := range tables {
		if _, err := pool.Exec(ctx, table.sql); err != nil {
			log.Fatalf("Failed to create %s table: %v", table.name, err)
		}
		log.Printf("✓ Created table: %s", table.name)
	}

	indexes := []struct {
		name string
		sql  string
	}{
		{
			name: "Submissions by creation time",
			sql:  "CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at DESC);",
		},
		{
			name: "Submissions by status",
			sql:  "CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);",
		},
		{
			name: "Attachments by submission",
			sql:  "CREATE INDEX IF NOT EXISTS idx_file_attachments_submission ON file_attachments(submission_id, created_at);",
		},
	}

	for _, idx := range indexes {
		_, err = pool.Exec(ctx, idx.sql)
		if err != nil {
			log.Printf("Warning: Failed to create index %s: %v", idx.name, err)
		} else {
			log.Printf("✓ Created index: %s", idx.name)
		}
	}

	fmt.Println("\n✅ Database schema created successfully!")
	fmt.Println("   Tables: submissions, submission_meta, file_attachments")
	fmt.Printf("   Indexes: %d indexes created\n", len(indexes))
}
