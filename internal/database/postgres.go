package database

import (
	"database/sql"
	"fmt"

	"tap-race-backend/internal/kafka"

	_ "github.com/lib/pq"
)

// PostgresDB persists aggregated analytics snapshots. The game core itself
// keeps no persistent state; only the analytics consumer writes here.
type PostgresDB struct {
	db *sql.DB
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pgDB := &PostgresDB{db: db}
	if err := pgDB.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pgDB, nil
}

func (p *PostgresDB) Close() error {
	return p.db.Close()
}

func (p *PostgresDB) HealthCheck() error {
	return p.db.Ping()
}

func (p *PostgresDB) createTables() error {
	query := `CREATE TABLE IF NOT EXISTS analytics_snapshots (
		consumer_group VARCHAR(255) PRIMARY KEY,
		queue_joins BIGINT NOT NULL,
		queue_leaves BIGINT NOT NULL,
		matches_created BIGINT NOT NULL,
		matches_started BIGINT NOT NULL,
		matches_finished BIGINT NOT NULL,
		taps_rejected_skew BIGINT NOT NULL,
		taps_rejected_rate BIGINT NOT NULL,
		disconnects BIGINT NOT NULL,
		average_duration_ms BIGINT NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`

	if _, err := p.db.Exec(query); err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	return nil
}

// SaveSnapshot upserts the latest aggregate counters for one consumer group.
func (p *PostgresDB) SaveSnapshot(group string, snapshot kafka.AggregateSnapshot) error {
	query := `
		INSERT INTO analytics_snapshots (
			consumer_group, queue_joins, queue_leaves, matches_created,
			matches_started, matches_finished, taps_rejected_skew,
			taps_rejected_rate, disconnects, average_duration_ms, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (consumer_group) DO UPDATE SET
			queue_joins = EXCLUDED.queue_joins,
			queue_leaves = EXCLUDED.queue_leaves,
			matches_created = EXCLUDED.matches_created,
			matches_started = EXCLUDED.matches_started,
			matches_finished = EXCLUDED.matches_finished,
			taps_rejected_skew = EXCLUDED.taps_rejected_skew,
			taps_rejected_rate = EXCLUDED.taps_rejected_rate,
			disconnects = EXCLUDED.disconnects,
			average_duration_ms = EXCLUDED.average_duration_ms,
			updated_at = NOW()
	`

	skew := snapshot.TapsRejected["clock_skew"]
	rate := snapshot.TapsRejected["rate_limited"]

	_, err := p.db.Exec(query,
		group,
		snapshot.QueueJoins,
		snapshot.QueueLeaves,
		snapshot.MatchesCreated,
		snapshot.MatchesStarted,
		snapshot.MatchesFinished,
		skew,
		rate,
		snapshot.Disconnects,
		snapshot.AverageDurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
