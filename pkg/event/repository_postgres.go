package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// PostgresRepository stores the schedule in the scheduled_event table, one row
// per event, ordered by position.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Load(ctx context.Context) ([]Event, error) {
	query := `SELECT event_key, name, category, duration_min
			  FROM scheduled_event
			  ORDER BY position`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			key, name, category string
			duration            int
		)
		if err := rows.Scan(&key, &name, &category, &duration); err != nil {
			return nil, fmt.Errorf("could not scan event: %w", err)
		}
		startTime, err := ParseKey(key)
		if err != nil {
			log.Warnf("Skipping event %s: %v", key, err)
			continue
		}
		e, err := NewEvent(name, category, startTime, duration)
		if err != nil {
			log.Warnf("Skipping event %s: %v", key, err)
			continue
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read events: %w", err)
	}
	return events, nil
}

// Save replaces the table contents in a single transaction.
func (r *PostgresRepository) Save(ctx context.Context, events []Event) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM scheduled_event`); err != nil {
		return fmt.Errorf("could not clear events: %w", err)
	}

	rows := make([][]any, 0, len(events))
	for i, e := range events {
		rows = append(rows, []any{i, e.Key(), e.Name, e.Category, e.StartTime, e.Duration})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"scheduled_event"},
		[]string{"position", "event_key", "name", "category", "start_time", "duration_min"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("could not store events: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
