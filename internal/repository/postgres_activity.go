package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"cinelog/internal/model"
)

const activityColumns = `user_id, title_id, media_type, status, rating, review, updated_at`

type postgresActivityRepository struct {
	db *sqlx.DB
}

func NewPostgresActivityRepository(db *sqlx.DB) ActivityRepository {
	return &postgresActivityRepository{db: db}
}

func (r *postgresActivityRepository) Upsert(ctx context.Context, rec *model.ActivityRecord) error {
	query := `
		INSERT INTO user_activity (` + activityColumns + `)
		VALUES (:user_id, :title_id, :media_type, :status, :rating, :review, :updated_at)
		ON CONFLICT (user_id, title_id) DO UPDATE SET
			media_type = EXCLUDED.media_type,
			status     = EXCLUDED.status,
			rating     = EXCLUDED.rating,
			review     = EXCLUDED.review,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("failed to upsert activity: %w", err)
	}
	return nil
}

func (r *postgresActivityRepository) Get(ctx context.Context, userID string, titleID int64) (*model.ActivityRecord, error) {
	query := `SELECT ` + activityColumns + ` FROM user_activity WHERE user_id = $1 AND title_id = $2`

	var rec model.ActivityRecord
	if err := r.db.GetContext(ctx, &rec, query, userID, titleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return &rec, nil
}

func (r *postgresActivityRepository) Delete(ctx context.Context, userID string, titleID int64) error {
	query := `DELETE FROM user_activity WHERE user_id = $1 AND title_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, titleID); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil
}

func (r *postgresActivityRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM user_activity
		WHERE user_id = $1
		ORDER BY updated_at DESC, title_id DESC
		LIMIT $2
	`
	return r.list(ctx, query, userID, nullableLimit(limit))
}

func (r *postgresActivityRepository) ListWatchedMovies(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM user_activity
		WHERE user_id = $1 AND media_type = 'movie' AND status = 'watched'
		ORDER BY updated_at DESC, title_id DESC
		LIMIT $2
	`
	return r.list(ctx, query, userID, nullableLimit(limit))
}

func (r *postgresActivityRepository) ListByUser(ctx context.Context, userID string) ([]model.ActivityRecord, error) {
	return r.ListRecentByUser(ctx, userID, 0)
}

func (r *postgresActivityRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.ActivityRecord, error) {
	records := []model.ActivityRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return records, nil
}

// nullableLimit maps "no cap" to NULL, which Postgres treats as LIMIT ALL.
func nullableLimit(limit int) sql.NullInt64 {
	if limit <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(limit), Valid: true}
}

const activityChannel = "user_activity"

type postgresActivityWatcher struct {
	dsn string
}

// NewPostgresActivityWatcher listens for the pg_notify calls issued by the
// user_activity trigger.
func NewPostgresActivityWatcher(dsn string) ActivityWatcher {
	return &postgresActivityWatcher{dsn: dsn}
}

func (w *postgresActivityWatcher) WatchActivity(ctx context.Context, onChange func(userID string)) error {
	listener := pq.NewListener(w.dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("[ActivityWatcher] Listener event=%d err=%v", ev, err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(activityChannel); err != nil {
		return fmt.Errorf("listen %s: %w", activityChannel, err)
	}
	log.Printf("[ActivityWatcher] Listening on channel %s", activityChannel)

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect; changes during the gap are lost.
			if n != nil && n.Extra != "" {
				onChange(n.Extra)
			}
		case <-ping.C:
			if err := listener.Ping(); err != nil {
				log.Printf("[ActivityWatcher] Ping FAILED: %v", err)
			}
		}
	}
}
