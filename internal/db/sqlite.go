package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"hotel-bot/internal/models"
)

// SQLiteDB stores history in a single local file.
type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping sqlite %s: %w", path, err)
	}
	return &SQLiteDB{db: conn}, nil
}

func (s *SQLiteDB) Close() {
	_ = s.db.Close()
}

func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return nil
}

func (s *SQLiteDB) CreateHistory(ctx context.Context, rec *models.HistoryRecord) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO search_history (user_id, created_at, command, user_request, bot_response)
         VALUES (?, ?, ?, ?, ?)`,
		rec.UserID, rec.CreatedAt.UnixMilli(), rec.Command, rec.UserRequest, rec.BotResponse,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read history id: %w", err)
	}
	return nil
}

func (s *SQLiteDB) UpdateHistoryField(ctx context.Context, id int64, field models.HistoryField, value string) error {
	if !field.Valid() {
		return fmt.Errorf("unknown history field %q", field)
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE search_history SET %s = ? WHERE id = ?`, field), value, id)
	if err != nil {
		return fmt.Errorf("failed to update history %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("history %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteDB) LatestHistory(ctx context.Context, userID int64, limit int) ([]models.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, created_at, command, user_request, bot_response
         FROM search_history
         WHERE user_id = ?
         ORDER BY id DESC
         LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		var (
			rec     models.HistoryRecord
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &created, &rec.Command, &rec.UserRequest, &rec.BotResponse); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(created).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return records, nil
}
