package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"hotel-bot/config"
	"hotel-bot/internal/models"
)

// ErrNotFound is returned when an update targets a missing history record.
var ErrNotFound = errors.New("db: record not found")

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(cfg config.DBConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnLifetime
	poolConfig.MaxConnIdleTime = 15 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Migrate creates the history table when it does not exist yet.
func (db *PostgresDB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return nil
}

func (db *PostgresDB) CreateHistory(ctx context.Context, rec *models.HistoryRecord) error {
	query := `
        INSERT INTO search_history (user_id, created_at, command, user_request, bot_response)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `

	err := db.pool.QueryRow(ctx, query,
		rec.UserID, rec.CreatedAt, rec.Command, rec.UserRequest, rec.BotResponse,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

func (db *PostgresDB) UpdateHistoryField(ctx context.Context, id int64, field models.HistoryField, value string) error {
	if !field.Valid() {
		return fmt.Errorf("unknown history field %q", field)
	}
	query := fmt.Sprintf(`UPDATE search_history SET %s = $2 WHERE id = $1`, field)

	tag, err := db.pool.Exec(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("failed to update history %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("history %d: %w", id, ErrNotFound)
	}
	return nil
}

func (db *PostgresDB) LatestHistory(ctx context.Context, userID int64, limit int) ([]models.HistoryRecord, error) {
	query := `
        SELECT id, user_id, created_at, command, user_request, bot_response
        FROM search_history
        WHERE user_id = $1
        ORDER BY id DESC
        LIMIT $2
    `

	rows, err := db.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		var rec models.HistoryRecord
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.CreatedAt, &rec.Command,
			&rec.UserRequest, &rec.BotResponse,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return records, nil
}
