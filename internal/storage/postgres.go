package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/lib/pq"
	"github.com/xaenox/memo-bridge/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(ctx context.Context, config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.ConnString())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}
	if err := storage.initializeSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	logger.Info("Connected to PostgreSQL", zap.String("host", config.Host), zap.String("dbname", config.DBName))
	return storage, nil
}

func (s *PostgresStorage) initializeSchema(ctx context.Context) error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (s *PostgresStorage) SaveExchange(ctx context.Context, ex *models.Exchange) error {
	query := `
		INSERT INTO exchanges (id, prompt, reply, category, tags, record_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	tags := ex.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := s.db.ExecContext(ctx, query,
		ex.ID,
		ex.Prompt,
		ex.Reply,
		ex.Category,
		pq.Array(tags),
		ex.RecordID,
		ex.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving exchange: %w", err)
	}
	return nil
}

func (s *PostgresStorage) RecentExchanges(ctx context.Context, limit, offset int) ([]*models.Exchange, error) {
	if err := checkPage(limit, offset); err != nil {
		return nil, err
	}

	query := `
		SELECT id, prompt, reply, category, tags, record_id, created_at
		FROM exchanges
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error querying exchanges: %w", err)
	}
	defer rows.Close()

	exchanges := []*models.Exchange{}
	for rows.Next() {
		ex := &models.Exchange{}
		err := rows.Scan(
			&ex.ID,
			&ex.Prompt,
			&ex.Reply,
			&ex.Category,
			pq.Array(&ex.Tags),
			&ex.RecordID,
			&ex.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning exchange: %w", err)
		}
		exchanges = append(exchanges, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchanges: %w", err)
	}

	return exchanges, nil
}

func (s *PostgresStorage) Categories(ctx context.Context) ([]string, error) {
	query := `
		SELECT category
		FROM exchanges
		GROUP BY category
		ORDER BY MIN(created_at)`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("error scanning category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
