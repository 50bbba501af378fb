package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/kjstillabower/weather-summarizer/internal/models"
	"github.com/kjstillabower/weather-summarizer/internal/observability"
)

// SQLiteStore keeps the weather_analysis table in a local SQLite file
// (pure Go driver modernc.org/sqlite).
type SQLiteStore struct {
	db     *sql.DB
	table  string
	now    func() time.Time
	logger *zap.Logger
}

// NewSQLite opens (or creates) the database at cfg.SQLitePath and applies the schema.
func NewSQLite(cfg Config, logger *zap.Logger) (*SQLiteStore, error) {
	path := strings.TrimSpace(cfg.SQLitePath)
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", ErrConfiguration)
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	logger = observability.OrNop(logger)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrConfiguration, path, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		logger.Warn("could not set WAL mode", zap.Error(err))
	}

	schema := `CREATE TABLE IF NOT EXISTS ` + table + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		location TEXT NOT NULL,
		country TEXT NOT NULL,
		weather_data TEXT NOT NULL,
		ai_analysis TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: apply schema: %w", ErrConfiguration, err)
	}

	return &SQLiteStore{db: db, table: table, now: clock(cfg.Now), logger: logger}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, reading models.Reading, summary string) error {
	rec, err := NewRecord(reading, summary, s.now())
	if err != nil {
		observability.StoreInsertsTotal.WithLabelValues(BackendSQLite, "error").Inc()
		return fmt.Errorf("%w: %w", ErrStoreWriteFailed, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+s.table+`(timestamp, location, country, weather_data, ai_analysis) VALUES(?,?,?,?,?)`,
		rec.Timestamp, rec.Location, rec.Country, rec.WeatherData, rec.AIAnalysis)
	if err != nil {
		observability.StoreInsertsTotal.WithLabelValues(BackendSQLite, "error").Inc()
		return fmt.Errorf("%w: %w", ErrStoreWriteFailed, err)
	}

	observability.StoreInsertsTotal.WithLabelValues(BackendSQLite, "success").Inc()
	s.logger.Debug("record inserted", zap.String("location", rec.Location), zap.String("timestamp", rec.Timestamp))
	return nil
}

// List returns up to limit records in insertion order. limit <= 0 returns all.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]models.Record, error) {
	q := `SELECT timestamp, location, country, weather_data, ai_analysis FROM ` + s.table + ` ORDER BY id`
	args := []interface{}{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Record, 0)
	for rows.Next() {
		var r models.Record
		if err := rows.Scan(&r.Timestamp, &r.Location, &r.Country, &r.WeatherData, &r.AIAnalysis); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
