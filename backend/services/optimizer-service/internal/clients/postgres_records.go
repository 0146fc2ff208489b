package clients

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"chargeroute/backend/services/optimizer-service/internal/metrics"
	"chargeroute/backend/services/optimizer-service/internal/models"
)

const defaultRecordTimeout = 10 * time.Second

type recordRows interface {
	rowScanner
	Close() error
}

type queryFunc func(ctx context.Context, query string, args ...any) (recordRows, error)

// PostgresRecords reads profile records straight from the database behind the REST API.
type PostgresRecords struct {
	query   queryFunc
	timeout time.Duration
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// NewPostgresRecords returns a record source over db. Each lookup is bounded by timeout,
// 10s when it is not positive.
func NewPostgresRecords(db *sql.DB, timeout time.Duration, rec *metrics.Recorder, logger *zap.Logger) *PostgresRecords {
	return newPostgresRecords(func(ctx context.Context, query string, args ...any) (recordRows, error) {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		return rows, nil
	}, timeout, rec, logger)
}

func newPostgresRecords(query queryFunc, timeout time.Duration, rec *metrics.Recorder, logger *zap.Logger) *PostgresRecords {
	if timeout <= 0 {
		timeout = defaultRecordTimeout
	}
	return &PostgresRecords{
		query:   query,
		timeout: timeout,
		metrics: rec,
		logger:  componentLogger(logger, SourceProfiles),
	}
}

// FetchRecord returns the first row of table whose idColumn equals id as a flat map, or an
// empty record when no row matches.
func (p *PostgresRecords) FetchRecord(ctx context.Context, table, id, idColumn string) (rec models.Record, err error) {
	start := time.Now()
	defer func() { observe(p.metrics, SourceProfiles, start, err) }()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rows, err := p.query(ctx, recordQuery(table, idColumn), id)
	if err != nil {
		p.logger.Warn("record query failed", zap.String("table", table), zap.Error(err))
		return nil, fmt.Errorf("%s: query %s: %w", SourceProfiles, table, err)
	}
	defer rows.Close()

	rec, err = scanRecord(rows)
	if err != nil {
		p.logger.Warn("record scan failed", zap.String("table", table), zap.Error(err))
		return nil, fmt.Errorf("%s: scan %s: %w", SourceProfiles, table, err)
	}
	return rec, nil
}

func recordQuery(table, idColumn string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s = $1 LIMIT 1",
		pgx.Identifier{table}.Sanitize(), pgx.Identifier{idColumn}.Sanitize())
}

type rowScanner interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecord(rows rowScanner) (models.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		return models.Record{}, rows.Err()
	}

	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	rec := make(models.Record, len(cols))
	for i, col := range cols {
		v := values[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		rec[col] = v
	}
	return rec, nil
}
