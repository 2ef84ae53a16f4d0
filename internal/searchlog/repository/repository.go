package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const insertQuery = `
	INSERT INTO search_logs (
		user_id, postcode, place, address, fraction, postcode_prefix3,
		fraction_codes, results_count, lat, lon
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

const totalsQuery = `
	SELECT COUNT(*), COUNT(*) FILTER (WHERE results_count = 0)
	FROM search_logs
	WHERE created_at >= $1
`

// topQuery groups by a column that is only ever one of the constants below.
const topQuery = `
	SELECT COALESCE(%s, ''), COUNT(*)
	FROM search_logs
	WHERE created_at >= $1
	GROUP BY 1
	ORDER BY 2 DESC, 1
	LIMIT $2
`

// Grouping columns for Top.
const (
	ByFraction = "fraction"
	ByPrefix   = "postcode_prefix3"
)

// Querier is the subset of pgxpool.Pool the repository uses.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db Querier
}

func New(db Querier) *Repository {
	return &Repository{db: db}
}

// Entry is one row of search_logs.
type Entry struct {
	UserID       *uuid.UUID
	Postcode     string
	Place        string
	Address      string
	Fraction     string
	Prefix3      string
	Codes        []string
	ResultsCount int
	Lat          *float64
	Lon          *float64
}

// Bucket is one group of a Top query.
type Bucket struct {
	Key   string
	Count int64
}

func (r *Repository) Insert(ctx context.Context, e Entry) error {
	codes := e.Codes
	if codes == nil {
		codes = []string{}
	}
	_, err := r.db.Exec(ctx, insertQuery,
		e.UserID,
		nullable(e.Postcode),
		nullable(e.Place),
		nullable(e.Address),
		nullable(e.Fraction),
		nullable(e.Prefix3),
		codes,
		e.ResultsCount,
		e.Lat,
		e.Lon,
	)
	return err
}

// Totals counts searches since the given time and how many found nothing.
func (r *Repository) Totals(ctx context.Context, since time.Time) (total, empty int64, err error) {
	err = r.db.QueryRow(ctx, totalsQuery, since).Scan(&total, &empty)
	return total, empty, err
}

// Top returns the most searched values of column since the given time.
func (r *Repository) Top(ctx context.Context, column string, since time.Time, limit int) ([]Bucket, error) {
	rows, err := r.db.Query(ctx, topSQL(column), since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make([]Bucket, 0, limit)
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func topSQL(column string) string {
	if column != ByPrefix {
		column = ByFraction
	}
	return fmt.Sprintf(topQuery, column)
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
