package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
)

const routesQuery = `SELECT name, start_coords, end_coords, weekly_volume, COALESCE(maps_link, '')
FROM routes
ORDER BY name`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres reads the routes table. Coordinates are stored as the same free
// text the dashboards were fed and go through the normalizer.
type Postgres struct {
	db   querier
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPostgres(ctx context.Context, dsn string, log *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Postgres{db: pool, pool: pool, log: log}, nil
}

func (p *Postgres) Routes(ctx context.Context) ([]model.RouteRecord, error) {
	rows, err := p.db.Query(ctx, routesQuery)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer rows.Close()

	var raws []Raw
	for rows.Next() {
		var r Raw
		if err := rows.Scan(&r.Name, &r.Start, &r.End, &r.WeeklyVolume, &r.MapsLink); err != nil {
			return nil, fmt.Errorf("scan route row: %w", err)
		}
		raws = append(raws, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routes: %w", err)
	}
	return Normalize("postgres", raws, p.log), nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	if p.pool == nil {
		return nil
	}
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
