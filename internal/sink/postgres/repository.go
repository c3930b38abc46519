package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/Sh00ty/port-prober/internal/models"
	"github.com/Sh00ty/port-prober/internal/pgerror"
	"github.com/Sh00ty/port-prober/pkg/probe"
)

const (
	resultsTable = "probe_results"

	// rows per insert statement, keeps the parameter count far below the protocol limit
	insertChunk = 500
)

const schema = `
create table if not exists probe_results (
	run_id      text        not null,
	position    integer     not null,
	node        text        not null default '',
	host        text        not null,
	port        integer     not null constraint probe_results_port_check check (port between 1 and 65535),
	outcome     text        not null,
	elapsed_ms  double precision not null,
	error       text        not null default '',
	checked_at  timestamptz not null,
	primary key (run_id, position)
);
`

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepo(ctx context.Context, user, password, addr string, port uint16) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(
		fmt.Sprintf(
			"user=%s password=%s host=%s port=%d dbname=postgres sslmode=disable pool_max_conns=5",
			user, password, addr, port,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	return &Repository{
		db: pool,
	}, nil
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create %s table: %w", resultsTable, err)
	}
	return nil
}

func (r *Repository) Name() string {
	return "postgres"
}

// Send stores results of one run. Rows that are already stored are skipped,
// so resending a partially stored run is safe.
func (r *Repository) Send(ctx context.Context, info models.RunInfo, results []probe.Result, offset int) (int, error) {
	done := 0
	for start := 0; start < len(results); start += insertChunk {
		end := min(start+insertChunk, len(results))
		sql, args, err := buildInsert(info, offset+start, results[start:end])
		if err != nil {
			return done, fmt.Errorf("failed to build insert: %w", err)
		}
		_, err = r.db.Exec(ctx, sql, args...)
		if err != nil {
			return done, fmt.Errorf("failed to store results of run %s: %w", info.ID, pgerror.Map(err))
		}
		done = end
		log.Debug().Msgf("stored %d/%d results of run %s", done, len(results), info.ID)
	}
	return done, nil
}

func buildInsert(info models.RunInfo, offset int, results []probe.Result) (string, []any, error) {
	q := psql.Insert(resultsTable).
		Columns("run_id", "position", "node", "host", "port", "outcome", "elapsed_ms", "error", "checked_at").
		Suffix("on conflict (run_id, position) do nothing")
	for i, res := range results {
		rec := models.NewResultRecord(info, offset+i, res)
		q = q.Values(
			string(rec.RunID),
			rec.Position,
			rec.Node,
			rec.Host,
			rec.Port,
			rec.Outcome.String(),
			rec.ElapsedMs,
			rec.Error,
			rec.CheckedAt,
		)
	}
	return q.ToSql()
}

func (r *Repository) Close() {
	r.db.Close()
}
