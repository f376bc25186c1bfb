// Package postgres is the recency store on PostgreSQL, shared by deckd replicas.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	xe "github.com/opst/pipedeck/pkg/errors"
	"github.com/opst/pipedeck/pkg/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS "history_entry" (
	"id" text PRIMARY KEY,
	"type" text NOT NULL,
	"application" text NOT NULL DEFAULT '',
	"params" jsonb NOT NULL DEFAULT '{}',
	"accessed_at" timestamp with time zone NOT NULL
);
CREATE INDEX IF NOT EXISTS "history_entry_type_accessed_at"
	ON "history_entry" ("type", "accessed_at" DESC);
CREATE INDEX IF NOT EXISTS "history_entry_application"
	ON "history_entry" ("application");
`

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ history.Store = &Store{}

// New connects to PostgreSQL at uri.
//
// It does not create tables. Call Migrate for that.
func New(ctx context.Context, uri string) (*Store, error) {
	pool, err := pgxpool.Connect(ctx, uri)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	return &Store{pool: pool, now: time.Now}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates tables and indices, if not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return xe.Wrap(err)
}

func (s *Store) AddEntry(ctx context.Context, e history.Entry) (history.Entry, error) {
	e, err := history.Normalize(e, s.now())
	if err != nil {
		return e, err
	}
	params := e.Params
	if params == nil {
		params = map[string]string{}
	}
	jparams, err := json.Marshal(params)
	if err != nil {
		return e, err
	}

	err = s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(
			ctx,
			`DELETE FROM "history_entry" WHERE "type" = $1 AND "params" = $2::jsonb`,
			e.Type, string(jparams),
		); err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx,
			`
			INSERT INTO "history_entry" ("id", "type", "application", "params", "accessed_at")
			VALUES ($1, $2, $3, $4::jsonb, $5)
			`,
			e.Id, e.Type, e.Application, string(jparams), e.AccessedAt,
		); err != nil {
			return err
		}
		_, err := tx.Exec(
			ctx,
			`
			DELETE FROM "history_entry"
			WHERE "type" = $1 AND "id" NOT IN (
				SELECT "id" FROM "history_entry"
				WHERE "type" = $1
				ORDER BY "accessed_at" DESC
				LIMIT $2
			)
			`,
			e.Type, history.MaxItems,
		)
		return err
	})
	return e, xe.Wrap(err)
}

func (s *Store) Entries(ctx context.Context, typ string) ([]history.Entry, error) {
	rows, err := s.pool.Query(
		ctx,
		`
		SELECT "id", "type", "application", "params"::text, "accessed_at"
		FROM "history_entry"
		WHERE "type" = $1
		ORDER BY "accessed_at" DESC
		LIMIT $2
		`,
		typ, history.MaxItems,
	)
	if err != nil {
		if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) && pgerr.Code == pgerrcode.UndefinedTable {
			return []history.Entry{}, nil
		}
		return nil, xe.Wrap(err)
	}
	defer rows.Close()

	entries := []history.Entry{}
	for rows.Next() {
		e := history.Entry{}
		var jparams string
		if err := rows.Scan(&e.Id, &e.Type, &e.Application, &jparams, &e.AccessedAt); err != nil {
			return nil, xe.Wrap(err)
		}
		if err := json.Unmarshal([]byte(jparams), &e.Params); err != nil {
			return nil, xe.WrapWithNote("params of "+e.Id, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) && pgerr.Code == pgerrcode.UndefinedTable {
			return []history.Entry{}, nil
		}
		return nil, xe.Wrap(err)
	}
	return entries, nil
}

func (s *Store) RemoveByAppName(ctx context.Context, application string) error {
	_, err := s.pool.Exec(
		ctx, `DELETE FROM "history_entry" WHERE "application" = $1`, application,
	)
	if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) && pgerr.Code == pgerrcode.UndefinedTable {
		return nil
	}
	return xe.Wrap(err)
}
