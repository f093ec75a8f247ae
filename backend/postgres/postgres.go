// Package postgres stores syncache records in a PostgreSQL table.
//
//	CREATE TABLE <table> (
//	    locator    text PRIMARY KEY,
//	    root       text NOT NULL,
//	    id         text NOT NULL,
//	    body       jsonb NOT NULL,
//	    updated_at timestamptz NOT NULL DEFAULT now()
//	);
//
// body holds the record fields. Collection reads select every row under a
// root.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unkn0wn-root/syncache"
	"github.com/unkn0wn-root/syncache/record"
)

var (
	ErrNilPool      = errors.New("postgres backend: pool is nil")
	ErrNoIdentity   = errors.New("postgres backend: record has no id")
	ErrInvalidTable = errors.New("postgres backend: invalid table name")
)

const DefaultTable = "syncache_records"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Backend struct {
	pool  *pgxpool.Pool
	table string
	newID func() string
}

func New(pool *pgxpool.Pool, table string) (*Backend, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return &Backend{pool: pool, table: table, newID: uuid.NewString}, nil
}

// Migrate creates the records table if it does not exist.
func (b *Backend) Migrate(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
    locator    text PRIMARY KEY,
    root       text NOT NULL,
    id         text NOT NULL,
    body       jsonb NOT NULL,
    updated_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS %[1]s_root_idx ON %[1]s (root);`, b.table))
	return err
}

// Sync performs method on m and invokes exactly one of opts.Success or
// opts.Error.
func (b *Backend) Sync(ctx context.Context, method syncache.Method, m syncache.Model, opts syncache.SyncOptions) {
	res, err := b.do(ctx, method, m)
	if err != nil {
		if opts.Error != nil {
			opts.Error(err, nil)
		}
		return
	}
	if opts.Success != nil {
		opts.Success(res, nil)
	}
}

func (b *Backend) do(ctx context.Context, method syncache.Method, m syncache.Model) (syncache.Result, error) {
	attrs := m.Attributes()
	switch method {
	case syncache.MethodCreate:
		rec := attrs.Clone()
		root := m.URL()
		if rec.IsNew() {
			rec.ID = b.newID()
		} else {
			root = rootOf(root, rec.ID)
		}
		if err := b.upsert(ctx, root, rec); err != nil {
			return syncache.Result{}, err
		}
		return syncache.One(rec), nil

	case syncache.MethodUpdate:
		if attrs.IsNew() {
			return syncache.Result{}, ErrNoIdentity
		}
		if err := b.upsert(ctx, rootOf(m.URL(), attrs.ID), attrs); err != nil {
			return syncache.Result{}, err
		}
		return syncache.One(attrs), nil

	case syncache.MethodRead:
		if attrs.IsNew() {
			recs, err := b.list(ctx, strings.TrimRight(m.URL(), "/"))
			if err != nil {
				return syncache.Result{}, err
			}
			return syncache.Result{Records: recs}, nil
		}
		rec, err := b.get(ctx, m.URL())
		if errors.Is(err, pgx.ErrNoRows) {
			return syncache.Result{}, nil
		}
		if err != nil {
			return syncache.Result{}, err
		}
		return syncache.Result{Record: &rec}, nil

	case syncache.MethodDelete:
		if attrs.IsNew() {
			return syncache.Result{}, ErrNoIdentity
		}
		_, err := b.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE locator = $1`, b.table), m.URL())
		return syncache.Result{}, err
	}
	return syncache.Result{}, syncache.ErrUnknownMethod
}

func (b *Backend) upsert(ctx context.Context, root string, rec record.Record) error {
	body, err := json.Marshal(fieldsOf(rec))
	if err != nil {
		return fmt.Errorf("postgres backend: encode %q: %w", rec.ID, err)
	}
	locator := record.NewEntity(root, rec).URL()
	_, err = b.pool.Exec(ctx, fmt.Sprintf(`
INSERT INTO %s (locator, root, id, body, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (locator) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`, b.table),
		locator, strings.TrimRight(root, "/"), rec.ID, body)
	return err
}

func (b *Backend) get(ctx context.Context, locator string) (record.Record, error) {
	var (
		id   string
		body []byte
	)
	err := b.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, body FROM %s WHERE locator = $1`, b.table), locator).
		Scan(&id, &body)
	if err != nil {
		return record.Record{}, err
	}
	return decode(id, body)
}

func (b *Backend) list(ctx context.Context, root string) ([]record.Record, error) {
	rows, err := b.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, body FROM %s WHERE root = $1 ORDER BY locator`, b.table), root)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []record.Record{}
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		rec, err := decode(id, body)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func decode(id string, body []byte) (record.Record, error) {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return record.Record{}, fmt.Errorf("postgres backend: decode %q: %w", id, err)
	}
	if len(fields) == 0 {
		fields = nil
	}
	return record.New(id, fields), nil
}

func fieldsOf(rec record.Record) map[string]any {
	if rec.Fields == nil {
		return map[string]any{}
	}
	return rec.Fields
}

// rootOf strips "/id" from an existing record's locator.
func rootOf(locator, id string) string {
	return strings.TrimSuffix(locator, "/"+id)
}
