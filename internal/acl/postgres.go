package acl

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vpasslabs/signalbot/internal/relay"
)

// pgList is the Postgres-backed allow-list, sharing the database of the
// postgres subscription store.
type pgList struct {
	db *sqlx.DB
}

// NewPostgres wraps an open sqlx handle as a List. The allowed_users table
// is created by the migrations pipeline.
func NewPostgres(db *sqlx.DB) List {
	return &pgList{db: db}
}

func (l *pgList) Add(ctx context.Context, username string) (bool, error) {
	name := NormalizeUsername(username)
	if name == "" {
		return false, relay.ErrMalformedInput
	}
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO allowed_users (username) VALUES ($1)
		 ON CONFLICT (username) DO NOTHING`,
		name,
	)
	if err != nil {
		return false, fmt.Errorf("%w: acl add: %v", relay.ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: acl add rows: %v", relay.ErrPersistence, err)
	}
	return n == 0, nil
}

func (l *pgList) Remove(ctx context.Context, username string) (bool, error) {
	name := NormalizeUsername(username)
	if name == "" {
		return false, relay.ErrMalformedInput
	}
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM allowed_users WHERE username = $1`, name)
	if err != nil {
		return false, fmt.Errorf("%w: acl remove: %v", relay.ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: acl remove rows: %v", relay.ErrPersistence, err)
	}
	return n > 0, nil
}

func (l *pgList) Contains(ctx context.Context, username string) bool {
	name := NormalizeUsername(username)
	if name == "" {
		return false
	}
	var exists bool
	err := l.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM allowed_users WHERE username = $1)`, name)
	if err != nil {
		return false
	}
	return exists
}

func (l *pgList) Usernames(ctx context.Context) ([]string, error) {
	var out []string
	err := l.db.SelectContext(ctx, &out,
		`SELECT username FROM allowed_users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("%w: acl list: %v", relay.ErrPersistence, err)
	}
	return out, nil
}

func (l *pgList) Close() error {
	return nil
}
