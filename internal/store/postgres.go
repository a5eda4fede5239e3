package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vpasslabs/signalbot/internal/relay"
	"github.com/vpasslabs/signalbot/internal/topic"
)

// pgStore is the Postgres-backed subscription registry. Durability is the
// database's, so there is no separate rollback path: a failed statement
// leaves both memory and storage untouched.
type pgStore struct {
	db *sqlx.DB
}

// NewPostgres wraps an open sqlx handle as a Store. The subscriptions table
// is created by the migrations pipeline.
func NewPostgres(db *sqlx.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Subscribe(ctx context.Context, recipient int64, t topic.Topic) error {
	if recipient == 0 {
		return ErrBadRecipient
	}
	t = topic.Normalize(string(t))
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (recipient, topic) VALUES ($1, $2)
		 ON CONFLICT (recipient, topic) DO NOTHING`,
		recipient, t.String(),
	)
	if err != nil {
		return fmt.Errorf("%w: subscribe: %v", relay.ErrPersistence, err)
	}
	return nil
}

func (s *pgStore) Unsubscribe(ctx context.Context, recipient int64, t topic.Topic) (bool, error) {
	if recipient == 0 {
		return false, ErrBadRecipient
	}
	t = topic.Normalize(string(t))
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE recipient = $1 AND topic = $2`,
		recipient, t.String(),
	)
	if err != nil {
		return false, fmt.Errorf("%w: unsubscribe: %v", relay.ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: unsubscribe rows: %v", relay.ErrPersistence, err)
	}
	return n > 0, nil
}

func (s *pgStore) SubscribersFor(ctx context.Context, t topic.Topic) ([]int64, error) {
	t = topic.Normalize(string(t))

	var (
		out []int64
		err error
	)
	if t.IsBroadcast() {
		// Every recipient with at least one subscription, exact "all"
		// matches included.
		err = s.db.SelectContext(ctx, &out,
			`SELECT DISTINCT recipient FROM subscriptions ORDER BY recipient`)
	} else {
		err = s.db.SelectContext(ctx, &out,
			`SELECT recipient FROM subscriptions WHERE topic = $1 ORDER BY recipient`,
			t.String(),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: subscribers: %v", relay.ErrPersistence, err)
	}
	return out, nil
}

func (s *pgStore) Topics(ctx context.Context, recipient int64) ([]topic.Topic, error) {
	var slugs []string
	err := s.db.SelectContext(ctx, &slugs,
		`SELECT topic FROM subscriptions WHERE recipient = $1 ORDER BY topic`,
		recipient,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: topics: %v", relay.ErrPersistence, err)
	}
	out := make([]topic.Topic, 0, len(slugs))
	for _, s := range slugs {
		out = append(out, topic.Topic(s))
	}
	return out, nil
}

func (s *pgStore) Snapshot(ctx context.Context) (map[int64][]topic.Topic, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT recipient, topic FROM subscriptions ORDER BY recipient, topic`)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot: %v", relay.ErrPersistence, err)
	}
	defer rows.Close()

	out := make(map[int64][]topic.Topic)
	for rows.Next() {
		var (
			id   int64
			slug string
		)
		if err := rows.Scan(&id, &slug); err != nil {
			return nil, fmt.Errorf("%w: snapshot scan: %v", relay.ErrPersistence, err)
		}
		out[id] = append(out[id], topic.Topic(slug))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: snapshot rows: %v", relay.ErrPersistence, err)
	}
	return out, nil
}

func (s *pgStore) Close() error {
	return nil
}
