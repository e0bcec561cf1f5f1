// Package sqlstore implements conversation.Store over database/sql. It is
// database-agnostic and is embedded by the sqlite and postgres drivers.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/ragchat/pkg/conversation"
	"github.com/papercomputeco/ragchat/pkg/logger"
)

// Dialect holds what differs between SQL backends.
type Dialect struct {
	Name string

	// Schema statements are run in order when the driver opens. They must be
	// idempotent.
	Schema []string

	// Numbered rewrites ? placeholders to $1, $2, ...
	Numbered bool
}

// Driver stores records in a conversations table and their messages, keyed
// by (conversation_id, seq), in a messages table.
type Driver struct {
	DB *sql.DB

	dialect Dialect
	locks   *conversation.Locks
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithClock overrides the clock used for new records and messages.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// New applies the dialect schema to db and returns a Driver over it. The
// Driver owns db and closes it on Close.
func New(ctx context.Context, db *sql.DB, dialect Dialect, opts ...Option) (*Driver, error) {
	d := &Driver{
		DB:      db,
		dialect: dialect,
		locks:   conversation.NewLocks(),
		now:     time.Now,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	for _, stmt := range dialect.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create %s schema: %w", dialect.Name, err)
		}
	}
	d.logger.Debug("conversation schema ready", "dialect", dialect.Name)

	return d, nil
}

// Create inserts an empty record.
func (d *Driver) Create(ctx context.Context, title string) (*conversation.Record, error) {
	rec := conversation.NewRecord(title, d.now().UTC())

	_, err := d.DB.ExecContext(ctx,
		d.q(`INSERT INTO conversations (id, title, created_at) VALUES (?, ?, ?)`),
		rec.ID, rec.Title, rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	return rec, nil
}

// Get loads the record for id with its messages in order.
func (d *Driver) Get(ctx context.Context, id string) (*conversation.Record, error) {
	if conversation.ValidateID(id) != nil {
		return nil, conversation.NotFoundError{ID: id}
	}

	rec := &conversation.Record{ID: id}
	err := d.DB.QueryRowContext(ctx,
		d.q(`SELECT title, created_at FROM conversations WHERE id = ?`), id,
	).Scan(&rec.Title, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, conversation.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("reading conversation %s: %w", id, err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	rec.Messages, err = d.messages(ctx, id)
	if err != nil {
		return nil, err
	}

	return rec, nil
}

func (d *Driver) messages(ctx context.Context, id string) ([]conversation.Message, error) {
	rows, err := d.DB.QueryContext(ctx,
		d.q(`SELECT role, content, created_at, rag_sources FROM messages WHERE conversation_id = ? ORDER BY seq`), id,
	)
	if err != nil {
		return nil, fmt.Errorf("reading messages for %s: %w", id, err)
	}
	defer rows.Close()

	msgs := []conversation.Message{}
	for rows.Next() {
		var (
			msg     conversation.Message
			sources sql.NullString
		)
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.Timestamp, &sources); err != nil {
			return nil, fmt.Errorf("scanning message for %s: %w", id, err)
		}
		msg.Timestamp = msg.Timestamp.UTC()

		if sources.Valid && sources.String != "" {
			if err := json.Unmarshal([]byte(sources.String), &msg.RagSources); err != nil {
				return nil, fmt.Errorf("decoding sources for %s: %w", id, err)
			}
		}
		msgs = append(msgs, msg)
	}

	return msgs, rows.Err()
}

// Append adds msg as the next message of id in one transaction, creating a
// DefaultTitle record when absent.
func (d *Driver) Append(ctx context.Context, id string, msg conversation.Message) error {
	if err := conversation.ValidateID(id); err != nil {
		return fmt.Errorf("%w: %q", err, id)
	}

	unlock := d.locks.Lock(id)
	defer unlock()

	now := d.now().UTC()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}

	var sources sql.NullString
	if len(msg.RagSources) > 0 {
		data, err := json.Marshal(msg.RagSources)
		if err != nil {
			return fmt.Errorf("encoding sources: %w", err)
		}
		sources = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		d.q(`INSERT INTO conversations (id, title, created_at) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`),
		id, conversation.DefaultTitle, now,
	)
	if err != nil {
		return fmt.Errorf("creating conversation %s: %w", id, err)
	}

	var seq int64
	err = tx.QueryRowContext(ctx,
		d.q(`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?`), id,
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("reading next message seq for %s: %w", id, err)
	}

	_, err = tx.ExecContext(ctx,
		d.q(`INSERT INTO messages (conversation_id, seq, role, content, created_at, rag_sources) VALUES (?, ?, ?, ?, ?, ?)`),
		id, seq, msg.Role, msg.Content, msg.Timestamp.UTC(), sources,
	)
	if err != nil {
		return fmt.Errorf("appending message to %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing append to %s: %w", id, err)
	}
	return nil
}

// List returns summaries of all records, newest first.
func (d *Driver) List(ctx context.Context) ([]conversation.Summary, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT c.id, c.title, c.created_at, COUNT(m.seq)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		GROUP BY c.id, c.title, c.created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	summaries := []conversation.Summary{}
	for rows.Next() {
		var s conversation.Summary
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt, &s.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	conversation.SortSummaries(summaries)
	return summaries, nil
}

// Delete removes the record for id and its messages.
func (d *Driver) Delete(ctx context.Context, id string) error {
	if conversation.ValidateID(id) != nil {
		return conversation.NotFoundError{ID: id}
	}

	unlock := d.locks.Lock(id)
	defer unlock()

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, d.q(`DELETE FROM messages WHERE conversation_id = ?`), id); err != nil {
		return fmt.Errorf("deleting messages for %s: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, d.q(`DELETE FROM conversations WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	if n == 0 {
		return conversation.NotFoundError{ID: id}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete of %s: %w", id, err)
	}
	return nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.DB.Close()
}

// q rewrites placeholders for the dialect.
func (d *Driver) q(query string) string {
	if !d.dialect.Numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ conversation.Store = (*Driver)(nil)
