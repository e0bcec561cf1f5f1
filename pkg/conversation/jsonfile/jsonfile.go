// Package jsonfile implements conversation.Store with one JSON document per
// conversation in a directory.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/papercomputeco/ragchat/pkg/conversation"
	"github.com/papercomputeco/ragchat/pkg/logger"
)

const fileExt = ".json"

// Driver stores each record as <dir>/<id>.json. Writes go through a temp
// file and rename so a reader never sees a partial document.
type Driver struct {
	dir    string
	locks  *conversation.Locks
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger used to report unreadable records.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithClock overrides the clock used for new records.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// NewDriver creates the directory if needed and returns a Driver over it.
func NewDriver(dir string, opts ...Option) (*Driver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating conversation directory: %w", err)
	}

	d := &Driver{
		dir:    dir,
		locks:  conversation.NewLocks(),
		now:    time.Now,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Dir returns the directory records are stored in.
func (d *Driver) Dir() string {
	return d.dir
}

func (d *Driver) path(id string) string {
	return filepath.Join(d.dir, id+fileExt)
}

// Create starts an empty record.
func (d *Driver) Create(_ context.Context, title string) (*conversation.Record, error) {
	rec := conversation.NewRecord(title, d.now().UTC())

	unlock := d.locks.Lock(rec.ID)
	defer unlock()

	if err := d.write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get reads the record for id.
func (d *Driver) Get(_ context.Context, id string) (*conversation.Record, error) {
	if conversation.ValidateID(id) != nil {
		return nil, conversation.NotFoundError{ID: id}
	}
	return d.read(id)
}

// Append adds msg under the id's lock, creating the record when absent.
func (d *Driver) Append(_ context.Context, id string, msg conversation.Message) error {
	if err := conversation.ValidateID(id); err != nil {
		return fmt.Errorf("%w: %q", err, id)
	}

	unlock := d.locks.Lock(id)
	defer unlock()

	rec, err := d.read(id)
	if conversation.IsNotFound(err) {
		rec = conversation.NewRecord(conversation.DefaultTitle, d.now().UTC())
		rec.ID = id
	} else if err != nil {
		return err
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = d.now().UTC()
	}
	rec.Messages = append(rec.Messages, msg)

	return d.write(rec)
}

// List reads every record in the directory. Files that fail to decode are
// logged and skipped.
func (d *Driver) List(_ context.Context) ([]conversation.Summary, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("reading conversation directory: %w", err)
	}

	summaries := make([]conversation.Summary, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}

		id := strings.TrimSuffix(name, fileExt)
		if conversation.ValidateID(id) != nil {
			continue
		}

		rec, err := d.read(id)
		if err != nil {
			if !conversation.IsNotFound(err) {
				d.logger.Warn("skipping unreadable conversation", "id", id, "error", err)
			}
			continue
		}
		summaries = append(summaries, rec.Summarize())
	}

	conversation.SortSummaries(summaries)
	return summaries, nil
}

// Delete removes the record file for id.
func (d *Driver) Delete(_ context.Context, id string) error {
	if conversation.ValidateID(id) != nil {
		return conversation.NotFoundError{ID: id}
	}

	unlock := d.locks.Lock(id)
	defer unlock()

	if err := os.Remove(d.path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return conversation.NotFoundError{ID: id}
		}
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	return nil
}

// Close is a no-op; every write is already durable.
func (d *Driver) Close() error {
	return nil
}

func (d *Driver) read(id string) (*conversation.Record, error) {
	data, err := os.ReadFile(d.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, conversation.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("reading conversation %s: %w", id, err)
	}

	var rec conversation.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding conversation %s: %w", id, err)
	}
	if rec.Messages == nil {
		rec.Messages = []conversation.Message{}
	}

	return &rec, nil
}

func (d *Driver) write(rec *conversation.Record) (err error) {
	tmp, err := os.CreateTemp(d.dir, "."+rec.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp conversation file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encoding conversation %s: %w", rec.ID, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing conversation %s: %w", rec.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing conversation %s: %w", rec.ID, err)
	}

	if err := os.Rename(tmp.Name(), d.path(rec.ID)); err != nil {
		return fmt.Errorf("replacing conversation %s: %w", rec.ID, err)
	}
	return nil
}

var _ conversation.Store = (*Driver)(nil)
