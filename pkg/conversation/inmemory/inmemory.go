// Package inmemory implements conversation.Store with an in-memory map.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/papercomputeco/ragchat/pkg/conversation"
)

// Driver implements conversation.Store using an in-memory map.
type Driver struct {
	// mu guards records. Appends hold the write lock for the whole
	// read-modify-write.
	mu sync.RWMutex

	// records maps conversation id to a private copy of its record
	records map[string]*conversation.Record

	now func() time.Time
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string]*conversation.Record),
		now:     time.Now,
	}
}

func (d *Driver) Create(_ context.Context, title string) (*conversation.Record, error) {
	rec := conversation.NewRecord(title, d.now().UTC())

	d.mu.Lock()
	defer d.mu.Unlock()

	d.records[rec.ID] = clone(rec)
	return rec, nil
}

func (d *Driver) Get(_ context.Context, id string) (*conversation.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.records[id]
	if !ok {
		return nil, conversation.NotFoundError{ID: id}
	}
	return clone(rec), nil
}

func (d *Driver) Append(_ context.Context, id string, msg conversation.Message) error {
	if err := conversation.ValidateID(id); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.records[id]
	if !ok {
		rec = conversation.NewRecord(conversation.DefaultTitle, d.now().UTC())
		rec.ID = id
		d.records[id] = rec
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = d.now().UTC()
	}
	rec.Messages = append(rec.Messages, msg)
	return nil
}

func (d *Driver) List(_ context.Context) ([]conversation.Summary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]conversation.Summary, 0, len(d.records))
	for _, rec := range d.records {
		out = append(out, rec.Summarize())
	}
	conversation.SortSummaries(out)
	return out, nil
}

func (d *Driver) Delete(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.records[id]; !ok {
		return conversation.NotFoundError{ID: id}
	}
	delete(d.records, id)
	return nil
}

func (d *Driver) Close() error {
	return nil
}

func clone(rec *conversation.Record) *conversation.Record {
	c := *rec
	c.Messages = make([]conversation.Message, len(rec.Messages))
	copy(c.Messages, rec.Messages)
	return &c
}

var _ conversation.Store = (*Driver)(nil)
