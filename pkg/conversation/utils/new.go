// Package conversationutils builds a conversation.Store from configuration.
package conversationutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/ragchat/pkg/conversation"
	"github.com/papercomputeco/ragchat/pkg/conversation/inmemory"
	"github.com/papercomputeco/ragchat/pkg/conversation/jsonfile"
	"github.com/papercomputeco/ragchat/pkg/conversation/postgres"
	"github.com/papercomputeco/ragchat/pkg/conversation/sqlite"
	"github.com/papercomputeco/ragchat/pkg/conversation/sqlstore"
)

// Driver names.
const (
	JSONFile = "jsonfile"
	SQLite   = "sqlite"
	Postgres = "postgres"
	InMemory = "inmemory"
)

type NewStoreOpts struct {
	Driver      string
	DataDir     string
	SQLitePath  string
	PostgresDSN string
	Logger      *slog.Logger
}

// NewStore opens the configured store. "" selects jsonfile.
func NewStore(ctx context.Context, o *NewStoreOpts) (conversation.Store, error) {
	switch o.Driver {
	case "", JSONFile:
		var opts []jsonfile.Option
		if o.Logger != nil {
			opts = append(opts, jsonfile.WithLogger(o.Logger))
		}
		d, err := jsonfile.NewDriver(o.DataDir, opts...)
		if err != nil {
			return nil, err
		}
		return d, nil
	case SQLite:
		d, err := sqlite.NewDriver(o.SQLitePath, sqlOpts(o)...)
		if err != nil {
			return nil, err
		}
		return d, nil
	case Postgres:
		d, err := postgres.NewDriver(ctx, o.PostgresDSN, sqlOpts(o)...)
		if err != nil {
			return nil, err
		}
		return d, nil
	case InMemory:
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", o.Driver)
	}
}

// Location describes where the configured store keeps its records, for logs.
func Location(o *NewStoreOpts) string {
	switch o.Driver {
	case SQLite:
		return o.SQLitePath
	case Postgres:
		return "postgres"
	case InMemory:
		return "memory"
	default:
		return o.DataDir
	}
}

func sqlOpts(o *NewStoreOpts) []sqlstore.Option {
	if o.Logger == nil {
		return nil
	}
	return []sqlstore.Option{sqlstore.WithLogger(o.Logger)}
}
