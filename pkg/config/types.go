package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent ragchat configuration stored as
// config.toml in the .ragchat/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	Index       IndexConfig       `toml:"index"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	LLM         LLMConfig         `toml:"llm"`
	Retrieval   RetrievalConfig   `toml:"retrieval"`
	Tools       ToolsConfig       `toml:"tools"`
	API         APIConfig         `toml:"api"`
	ToolServer  ToolServerConfig  `toml:"toolserver"`
	Client      ClientConfig      `toml:"client"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Log         LogConfig         `toml:"log"`
}

// LogConfig holds service log settings.
type LogConfig struct {
	// File receives JSON logs from the servers in addition to the console.
	// Empty disables file logging.
	File string `toml:"file,omitempty"`
}

// StorageConfig holds conversation storage settings.
type StorageConfig struct {
	// Driver selects the conversation store: jsonfile, sqlite or postgres.
	Driver string `toml:"driver,omitempty"`

	// DataDir is the directory holding one JSON file per conversation.
	// Empty means <dotdir>/chats.
	DataDir string `toml:"data_dir,omitempty"`

	// SQLitePath is the sqlite database file. Empty means <dotdir>/ragchat.db.
	SQLitePath string `toml:"sqlite_path,omitempty"`

	// PostgresDSN is a PostgreSQL connection string or URI.
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// IndexConfig holds vector index snapshot and chunking settings.
type IndexConfig struct {
	// Path is the snapshot file. Empty means <dotdir>/index.json.
	Path         string `toml:"path,omitempty"`
	Source       string `toml:"source,omitempty"`
	ChunkSize    int    `toml:"chunk_size,omitempty"`
	ChunkOverlap int    `toml:"chunk_overlap,omitempty"`
	Watch        bool   `toml:"watch,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// LLMConfig holds the chat completion provider settings.
type LLMConfig struct {
	Provider    string   `toml:"provider,omitempty"`
	Target      string   `toml:"target,omitempty"`
	Model       string   `toml:"model,omitempty"`
	Temperature float32  `toml:"temperature,omitempty"`
	MaxTokens   int      `toml:"max_tokens,omitempty"`
	Timeout     Duration `toml:"timeout,omitempty"`
}

// RetrievalConfig holds retrieval settings.
type RetrievalConfig struct {
	TopK int `toml:"top_k,omitempty"`
}

// ToolsConfig holds settings for calling the auxiliary tool service.
type ToolsConfig struct {
	Target  string   `toml:"target,omitempty"`
	Timeout Duration `toml:"timeout,omitempty"`
	Enabled bool     `toml:"enabled"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen         string   `toml:"listen,omitempty"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
}

// ToolServerConfig holds settings for the auxiliary tool server.
type ToolServerConfig struct {
	Listen   string `toml:"listen,omitempty"`
	Timezone string `toml:"timezone,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// API server (e.g. ragchat chat, ragchat search).
// Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// EventStreamConfig holds turn event publishing settings.
type EventStreamConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// Duration is a time.Duration that encodes to TOML as a string ("5s").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.driver":       stringKey(func(c *Config) *string { return &c.Storage.Driver }),
	"storage.data_dir":     stringKey(func(c *Config) *string { return &c.Storage.DataDir }),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),

	"index.path":          stringKey(func(c *Config) *string { return &c.Index.Path }),
	"index.source":        stringKey(func(c *Config) *string { return &c.Index.Source }),
	"index.chunk_size":    intKey("index.chunk_size", func(c *Config) *int { return &c.Index.ChunkSize }),
	"index.chunk_overlap": intKey("index.chunk_overlap", func(c *Config) *int { return &c.Index.ChunkOverlap }),
	"index.watch":         boolKey("index.watch", func(c *Config) *bool { return &c.Index.Watch }),

	"embedding.provider": stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":   stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":    stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},

	"llm.provider": stringKey(func(c *Config) *string { return &c.LLM.Provider }),
	"llm.target":   stringKey(func(c *Config) *string { return &c.LLM.Target }),
	"llm.model":    stringKey(func(c *Config) *string { return &c.LLM.Model }),
	"llm.temperature": {
		get: func(c *Config) string { return strconv.FormatFloat(float64(c.LLM.Temperature), 'f', -1, 32) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 32)
			if err != nil {
				return fmt.Errorf("invalid value for llm.temperature: %w", err)
			}
			c.LLM.Temperature = float32(f)
			return nil
		},
	},
	"llm.max_tokens": intKey("llm.max_tokens", func(c *Config) *int { return &c.LLM.MaxTokens }),
	"llm.timeout":    durationKey("llm.timeout", func(c *Config) *Duration { return &c.LLM.Timeout }),

	"retrieval.top_k": intKey("retrieval.top_k", func(c *Config) *int { return &c.Retrieval.TopK }),

	"tools.target":  stringKey(func(c *Config) *string { return &c.Tools.Target }),
	"tools.timeout": durationKey("tools.timeout", func(c *Config) *Duration { return &c.Tools.Timeout }),
	"tools.enabled": boolKey("tools.enabled", func(c *Config) *bool { return &c.Tools.Enabled }),

	"api.listen":          stringKey(func(c *Config) *string { return &c.API.Listen }),
	"api.allowed_origins": listKey(func(c *Config) *[]string { return &c.API.AllowedOrigins }),

	"toolserver.listen":   stringKey(func(c *Config) *string { return &c.ToolServer.Listen }),
	"toolserver.timezone": stringKey(func(c *Config) *string { return &c.ToolServer.Timezone }),

	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),

	"eventstream.provider": stringKey(func(c *Config) *string { return &c.EventStream.Provider }),
	"eventstream.brokers":  listKey(func(c *Config) *[]string { return &c.EventStream.Brokers }),
	"eventstream.topic":    stringKey(func(c *Config) *string { return &c.EventStream.Topic }),

	"log.file": stringKey(func(c *Config) *string { return &c.Log.File }),
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = n
			return nil
		},
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func durationKey(name string, field func(c *Config) *Duration) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if field(c).Duration == 0 {
				return ""
			}
			return field(c).String()
		},
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			field(c).Duration = d
			return nil
		},
	}
}

// listKey handles comma separated list values.
func listKey(field func(c *Config) *[]string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strings.Join(*field(c), ",") },
		set: func(c *Config, v string) error {
			var out []string
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			*field(c) = out
			return nil
		},
	}
}
