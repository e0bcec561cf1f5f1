package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/ragchat/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the RAGCHAT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (RAGCHAT_API_LISTEN, RAGCHAT_LLM_MODEL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
		v.Set("dotdir", target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("RAGCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper resolves the full Config from v after flags, environment and
// config file have been layered in, and validates it.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			Driver:      v.GetString("storage.driver"),
			DataDir:     v.GetString("storage.data_dir"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Index: IndexConfig{
			Path:         v.GetString("index.path"),
			Source:       v.GetString("index.source"),
			ChunkSize:    v.GetInt("index.chunk_size"),
			ChunkOverlap: v.GetInt("index.chunk_overlap"),
			Watch:        v.GetBool("index.watch"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		LLM: LLMConfig{
			Provider:    v.GetString("llm.provider"),
			Target:      v.GetString("llm.target"),
			Model:       v.GetString("llm.model"),
			Temperature: float32(v.GetFloat64("llm.temperature")),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			Timeout:     Duration{v.GetDuration("llm.timeout")},
		},
		Retrieval: RetrievalConfig{
			TopK: v.GetInt("retrieval.top_k"),
		},
		Tools: ToolsConfig{
			Target:  v.GetString("tools.target"),
			Timeout: Duration{v.GetDuration("tools.timeout")},
			Enabled: v.GetBool("tools.enabled"),
		},
		API: APIConfig{
			Listen:         v.GetString("api.listen"),
			AllowedOrigins: v.GetStringSlice("api.allowed_origins"),
		},
		ToolServer: ToolServerConfig{
			Listen:   v.GetString("toolserver.listen"),
			Timezone: v.GetString("toolserver.timezone"),
		},
		Client: ClientConfig{
			APITarget: v.GetString("client.api_target"),
		},
		EventStream: EventStreamConfig{
			Provider: v.GetString("eventstream.provider"),
			Brokers:  v.GetStringSlice("eventstream.brokers"),
			Topic:    v.GetString("eventstream.topic"),
		},
		Log: LogConfig{
			File: v.GetString("log.file"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Resolve layers cmd's registered flags for registryKeys over the
// environment, config.toml and defaults, reading config.toml from the
// --config-dir override when set. It returns the Config and the dot
// directory it was resolved against.
func Resolve(cmd *cobra.Command, registryKeys []string) (*Config, string, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := InitViper(configDir)
	if err != nil {
		return nil, "", err
	}

	BindRegisteredFlags(v, cmd, Flags, registryKeys)

	cfg, err := FromViper(v)
	if err != nil {
		return nil, "", err
	}

	return cfg, v.GetString("dotdir"), nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	v.SetDefault("index.path", d.Index.Path)
	v.SetDefault("index.source", d.Index.Source)
	v.SetDefault("index.chunk_size", d.Index.ChunkSize)
	v.SetDefault("index.chunk_overlap", d.Index.ChunkOverlap)
	v.SetDefault("index.watch", d.Index.Watch)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.target", d.LLM.Target)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.timeout", d.LLM.Timeout.String())

	v.SetDefault("retrieval.top_k", d.Retrieval.TopK)

	v.SetDefault("tools.target", d.Tools.Target)
	v.SetDefault("tools.timeout", d.Tools.Timeout.String())
	v.SetDefault("tools.enabled", d.Tools.Enabled)

	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.allowed_origins", d.API.AllowedOrigins)

	v.SetDefault("toolserver.listen", d.ToolServer.Listen)
	v.SetDefault("toolserver.timezone", d.ToolServer.Timezone)

	v.SetDefault("client.api_target", d.Client.APITarget)

	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)

	v.SetDefault("log.file", d.Log.File)
}
