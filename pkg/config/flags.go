package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g. --api-target
// on both "ragchat chat" and "ragchat search").
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag (e.g. "l"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddIntFlag,
// AddBoolFlag and BindRegisteredFlags.
const (
	FlagAPIListen         = "api-listen"
	FlagToolServerListen  = "toolserver-listen"
	FlagToolServerTZ      = "timezone"
	FlagStorageDriver     = "storage"
	FlagDataDir           = "data-dir"
	FlagSQLitePath        = "sqlite"
	FlagPostgresDSN       = "postgres-dsn"
	FlagIndexPath         = "index"
	FlagIndexSource       = "source"
	FlagIndexWatch        = "watch"
	FlagChunkSize         = "chunk-size"
	FlagChunkOverlap      = "chunk-overlap"
	FlagEmbeddingProv     = "embedding-provider"
	FlagEmbeddingTgt      = "embedding-target"
	FlagEmbeddingModel    = "embedding-model"
	FlagEmbeddingDims     = "embedding-dimensions"
	FlagLLMProvider       = "llm-provider"
	FlagLLMTarget         = "llm-target"
	FlagLLMModel          = "llm-model"
	FlagTopK              = "top-k"
	FlagToolsTarget       = "tools-target"
	FlagToolsEnabled      = "tools"
	FlagAPITarget         = "api-target"
	FlagEventStreamProv   = "eventstream-provider"
	FlagEventStreamTopic  = "eventstream-topic"
	FlagEventStreamBroker = "eventstream-brokers"
	FlagLogFile           = "log-file"
)

// Flags is the shared registry for every ragchat command.
var Flags = FlagSet{
	FlagAPIListen:         {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagToolServerListen:  {Name: "listen", Shorthand: "l", ViperKey: "toolserver.listen", Description: "Address for the tool server to listen on"},
	FlagToolServerTZ:      {Name: "timezone", ViperKey: "toolserver.timezone", Description: "IANA timezone the tool server reports"},
	FlagStorageDriver:     {Name: "storage", ViperKey: "storage.driver", Description: "Conversation store (jsonfile, sqlite, postgres)"},
	FlagSQLitePath:        {Name: "sqlite", ViperKey: "storage.sqlite_path", Description: "SQLite database file (default: <dotdir>/ragchat.db)"},
	FlagPostgresDSN:       {Name: "postgres-dsn", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string"},
	FlagDataDir:           {Name: "data-dir", ViperKey: "storage.data_dir", Description: "Directory for conversation records (default: <dotdir>/chats)"},
	FlagIndexPath:         {Name: "index", Shorthand: "i", ViperKey: "index.path", Description: "Path to the vector index snapshot (default: <dotdir>/index.json)"},
	FlagIndexSource:       {Name: "source", ViperKey: "index.source", Description: "Knowledge base text file to build the index from"},
	FlagIndexWatch:        {Name: "watch", ViperKey: "index.watch", Description: "Reload the index when the snapshot file changes"},
	FlagChunkSize:         {Name: "chunk-size", ViperKey: "index.chunk_size", Description: "Words per chunk"},
	FlagChunkOverlap:      {Name: "chunk-overlap", ViperKey: "index.chunk_overlap", Description: "Words shared between consecutive chunks"},
	FlagEmbeddingProv:     {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (openai, ollama)"},
	FlagEmbeddingTgt:      {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider base URL"},
	FlagEmbeddingModel:    {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model"},
	FlagEmbeddingDims:     {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding vector dimensions"},
	FlagLLMProvider:       {Name: "llm-provider", ViperKey: "llm.provider", Description: "Chat completion provider (openai, ollama)"},
	FlagLLMTarget:         {Name: "llm-target", ViperKey: "llm.target", Description: "Chat completion provider base URL"},
	FlagLLMModel:          {Name: "llm-model", Shorthand: "m", ViperKey: "llm.model", Description: "Chat completion model"},
	FlagTopK:              {Name: "top-k", Shorthand: "k", ViperKey: "retrieval.top_k", Description: "Number of chunks to retrieve"},
	FlagToolsTarget:       {Name: "tools-target", ViperKey: "tools.target", Description: "Base URL of the tool service"},
	FlagToolsEnabled:      {Name: "tools", ViperKey: "tools.enabled", Description: "Call the tool service for time questions"},
	FlagAPITarget:         {Name: "api-target", Shorthand: "a", ViperKey: "client.api_target", Description: "ragchat API server URL"},
	FlagEventStreamProv:   {Name: "eventstream-provider", ViperKey: "eventstream.provider", Description: "Turn event publisher (none, kafka)"},
	FlagEventStreamTopic:  {Name: "eventstream-topic", ViperKey: "eventstream.topic", Description: "Kafka topic for turn events"},
	FlagEventStreamBroker: {Name: "eventstream-brokers", ViperKey: "eventstream.brokers", Description: "Comma separated Kafka brokers"},
	FlagLogFile:           {Name: "log-file", ViperKey: "log.file", Description: "Also write JSON logs to this file"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddStringSliceFlag registers a string slice flag on cmd from the given FlagSet.
func AddStringSliceFlag(cmd *cobra.Command, fs FlagSet, key string, target *[]string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultStringSlice(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringSliceVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringSliceVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultDefaults().GetUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *int) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultDefaults().GetInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultDefaults().GetBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaultDefaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	return defaultDefaults().GetString(viperKey)
}

func defaultStringSlice(viperKey string) []string {
	return defaultDefaults().GetStringSlice(viperKey)
}
