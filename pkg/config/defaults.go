package config

import "time"

const (
	defaultStorageDriver = "jsonfile"

	defaultEmbeddingProvider   = "openai"
	defaultEmbeddingModel      = "text-embedding-3-small"
	defaultEmbeddingDimensions = 1536

	defaultLLMProvider    = "openai"
	defaultLLMModel       = "gpt-4o-mini"
	defaultLLMTemperature = 0.7
	defaultLLMMaxTokens   = 1024
	defaultLLMTimeout     = 2 * time.Minute

	defaultChunkSize    = 500
	defaultChunkOverlap = 50
	defaultTopK         = 3

	defaultToolsTarget  = "http://localhost:5001"
	defaultToolsTimeout = 5 * time.Second

	defaultAPIListen        = ":8000"
	defaultToolServerListen = ":5001"
	defaultTimezone         = "Africa/Johannesburg"
	defaultClientAPITarget  = "http://localhost:8000"

	defaultEventStreamProvider = "none"
	defaultEventStreamTopic    = "ragchat.turns"
)

var defaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		Index: IndexConfig{
			ChunkSize:    defaultChunkSize,
			ChunkOverlap: defaultChunkOverlap,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		LLM: LLMConfig{
			Provider:    defaultLLMProvider,
			Model:       defaultLLMModel,
			Temperature: defaultLLMTemperature,
			MaxTokens:   defaultLLMMaxTokens,
			Timeout:     Duration{defaultLLMTimeout},
		},
		Retrieval: RetrievalConfig{
			TopK: defaultTopK,
		},
		Tools: ToolsConfig{
			Target:  defaultToolsTarget,
			Timeout: Duration{defaultToolsTimeout},
			Enabled: true,
		},
		API: APIConfig{
			Listen:         defaultAPIListen,
			AllowedOrigins: append([]string(nil), defaultAllowedOrigins...),
		},
		ToolServer: ToolServerConfig{
			Listen:   defaultToolServerListen,
			Timezone: defaultTimezone,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}
