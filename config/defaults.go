package config

import "time"

// DefaultConfig returns the gateway defaults.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Redis:     DefaultRedisConfig(),
		Qdrant:    DefaultQdrantConfig(),
		Embedding: DefaultEmbeddingConfig(),
		Providers: DefaultProvidersConfig(),
		Cache:     DefaultCacheConfig(),
		Verifier:  DefaultVerifierConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
	}
}

// DefaultRedisConfig returns the default Redis configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultQdrantConfig returns the default Qdrant configuration.
func DefaultQdrantConfig() QdrantConfig {
	return QdrantConfig{
		Enabled:    true,
		BaseURL:    "http://localhost:6333",
		APIKey:     "",
		Collection: "semantic_cache",
		Timeout:    10 * time.Second,
	}
}

// DefaultEmbeddingConfig returns the default embedder configuration.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		BaseURL:    "https://api.openai.com",
		Model:      "text-embedding-3-small",
		Dimensions: 1536,
		Timeout:    30 * time.Second,
	}
}

// DefaultProvidersConfig returns the default fallback chain configuration.
func DefaultProvidersConfig() ProvidersConfig {
	return ProvidersConfig{
		OpenAI: OpenAIProviderConfig{
			Model:          "gpt-4o-mini",
			FallbackModels: []string{"gpt-3.5-turbo"},
			Timeout:        15 * time.Second,
		},
		Anthropic: AnthropicProviderConfig{
			Model:   "claude-3-sonnet-20240229",
			Timeout: 15 * time.Second,
		},
	}
}

// DefaultCacheConfig returns the default cache gate configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:                 time.Hour,
		SimilarityThreshold: 0.90,
	}
}

// DefaultVerifierConfig returns the default verifier configuration.
func DefaultVerifierConfig() VerifierConfig {
	return VerifierConfig{
		Enabled: true,
		Timeout: 12 * time.Second,
	}
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
		TracePath:        "data/interactions.jsonl",
	}
}

// DefaultTelemetryConfig returns the default telemetry configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "trustgate",
		SampleRate:   0.1,
	}
}
