package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/zenora/backend/internal/llm"
)

// Config aggregates every setting of the service.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Store  StoreConfig
	Voice  VoiceConfig
	Log    LogConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	voice, err := loadVoiceConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Store:  store,
		Voice:  voice,
		Log:    loadLogConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as given.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the upstream language model and the chat pipeline.
type AIConfig struct {
	Provider        string
	APIKey          string
	AccessKey       string
	SecretKey       string
	Region          string
	BaseURL         string
	Model           string
	ClassifierModel string
	Temperature     *float64
	MaxTokens       *int
	Timeout         time.Duration
	HistoryLimit    int
	StreamResponse  bool
}

// Enabled reports whether a model and credentials are configured.
func (c AIConfig) Enabled() bool {
	if c.Model == "" {
		return false
	}
	if c.Provider == llm.ProviderArk {
		return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
	}
	return c.APIKey != ""
}

// NewChatModel builds the model used for reply generation.
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("llm credentials or model missing: set LLM_API_KEY and LLM_MODEL")
	}
	return llm.NewChatModel(ctx, c.options(c.Model))
}

// NewClassifierModel builds the model used for emotion classification. It
// only differs from NewChatModel when LLM_CLASSIFIER_MODEL is set.
func (c AIConfig) NewClassifierModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("llm credentials or model missing: set LLM_API_KEY and LLM_MODEL")
	}
	name := c.ClassifierModel
	if name == "" {
		name = c.Model
	}
	opts := c.options(name)
	// The classifier reply is a short JSON object; sampling is left to the provider default.
	opts.Temperature = nil
	opts.MaxTokens = nil
	return llm.NewChatModel(ctx, opts)
}

func (c AIConfig) options(modelName string) llm.Options {
	return llm.Options{
		Provider:    c.Provider,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       modelName,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Region:      c.Region,
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", llm.ProviderOpenAI))
	if provider != llm.ProviderOpenAI && provider != llm.ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q", provider)
	}

	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature == nil {
		defaultTemperature := 0.7
		temperature = &defaultTemperature
	}

	maxTokens, err := parseOptionalIntEnv("LLM_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}
	if maxTokens == nil {
		defaultMaxTokens := 500
		maxTokens = &defaultMaxTokens
	}

	timeout, err := parseDurationEnv("LLM_TIMEOUT", 10*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("CHAT_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	historyLimit := 5
	if override, err := parseOptionalIntEnv("CHAT_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 0 {
			historyLimit = 0
		} else {
			historyLimit = *override
		}
	}

	cfg := AIConfig{
		Provider:        provider,
		ClassifierModel: strings.TrimSpace(os.Getenv("LLM_CLASSIFIER_MODEL")),
		Temperature:     temperature,
		MaxTokens:       maxTokens,
		Timeout:         timeout,
		HistoryLimit:    historyLimit,
		StreamResponse:  stream,
	}

	switch provider {
	case llm.ProviderArk:
		cfg.APIKey = firstEnv("ARK_API_KEY", "LLM_API_KEY")
		cfg.AccessKey = strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY"))
		cfg.SecretKey = strings.TrimSpace(os.Getenv("ARK_SECRET_KEY"))
		cfg.Region = getEnvOrDefault("ARK_REGION", "cn-beijing")
		cfg.BaseURL = getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
		cfg.Model = firstEnv("ARK_MODEL", "LLM_MODEL")
	default:
		cfg.APIKey = firstEnv("LLM_API_KEY", "LOVABLE_API_KEY", "OPENAI_API_KEY")
		cfg.BaseURL = getEnvOrDefault("LLM_BASE_URL", "https://ai.gateway.lovable.dev/v1")
		cfg.Model = getEnvOrDefault("LLM_MODEL", "google/gemini-2.5-flash")
	}

	return cfg, nil
}

// StoreConfig selects the persistence driver.
type StoreConfig struct {
	Driver        string
	DSN           string
	WriteTimeout  time.Duration
	MoodThreshold int
}

func loadStoreConfig() (StoreConfig, error) {
	writeTimeout, err := parseDurationEnv("MOOD_WRITE_TIMEOUT", 5*time.Second)
	if err != nil {
		return StoreConfig{}, err
	}

	threshold := 6
	if override, err := parseOptionalIntEnv("MOOD_INTENSITY_THRESHOLD"); err != nil {
		return StoreConfig{}, err
	} else if override != nil {
		if *override < 1 || *override > 10 {
			return StoreConfig{}, fmt.Errorf("invalid MOOD_INTENSITY_THRESHOLD value %d: must be within 1..10", *override)
		}
		threshold = *override
	}

	return StoreConfig{
		Driver:        strings.ToLower(getEnvOrDefault("DB_DRIVER", "memory")),
		DSN:           strings.TrimSpace(os.Getenv("DB_DSN")),
		WriteTimeout:  writeTimeout,
		MoodThreshold: threshold,
	}, nil
}

// VoiceConfig describes the text-to-speech provider.
type VoiceConfig struct {
	Provider          string
	GoogleCredentials string
	Voice             string
	Language          string
	SpeakingRate      float64
	VolcAppID         string
	VolcAccessToken   string
	VolcResourceID    string
	Timeout           time.Duration
}

// Enabled reports whether the selected provider has credentials.
func (c VoiceConfig) Enabled() bool {
	switch c.Provider {
	case "google":
		return c.GoogleCredentials != ""
	case "volcengine":
		return c.VolcAppID != "" && c.VolcAccessToken != ""
	default:
		return false
	}
}

func loadVoiceConfig() (VoiceConfig, error) {
	rate, err := parseOptionalFloatEnv("TTS_SPEAKING_RATE")
	if err != nil {
		return VoiceConfig{}, err
	}
	speakingRate := 0.9
	if rate != nil {
		speakingRate = *rate
	}

	timeout, err := parseDurationEnv("TTS_TIMEOUT", 30*time.Second)
	if err != nil {
		return VoiceConfig{}, err
	}

	provider := strings.ToLower(getEnvOrDefault("TTS_PROVIDER", "google"))
	if provider != "google" && provider != "volcengine" {
		return VoiceConfig{}, fmt.Errorf("invalid TTS_PROVIDER value %q", provider)
	}

	return VoiceConfig{
		Provider:          provider,
		GoogleCredentials: strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_CREDENTIALS")),
		Voice:             strings.TrimSpace(os.Getenv("TTS_VOICE")),
		Language:          getEnvOrDefault("TTS_LANGUAGE", "en-US"),
		SpeakingRate:      speakingRate,
		VolcAppID:         strings.TrimSpace(os.Getenv("VOLC_APP_ID")),
		VolcAccessToken:   strings.TrimSpace(os.Getenv("VOLC_ACCESS_TOKEN")),
		VolcResourceID:    strings.TrimSpace(os.Getenv("VOLC_RESOURCE_ID")),
		Timeout:           timeout,
	}, nil
}

// LogConfig controls the logrus logger.
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	// Bare numbers are seconds.
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
