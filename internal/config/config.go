// Package config loads the batch configuration file and environment-provided
// settings and credentials.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Batch is the batch CLI configuration (YAML file, env-overridable).
type Batch struct {
	InputDir    string  `mapstructure:"input_dir"`
	Out         string  `mapstructure:"out"`
	Prompt      string  `mapstructure:"prompt"` // baseline|fewshot|reasoned|cot|enhanced_cot
	ModelName   string  `mapstructure:"model_name"`
	Temperature float64 `mapstructure:"temperature"`
	Provider    string  `mapstructure:"provider"` // openai|azure|gemini|ollama
	Multimodal  bool    `mapstructure:"multimodal"`
}

// LoadBatch reads the YAML config at path. Every key can be overridden with a
// MISINFOSCAN_* environment variable (dots become underscores).
func LoadBatch(path string) (Batch, error) {
	v := viper.New()
	setBatchDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MISINFOSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Batch{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var b Batch
	if err := v.Unmarshal(&b); err != nil {
		return Batch{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return b, nil
}

func setBatchDefaults(v *viper.Viper) {
	v.SetDefault("input_dir", "data/videos")
	v.SetDefault("out", "experiments/results.csv")
	v.SetDefault("prompt", "baseline")
	v.SetDefault("model_name", "mistral")
	v.SetDefault("temperature", 0.0)
	v.SetDefault("provider", "ollama")
	v.SetDefault("multimodal", false)
}

// Settings are the environment-provided defaults and credentials. Keys are
// read from the process env (a .env file is honored when present) and are
// never written back to disk.
type Settings struct {
	WhisperModel string
	GPTModel     string
	GeminiModel  string
	OllamaModel  string
	MaxUploadMB  int

	OpenAIKey       string
	GeminiKey       string
	AzureKey        string
	AzureEndpoint   string
	AzureDeployment string
	OllamaHost      string
}

// LoadSettings loads .env (when present) and reads settings from the
// environment, applying defaults.
func LoadSettings() Settings {
	_ = godotenv.Load() // missing .env is fine

	return Settings{
		WhisperModel: getEnv("WHISPER_MODEL", "base"),
		GPTModel:     getEnv("GPT_MODEL", "gpt-3.5-turbo"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-pro"),
		OllamaModel:  getEnv("OLLAMA_MODEL", "mistral"),
		MaxUploadMB:  getEnvInt("MAX_UPLOAD_MB", 200),

		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		GeminiKey:       firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY")),
		AzureKey:        os.Getenv("AZURE_OPENAI_API_KEY"),
		AzureEndpoint:   os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureDeployment: os.Getenv("AZURE_OPENAI_DEPLOYMENT"),
		OllamaHost:      os.Getenv("OLLAMA_HOST"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
