package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"ticket_analyzer/pkg/apperr"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Helpdesk
	HelpdeskBaseURL  string
	HelpdeskUser     string
	HelpdeskPassword string
	HelpdeskRPS      float64

	// OpenAI
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	LLMModel       string
	LLMTimeoutSec  int
	LLMMaxRetries  int
	RubricFile     string
	ScoringEnabled bool

	// Google service account
	GoogleProjectID           string
	GooglePrivateKeyID        string
	GooglePrivateKey          string
	GoogleClientEmail         string
	GoogleClientID            string
	GoogleAuthURI             string
	GoogleTokenURI            string
	GoogleAuthProviderCertURL string
	GoogleClientCertURL       string
	GoogleScopes              []string

	// Spreadsheet
	SpreadsheetTitle string
	ShareEmail       string

	// Cache
	RedisURL          string
	DirectoryCacheTTL time.Duration

	// Batch
	Workers      int
	BatchTimeout time.Duration

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Helpdesk
		HelpdeskBaseURL:  strings.TrimRight(getEnv("OMNIDESK_BASE_URL", ""), "/"),
		HelpdeskUser:     getEnv("OMNIDESK_USERNAME", ""),
		HelpdeskPassword: getEnv("OMNIDESK_PASSWORD", ""),
		HelpdeskRPS:      getEnvFloat("OMNIDESK_RPS", 5),

		// OpenAI
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-2024-08-06"),
		LLMTimeoutSec:  getEnvInt("LLM_TIMEOUT_SEC", 120),
		LLMMaxRetries:  getEnvInt("LLM_MAX_RETRIES", 5),
		RubricFile:     getEnv("SCORING_RUBRIC_FILE", ""),
		ScoringEnabled: getEnvBool("SCORING_ENABLED", true),

		// Google service account
		GoogleProjectID:           getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePrivateKeyID:        getEnv("GOOGLE_PRIVATE_KEY_ID", ""),
		GooglePrivateKey:          strings.ReplaceAll(getEnv("GOOGLE_PRIVATE_KEY", ""), `\n`, "\n"),
		GoogleClientEmail:         getEnv("GOOGLE_CLIENT_EMAIL", ""),
		GoogleClientID:            getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleAuthURI:             getEnv("GOOGLE_AUTH_URI", "https://accounts.google.com/o/oauth2/auth"),
		GoogleTokenURI:            getEnv("GOOGLE_TOKEN_URI", "https://oauth2.googleapis.com/token"),
		GoogleAuthProviderCertURL: getEnv("GOOGLE_AUTH_PROVIDER_X509_CERT_URL", "https://www.googleapis.com/oauth2/v1/certs"),
		GoogleClientCertURL:       getEnv("GOOGLE_CLIENT_X509_CERT_URL", ""),
		GoogleScopes: getEnvSlice("GOOGLE_SCOPES", []string{
			"https://www.googleapis.com/auth/spreadsheets",
			"https://www.googleapis.com/auth/drive",
		}),

		// Spreadsheet
		SpreadsheetTitle: getEnv("SPREADSHEET_TITLE", "Обращения"),
		ShareEmail:       getEnv("SPREADSHEET_SHARE_EMAIL", ""),

		// Cache
		RedisURL:          getEnv("REDIS_URL", ""),
		DirectoryCacheTTL: getEnvDuration("DIRECTORY_CACHE_TTL", time.Hour),

		// Batch
		Workers:      getEnvInt("ANALYZER_WORKERS", 8),
		BatchTimeout: getEnvDuration("ANALYZER_BATCH_TIMEOUT", 10*time.Minute),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

// Validate reports the first missing mandatory setting.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"OMNIDESK_BASE_URL", c.HelpdeskBaseURL},
		{"OMNIDESK_USERNAME", c.HelpdeskUser},
		{"OMNIDESK_PASSWORD", c.HelpdeskPassword},
	}
	for _, r := range required {
		if r.value == "" {
			return apperr.ConfigError(r.name + " is required")
		}
	}
	if c.Workers <= 0 {
		return apperr.ConfigError("ANALYZER_WORKERS must be positive")
	}
	if c.LLMMaxRetries <= 0 {
		return apperr.ConfigError("LLM_MAX_RETRIES must be positive")
	}
	return nil
}

// HasScoring reports whether the scoring oracle can be used.
func (c *Config) HasScoring() bool {
	return c.ScoringEnabled && c.OpenAIAPIKey != ""
}

// HasSheets reports whether enough of the service account is configured to write spreadsheets.
func (c *Config) HasSheets() bool {
	return c.GoogleClientEmail != "" && c.GooglePrivateKey != ""
}

// ServiceAccountJSON renders the service-account credentials file expected by Google client libraries.
func (c *Config) ServiceAccountJSON() ([]byte, error) {
	if !c.HasSheets() {
		return nil, apperr.ConfigError("GOOGLE_CLIENT_EMAIL and GOOGLE_PRIVATE_KEY are required")
	}
	return json.Marshal(map[string]string{
		"type":                        "service_account",
		"project_id":                  c.GoogleProjectID,
		"private_key_id":              c.GooglePrivateKeyID,
		"private_key":                 c.GooglePrivateKey,
		"client_email":                c.GoogleClientEmail,
		"client_id":                   c.GoogleClientID,
		"auth_uri":                    c.GoogleAuthURI,
		"token_uri":                   c.GoogleTokenURI,
		"auth_provider_x509_cert_url": c.GoogleAuthProviderCertURL,
		"client_x509_cert_url":        c.GoogleClientCertURL,
		"universe_domain":             "googleapis.com",
	})
}

// rubricFile is the YAML layout of a scoring rubric override.
type rubricFile struct {
	Rubric string `yaml:"rubric"`
}

// LoadRubric reads a scoring rubric override. An empty path returns an empty rubric.
func LoadRubric(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read rubric: %w", err)
	}
	var rf rubricFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return "", apperr.ParseError("rubric file", err)
	}
	rubric := strings.TrimSpace(rf.Rubric)
	if rubric == "" {
		return "", apperr.ConfigError("rubric file " + path + " has no rubric")
	}
	return rubric, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
