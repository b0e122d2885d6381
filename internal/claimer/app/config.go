package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Email    string // Required: storefront account email
	Password string // Required: storefront account password

	TOTPSecret string // Optional: authenticator secret for unattended step-up

	ClientID    string // Optional: OAuth client id (default: launcher client)
	IdentityURL string // Optional: identity/store origin override (for tests)
	CatalogURL  string // Optional: catalog origin override
	GraphQLURL  string // Optional: GraphQL origin override
	Locale      string // Optional: catalog locale (default: en-US)
	Country     string // Optional: catalog country (default: US)

	DatabaseFile  string // Optional: path to SQLite database file (default: ./freeclaim.db)
	MasterKeyPath string // Optional: path to master encryption key file (for sealed tokens)

	CheckHour   int // Optional: daily cycle hour, UTC (default: 12)
	CheckMinute int // Optional: daily cycle minute (default: 0)

	TelegramToken     string  // Optional: bot token; enables the chat surface
	TelegramChatIDs   []int64 // Optional: authorized chat ids, comma separated
	DiscordWebhookURL string  // Optional: webhook for claim notifications

	RequestTimeout    time.Duration // Optional: storefront HTTP timeout (default: 30s)
	RequestsPerSecond float64       // Optional: outbound rate limit (default: 2)
	RequestBurst      int           // Optional: outbound burst (default: 4)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
}

func LoadConfig() Config {
	cfg := Config{
		Email:    os.Getenv("FREECLAIM_EMAIL"),
		Password: os.Getenv("FREECLAIM_PASSWORD"),

		TOTPSecret: os.Getenv("FREECLAIM_TOTP_SECRET"),

		ClientID:    os.Getenv("FREECLAIM_CLIENT_ID"),
		IdentityURL: os.Getenv("FREECLAIM_IDENTITY_URL"),
		CatalogURL:  os.Getenv("FREECLAIM_CATALOG_URL"),
		GraphQLURL:  os.Getenv("FREECLAIM_GRAPHQL_URL"),
		Locale:      getEnvOrDefault("FREECLAIM_LOCALE", "en-US"),
		Country:     getEnvOrDefault("FREECLAIM_COUNTRY", "US"),

		DatabaseFile:  getEnvOrDefault("FREECLAIM_DATABASE_FILE", "freeclaim.db"),
		MasterKeyPath: os.Getenv("FREECLAIM_MASTER_KEY_PATH"),

		CheckHour:   getEnvIntOrDefault("FREECLAIM_CHECK_HOUR", 12),
		CheckMinute: getEnvIntOrDefault("FREECLAIM_CHECK_MINUTE", 0),

		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatIDs:   parseChatIDs(os.Getenv("TELEGRAM_CHAT_IDS")),
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),

		RequestTimeout:    getEnvDurationOrDefault("FREECLAIM_REQUEST_TIMEOUT", 30*time.Second),
		RequestsPerSecond: getEnvFloatOrDefault("FREECLAIM_REQUESTS_PER_SECOND", 2),
		RequestBurst:      getEnvIntOrDefault("FREECLAIM_REQUEST_BURST", 4),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
	}

	return cfg
}

// Validate checks the fields the claimer cannot run without.
func (cfg Config) Validate() error {
	if cfg.Email == "" {
		return fmt.Errorf("FREECLAIM_EMAIL is required")
	}
	if cfg.Password == "" {
		return fmt.Errorf("FREECLAIM_PASSWORD is required")
	}
	if cfg.TelegramToken != "" && len(cfg.TelegramChatIDs) == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_IDS is required when TELEGRAM_BOT_TOKEN is set")
	}
	return nil
}

func parseChatIDs(value string) []int64 {
	if value == "" {
		return nil
	}

	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
		return floatValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are taken as seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
