package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Discord Bot
	DiscordToken string

	// Discord OAuth2
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	// Database
	DatabaseURL string

	// Web Server
	WebBind      string
	WebUIBaseURL string

	// Session
	JWTSecret string

	// Permissions
	CashAllowedUserIDs []string
	CashAllowedRoleID  string
	MirrorRoleIDs      []string

	// Gifts
	GiftFeedChannelID string
	GiftCatalogFile   string
	KafkaBrokers      []string
	KafkaGiftTopic    string

	// Claim button sessions
	ClickSessionTTL time.Duration
	ClickSessionMax int
}

// Load reads the environment, after loading envFile (default ".env") if it exists.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load(envFile)

	cfg := &Config{
		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		WebBind:             getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURI:  getEnvDefault("DISCORD_REDIRECT_URI", "http://localhost:3000/api/auth/callback"),
		JWTSecret:           getEnvDefault("JWT_SECRET", "dev-only-change-me"),
		CashAllowedUserIDs:  parseCSV(os.Getenv("CASH_ALLOWED_USER_IDS")),
		CashAllowedRoleID:   strings.TrimSpace(os.Getenv("CASH_ALLOWED_ROLE_ID")),
		MirrorRoleIDs:       parseCSV(os.Getenv("ALLOWED_ROLE_IDS")),
		GiftFeedChannelID:   os.Getenv("GIFT_FEED_CHANNEL_ID"),
		GiftCatalogFile:     os.Getenv("GIFT_CATALOG_FILE"),
		KafkaBrokers:        parseCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaGiftTopic:      getEnvDefault("KAFKA_GIFT_TOPIC", "gift_completed"),
	}

	cfg.WebUIBaseURL = extractBaseURL(cfg.DiscordRedirectURI)

	ttl, err := time.ParseDuration(getEnvDefault("CLICK_SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("CLICK_SESSION_TTL: %w", err)
	}
	cfg.ClickSessionTTL = ttl

	maxSessions, err := strconv.Atoi(getEnvDefault("CLICK_SESSION_MAX", "10000"))
	if err != nil {
		return nil, fmt.Errorf("CLICK_SESSION_MAX: %w", err)
	}
	cfg.ClickSessionMax = maxSessions

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// OAuthEnabled reports whether the web login endpoints can work.
func (c *Config) OAuthEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != ""
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func extractBaseURL(redirectURI string) string {
	// e.g., "http://localhost:3000/api/auth/callback" -> "http://localhost:3000"
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "http://localhost:3000"
	}

	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}
