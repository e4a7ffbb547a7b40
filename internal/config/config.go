package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/codefyre/backend/internal/model/identity"
)

// Config aggregates every service setting.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Chat     ChatConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	authCfg, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Store:    loadStoreConfig(),
		Database: DatabaseConfig{DSN: strings.TrimSpace(os.Getenv("DATABASE_DSN"))},
		Auth:     authCfg,
		Chat:     chat,
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
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// StoreConfig describes the realtime key-value backend.
type StoreConfig struct {
	NATSURL string
	Bucket  string
}

// Enabled reports whether a NATS backend was configured; without one the
// service falls back to the in-process store.
func (c StoreConfig) Enabled() bool {
	return c.NATSURL != ""
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		NATSURL: strings.TrimSpace(os.Getenv("NATS_URL")),
		Bucket:  getEnvOrDefault("STORE_BUCKET", "codefyre"),
	}
}

// DatabaseConfig describes the relational backend.
type DatabaseConfig struct {
	DSN string
}

// Enabled reports whether a relational backend was configured.
func (c DatabaseConfig) Enabled() bool {
	return c.DSN != ""
}

// ChatConfig bounds the live message window.
type ChatConfig struct {
	Window int
}

func loadChatConfig() (ChatConfig, error) {
	window, err := parseOptionalIntEnv("CHAT_WINDOW")
	if err != nil {
		return ChatConfig{}, err
	}
	cfg := ChatConfig{Window: 100}
	if window != nil {
		if *window < 1 {
			return ChatConfig{}, fmt.Errorf("invalid CHAT_WINDOW value: %d", *window)
		}
		cfg.Window = *window
	}
	return cfg, nil
}

// AuthConfig describes the identity gate: a token file for the static
// verifier and the admin email allow-list used when no role table exists.
type AuthConfig struct {
	TokensFile  string
	AdminEmails []string
}

func loadAuthConfig() (AuthConfig, error) {
	var emails []string
	if raw := strings.TrimSpace(os.Getenv("ADMIN_EMAILS")); raw != "" {
		for _, e := range strings.Split(raw, ",") {
			if e = strings.TrimSpace(e); e != "" {
				emails = append(emails, e)
			}
		}
	}
	return AuthConfig{
		TokensFile:  strings.TrimSpace(os.Getenv("AUTH_TOKENS_FILE")),
		AdminEmails: emails,
	}, nil
}

// LoadTokens reads the static token map, a JSON object of token -> identity.
func (c AuthConfig) LoadTokens() (map[string]identity.Identity, error) {
	if c.TokensFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.TokensFile)
	if err != nil {
		return nil, fmt.Errorf("read tokens file: %w", err)
	}
	tokens := make(map[string]identity.Identity)
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("parse tokens file: %w", err)
	}
	return tokens, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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
