package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contém as configurações da aplicação
type Config struct {
	CountryCode   string
	Language      string
	SteamStoreURL string

	DiscordWebhookURL string
	BotName           string
	BotAvatarURL      string

	TelegramBotToken string
	TelegramChatID   int64

	CheckIntervalMinutes int
	CheckInterval        time.Duration
	RequestTimeout       time.Duration

	DatabasePath string
	StateBackend string // json ou sqlite
	StateFile    string

	LogLevel    string
	MetricsAddr string
}

// Load carrega as configurações das variáveis de ambiente
func Load() (*Config, error) {
	cfg := &Config{
		CountryCode:          strings.ToLower(getEnv("COUNTRY_CODE", "us")),
		Language:             strings.ToLower(getEnv("LANGUAGE", "en")),
		SteamStoreURL:        os.Getenv("STEAM_STORE_URL"),
		DiscordWebhookURL:    os.Getenv("DISCORD_WEBHOOK_URL"),
		BotName:              getEnv("BOT_NAME", "Steam Sales"),
		BotAvatarURL:         os.Getenv("BOT_AVATAR_URL"),
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		CheckIntervalMinutes: 60,
		RequestTimeout:       30 * time.Second,
		DatabasePath:         getEnv("DATABASE_PATH", "./saved_games.db"),
		StateBackend:         strings.ToLower(getEnv("STATE_BACKEND", "json")),
		StateFile:            getEnv("STATE_FILE", "./sale_reminder.json"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		MetricsAddr:          os.Getenv("METRICS_ADDR"),
	}

	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID inválido: %q", chatIDStr)
		}
		cfg.TelegramChatID = chatID
	}

	// Intervalo de verificação
	if envInterval := os.Getenv("CHECK_INTERVAL_MINUTES"); envInterval != "" {
		parsed, err := strconv.Atoi(envInterval)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("CHECK_INTERVAL_MINUTES inválido: %q", envInterval)
		}
		cfg.CheckIntervalMinutes = parsed
	}
	cfg.CheckInterval = time.Duration(cfg.CheckIntervalMinutes) * time.Minute

	if envTimeout := os.Getenv("REQUEST_TIMEOUT_SECONDS"); envTimeout != "" {
		parsed, err := strconv.Atoi(envTimeout)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("REQUEST_TIMEOUT_SECONDS inválido: %q", envTimeout)
		}
		cfg.RequestTimeout = time.Duration(parsed) * time.Second
	}

	switch cfg.StateBackend {
	case "json", "sqlite":
	default:
		return nil, fmt.Errorf("STATE_BACKEND inválido: %q (use json ou sqlite)", cfg.StateBackend)
	}

	return cfg, nil
}

// ValidateNotifiers exige ao menos um canal de notificação
func (c *Config) ValidateNotifiers() error {
	if c.DiscordWebhookURL == "" && c.TelegramBotToken == "" {
		return fmt.Errorf("nenhum canal configurado: defina DISCORD_WEBHOOK_URL ou TELEGRAM_BOT_TOKEN")
	}
	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID é obrigatório quando TELEGRAM_BOT_TOKEN está configurado")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
