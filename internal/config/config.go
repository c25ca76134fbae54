package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/extramods/modgate-bot/types"
)

// Config is read once at startup and passed into components explicitly;
// nothing re-reads the environment after boot.
type Config struct {
	BotToken string

	AdminIDs     []int64
	SeedChannels []types.GateChannel

	CryptoPayToken string
	CryptoPayURL   string

	LicenseKey string

	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MinGateChannels int
	SweepInterval   time.Duration
	ExpiryWarning   time.Duration
	UsdToRub        float64
}

func Load() (*Config, error) {
	botToken := strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	if botToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is not set")
	}
	cryptoToken := strings.TrimSpace(os.Getenv("CRYPTO_PAY_TOKEN"))
	if cryptoToken == "" {
		return nil, fmt.Errorf("CRYPTO_PAY_TOKEN is not set")
	}
	licenseKey := strings.TrimSpace(os.Getenv("LICENSE_KEY"))
	if licenseKey == "" {
		return nil, fmt.Errorf("LICENSE_KEY is not set")
	}

	cryptoURL := strings.TrimSpace(os.Getenv("CRYPTO_PAY_URL"))
	if cryptoURL == "" {
		cryptoURL = "https://pay.crypt.bot/api"
	}

	redisHost := strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if redisHost == "" {
		redisHost = "localhost"
	}
	redisPort := strings.TrimSpace(os.Getenv("REDIS_PORT"))
	if redisPort == "" {
		redisPort = "6379"
	}

	cfg := &Config{
		BotToken:        botToken,
		AdminIDs:        parseAdminIDs(os.Getenv("ADMIN_IDS")),
		SeedChannels:    parseSeedChannels(os.Getenv("REQUIRED_CHANNELS"), os.Getenv("CHANNEL_NAMES")),
		CryptoPayToken:  cryptoToken,
		CryptoPayURL:    cryptoURL,
		LicenseKey:      licenseKey,
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		RedisAddr:       redisHost + ":" + redisPort,
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		MinGateChannels: getEnvInt("MIN_GATE_CHANNELS", 1),
		SweepInterval:   time.Duration(getEnvInt("SWEEP_INTERVAL_HOURS", 24)) * time.Hour,
		ExpiryWarning:   time.Duration(getEnvInt("EXPIRY_WARNING_HOURS", 24)) * time.Hour,
		UsdToRub:        getEnvFloat("USD_TO_RUB", 90),
	}
	return cfg, nil
}

func parseAdminIDs(raw string) []int64 {
	ids := make([]int64, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// parseSeedChannels pairs REQUIRED_CHANNELS with CHANNEL_NAMES by position;
// a missing name falls back to the username.
func parseSeedChannels(rawChannels, rawNames string) []types.GateChannel {
	usernames := splitTrimmed(rawChannels)
	names := splitTrimmed(rawNames)
	channels := make([]types.GateChannel, 0, len(usernames))
	for i, u := range usernames {
		title := u
		if i < len(names) {
			title = names[i]
		}
		channels = append(channels, types.GateChannel{Username: u, Title: title})
	}
	return channels
}

func splitTrimmed(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(name string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
