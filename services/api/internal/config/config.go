package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the api service settings that are not shared platform config.
type Config struct {
	JWTSecret      []byte
	AccessTokenTTL time.Duration

	VideoProvider          string
	ProviderBaseURL        string
	ProviderUserAgent      string
	ProviderRequestTimeout time.Duration
	ProviderMaxConcurrency int
	ProviderRPS            float64

	AniListURL     string
	MaxRetries     int
	RetryBaseDelay time.Duration
	// Circuit-breaker settings for AniList.
	CBMaxRequests      uint32
	CBInterval         time.Duration
	CBTimeout          time.Duration
	CBFailureThreshold uint32

	DatabaseURL string
	RedisURL    string
	CacheTTL    time.Duration
	NATSURL     string

	WatchRateLimitRPS   float64
	WatchRateLimitBurst int
}

func Load() (Config, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	videoProvider := strings.ToLower(strings.TrimSpace(os.Getenv("VIDEO_PROVIDER")))
	if videoProvider == "" {
		videoProvider = "animesonlinecc"
	}
	aniListURL := strings.TrimSpace(os.Getenv("ANILIST_URL"))
	if aniListURL == "" {
		aniListURL = "https://graphql.anilist.co"
	}

	return Config{
		JWTSecret:      []byte(secret),
		AccessTokenTTL: envDuration("ACCESS_TOKEN_TTL", 50*time.Hour),

		VideoProvider:          videoProvider,
		ProviderBaseURL:        strings.TrimSpace(os.Getenv("PROVIDER_BASE_URL")),
		ProviderUserAgent:      strings.TrimSpace(os.Getenv("PROVIDER_USER_AGENT")),
		ProviderRequestTimeout: envDuration("PROVIDER_REQUEST_TIMEOUT", 8*time.Second),
		ProviderMaxConcurrency: envInt("PROVIDER_MAX_CONCURRENCY", 4),
		ProviderRPS:            envFloat("PROVIDER_RPS", 0),

		AniListURL:         aniListURL,
		MaxRetries:         envInt("ANILIST_MAX_RETRIES", 2),
		RetryBaseDelay:     envDuration("ANILIST_RETRY_BASE_DELAY", 300*time.Millisecond),
		CBMaxRequests:      uint32(envInt("CB_MAX_REQUESTS", 5)),
		CBInterval:         envDuration("CB_INTERVAL", 60*time.Second),
		CBTimeout:          envDuration("CB_TIMEOUT", 30*time.Second),
		CBFailureThreshold: uint32(envInt("CB_FAILURE_THRESHOLD", 5)),

		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
		CacheTTL:    envDuration("CACHE_TTL", 10*time.Minute),
		NATSURL:     strings.TrimSpace(os.Getenv("NATS_URL")),

		WatchRateLimitRPS:   envFloat("WATCH_RATE_LIMIT_RPS", 2),
		WatchRateLimitBurst: envInt("WATCH_RATE_LIMIT_BURST", 10),
	}, nil
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
