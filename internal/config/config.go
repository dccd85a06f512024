package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	ReportCacheTTLSeconds int
	AuthSecret            string
	AccessTokenTTLMinutes int
	SeedValue             int64
	MpesaVarianceCents    int64
	CashVarianceCents     int64
	ForecastWindowDays    int
	ForecastHorizonDays   int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheTTL, err := strconv.Atoi(getEnv("REPORT_CACHE_TTL_SECONDS", "30"))
	if err != nil || cacheTTL < 1 {
		cacheTTL = 30
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	seed, err := strconv.ParseInt(getEnv("SEED_VALUE", "42"), 10, 64)
	if err != nil {
		seed = 42
	}
	mpesaVar, err := strconv.ParseInt(getEnv("MPESA_VARIANCE_CENTS", "500000"), 10, 64)
	if err != nil || mpesaVar < 0 {
		mpesaVar = 500000
	}
	cashVar, err := strconv.ParseInt(getEnv("CASH_VARIANCE_CENTS", "200000"), 10, 64)
	if err != nil || cashVar < 0 {
		cashVar = 200000
	}
	window, err := strconv.Atoi(getEnv("FORECAST_WINDOW_DAYS", "7"))
	if err != nil || window < 1 {
		window = 7
	}
	horizon, err := strconv.Atoi(getEnv("FORECAST_HORIZON_DAYS", "7"))
	if err != nil || horizon < 1 {
		horizon = 7
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		ReportCacheTTLSeconds: cacheTTL,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		SeedValue:             seed,
		MpesaVarianceCents:    mpesaVar,
		CashVarianceCents:     cashVar,
		ForecastWindowDays:    window,
		ForecastHorizonDays:   horizon,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
