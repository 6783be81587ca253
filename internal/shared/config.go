package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	PMSVendor   string
	PMSBase     string
	PMSKey      string
	PMSRPS      int
	RetryCount  int
	RetryWait   time.Duration
	SyncWorkers int
	SyncCron    string
	SyncDate    string
	CacheTTL    time.Duration

	// AllowTerminalCreate permits creating a brand-new stay directly in
	// CANCEL/INSTAY/AFTER. The upstream feed does produce these.
	AllowTerminalCreate bool
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/pms?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),
		PMSVendor:   env("PMS_VENDOR", "mews"),
		PMSBase:     env("PMS_BASE_URL", "https://api.mews.example/v1"),
		PMSKey:      env("PMS_API_KEY", ""),
		PMSRPS:      atoi("PMS_RPS", 5),
		RetryCount:  atoi("RETRY_ATTEMPTS", 20),
		RetryWait:   time.Duration(atoi("RETRY_WAIT_MS", 1000)) * time.Millisecond,
		SyncWorkers: atoi("SYNC_WORKERS", 8),
		SyncCron:    env("SYNC_CRON", ""),
		SyncDate:    env("SYNC_DATE", ""),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		AllowTerminalCreate: env("ALLOW_TERMINAL_CREATE", "true") != "false",
	}
	if c.PMSKey == "" {
		log.Warn().Msg("PMS_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
