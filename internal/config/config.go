package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv           string
	Addr             string
	DbDsn            string
	JwtSecret        string
	JwtAccessMinutes int
	JwtRefreshHours  int

	// Attendance engine policy.
	DefaultRadiusMeters float64
	FlexWindowMinutes   int
	RequireApproval     bool

	GeocodeBaseURL string
	AdminAlertTo   string

	SmtpHost string
	SmtpPort int
	SmtpUser string
	SmtpPass string
	SmtpFrom string

	AllowedOriginsRaw string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:           getEnv("APP_ENV", "local"),
		Addr:             getEnv("APP_ADDR", ":8080"),
		DbDsn:            os.Getenv("DB_DSN"),
		JwtSecret:        os.Getenv("JWT_SECRET"),
		JwtAccessMinutes: getEnvInt("JWT_ACCESS_MINUTES", 15),
		JwtRefreshHours:  getEnvInt("JWT_REFRESH_HOURS", 168),

		DefaultRadiusMeters: getEnvFloat("ATTENDANCE_DEFAULT_RADIUS_M", 100),
		FlexWindowMinutes:   getEnvInt("ATTENDANCE_FLEX_WINDOW_MINUTES", 30),
		RequireApproval:     getEnvBool("ATTENDANCE_REQUIRE_APPROVAL", true),

		GeocodeBaseURL: getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
		AdminAlertTo:   os.Getenv("ADMIN_ALERT_EMAIL"),

		SmtpHost: os.Getenv("SMTP_HOST"),
		SmtpPort: getEnvInt("SMTP_PORT", 587),
		SmtpUser: os.Getenv("SMTP_USER"),
		SmtpPass: os.Getenv("SMTP_PASS"),
		SmtpFrom: os.Getenv("SMTP_FROM"),

		AllowedOriginsRaw: getEnv("ALLOWED_ORIGINS", ""),
	}

	missing := []string{}
	if cfg.DbDsn == "" {
		missing = append(missing, "DB_DSN")
	}
	if cfg.JwtSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return cfg, errors.New("missing env: " + strings.Join(missing, ", "))
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
