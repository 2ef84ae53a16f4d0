// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MaxImportBatchSize keeps one upsert statement under the bind parameter
// limit shared by PostgreSQL and SQLite.
const MaxImportBatchSize = 2000

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides bearer token verification settings for middleware.
type JWTConfig interface {
	GetJWTSecret() string
	GetJWTAudience() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetPublicRateLimit() float64
	GetPublicRateBurst() int
}

// ImportConfig provides settings for the address import pipeline.
type ImportConfig interface {
	GetImportBatchSize() int
	GetImportMaxUploadBytes() int64
	GetAddressTable() string
	GetAdminRole() string
	GetHeaderAliasesFile() string
}

// LookupConfig provides settings for the collection-day lookup.
type LookupConfig interface {
	GetFractionsFile() string
}

// GeocoderConfig provides settings for the Nominatim geocoder.
type GeocoderConfig interface {
	GetNominatimURL() string
	GetGeocoderCountry() string
	GetGeocoderLanguage() string
	GetGeocoderUserAgent() string
	GetGeocoderInterval() time.Duration
	GetGeocoderCacheTTL() time.Duration
	GetRedisURL() string
}

// SchedulerConfig provides settings for the asynq import queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketImports() string
	IsMinIOEnabled() bool
}

// EmailConfig provides settings for import summary mails.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetResendAPIKey() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetImportReportEmail() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	JWTSecret            string
	JWTAudience          string
	CORSAllowAll         bool
	CORSOrigins          []string
	PublicRateLimit      float64
	PublicRateBurst      int
	AdminRole            string
	AddressTable         string
	ImportBatchSize      int
	ImportMaxUploadBytes int64
	HeaderAliasesFile    string
	FractionsFile        string
	NominatimURL         string
	GeocoderCountry      string
	GeocoderLanguage     string
	GeocoderUserAgent    string
	GeocoderInterval     time.Duration
	GeocoderCacheTTL     time.Duration
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	MinIOMaxFileSize     int64
	MinioBucketImports   string
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	ResendAPIKey         string
	EmailFromName        string
	EmailFromAddress     string
	ImportReportEmail    string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTSecret() string   { return c.JWTSecret }
func (c *Config) GetJWTAudience() string { return c.JWTAudience }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string         { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool       { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string    { return c.CORSOrigins }
func (c *Config) GetPublicRateLimit() float64 { return c.PublicRateLimit }
func (c *Config) GetPublicRateBurst() int     { return c.PublicRateBurst }

// ImportConfig implementation
func (c *Config) GetImportBatchSize() int        { return c.ImportBatchSize }
func (c *Config) GetImportMaxUploadBytes() int64 { return c.ImportMaxUploadBytes }
func (c *Config) GetAddressTable() string        { return c.AddressTable }
func (c *Config) GetAdminRole() string           { return c.AdminRole }
func (c *Config) GetHeaderAliasesFile() string   { return c.HeaderAliasesFile }

// LookupConfig implementation
func (c *Config) GetFractionsFile() string { return c.FractionsFile }

// GeocoderConfig implementation
func (c *Config) GetNominatimURL() string            { return c.NominatimURL }
func (c *Config) GetGeocoderCountry() string         { return c.GeocoderCountry }
func (c *Config) GetGeocoderLanguage() string        { return c.GeocoderLanguage }
func (c *Config) GetGeocoderUserAgent() string       { return c.GeocoderUserAgent }
func (c *Config) GetGeocoderInterval() time.Duration { return c.GeocoderInterval }
func (c *Config) GetGeocoderCacheTTL() time.Duration { return c.GeocoderCacheTTL }
func (c *Config) GetRedisURL() string                { return c.RedisURL }

// SchedulerConfig implementation
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64    { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketImports() string { return c.MinioBucketImports }
func (c *Config) IsMinIOEnabled() bool          { return c.MinIOEndpoint != "" }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool {
	return c.EmailFromAddress != "" && (c.SMTPHost != "" || c.ResendAPIKey != "")
}
func (c *Config) GetSMTPHost() string          { return c.SMTPHost }
func (c *Config) GetSMTPPort() int             { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string      { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string      { return c.SMTPPassword }
func (c *Config) GetResendAPIKey() string      { return c.ResendAPIKey }
func (c *Config) GetEmailFromName() string     { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string  { return c.EmailFromAddress }
func (c *Config) GetImportReportEmail() string { return c.ImportReportEmail }

// IsSchedulerEnabled reports whether deferred imports can be queued.
func (c *Config) IsSchedulerEnabled() bool { return c.RedisURL != "" }

// Presence reports which optional collaborators are configured, without values.
func (c *Config) Presence() map[string]bool {
	return map[string]bool{
		"DATABASE_URL":    c.DatabaseURL != "",
		"AUTH_JWT_SECRET": c.JWTSecret != "",
		"REDIS_URL":       c.RedisURL != "",
		"MINIO_ENDPOINT":  c.MinIOEndpoint != "",
		"EMAIL":           c.GetEmailEnabled(),
	}
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := LoadPartial()
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET is required")
	}

	return cfg, nil
}

// LoadPartial reads configuration without enforcing the server's required values.
// The CLI uses it because it can run against a local SQLite file.
func LoadPartial() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTSecret:            getEnv("AUTH_JWT_SECRET", ""),
		JWTAudience:          getEnv("AUTH_JWT_AUDIENCE", "authenticated"),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		PublicRateLimit:      mustFloat(getEnv("PUBLIC_RATE_LIMIT", "2")),
		PublicRateBurst:      mustInt(getEnv("PUBLIC_RATE_BURST", "10")),
		AdminRole:            getEnv("ADMIN_ROLE", "admin"),
		AddressTable:         getEnv("ADDRESS_TABLE", "addresses"),
		ImportBatchSize:      mustInt(getEnv("IMPORT_BATCH_SIZE", "1000")),
		ImportMaxUploadBytes: mustInt64(getEnv("IMPORT_MAX_UPLOAD_BYTES", "26214400")),
		HeaderAliasesFile:    getEnv("HEADER_ALIASES_FILE", ""),
		FractionsFile:        getEnv("FRACTIONS_FILE", ""),
		NominatimURL:         getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org/search"),
		GeocoderCountry:      getEnv("GEOCODER_COUNTRY", "no"),
		GeocoderLanguage:     getEnv("GEOCODER_LANGUAGE", "no"),
		GeocoderUserAgent:    getEnv("GEOCODER_USER_AGENT", "avfallsdag/1.0"),
		GeocoderInterval:     mustDuration(getEnv("GEOCODER_INTERVAL", "1100ms")),
		GeocoderCacheTTL:     mustDuration(getEnv("GEOCODER_CACHE_TTL", "1h")),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "imports"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "1")),
		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:     mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "26214400")),
		MinioBucketImports:   getEnv("MINIO_BUCKET_IMPORTS", "address-imports"),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		ResendAPIKey:         getEnv("RESEND_API_KEY", ""),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "Avfallsdag"),
		EmailFromAddress:     getEnv("EMAIL_FROM_ADDRESS", ""),
		ImportReportEmail:    getEnv("IMPORT_REPORT_EMAIL", ""),
	}

	if cfg.ImportBatchSize < 1 || cfg.ImportBatchSize > MaxImportBatchSize {
		return nil, fmt.Errorf("IMPORT_BATCH_SIZE must be between 1 and %d", MaxImportBatchSize)
	}
	if cfg.ImportMaxUploadBytes < 1 {
		return nil, fmt.Errorf("IMPORT_MAX_UPLOAD_BYTES must be a positive integer")
	}
	if cfg.PublicRateLimit <= 0 || cfg.PublicRateBurst < 1 {
		return nil, fmt.Errorf("PUBLIC_RATE_LIMIT and PUBLIC_RATE_BURST must be positive")
	}
	if cfg.GeocoderInterval <= 0 {
		return nil, fmt.Errorf("GEOCODER_INTERVAL must be a positive duration")
	}
	if !isIdentifier(cfg.AddressTable) {
		return nil, fmt.Errorf("ADDRESS_TABLE must be a plain SQL identifier")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

// isIdentifier guards table names that end up interpolated into SQL.
func isIdentifier(value string) bool {
	if value == "" {
		return false
	}
	for i, r := range value {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
