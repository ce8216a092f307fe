package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/BusselW/DDH3/internal/lists"
)

// List backends.
const (
	BackendSharePoint = "sharepoint"
	BackendPostgres   = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Backend    string
	SharePoint SharePointConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Principals PrincipalConfig
	CORS       CORSConfig
	// FieldOverrides remaps logical fields to physical list field names,
	// keyed "<collection>.<field>".
	FieldOverrides map[string]string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// SharePointConfig holds the list site connection settings.
type SharePointConfig struct {
	SiteURL       string
	LocationsList string
	ProblemsList  string
	Username      string
	Password      string
	Timeout       time.Duration
	MaxPages      int
}

// DatabaseConfig holds PostgreSQL connection configuration for the local
// list backend.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	PoolMin  int
	PoolMax  int
	Migrate  bool
}

// DSN builds the postgres:// connection URL.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// CacheConfig holds dashboard cache timings.
type CacheConfig struct {
	TTL         time.Duration
	WaitTimeout time.Duration
}

// PrincipalConfig holds people search memoization settings.
type PrincipalConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("LIST_BACKEND", BackendSharePoint)
	v.SetDefault("SHAREPOINT_LOCATIONS_LIST", "Digitale handhaving")
	v.SetDefault("SHAREPOINT_PROBLEMS_LIST", "Problemen pleeglocaties")
	v.SetDefault("SHAREPOINT_TIMEOUT", 15*time.Second)
	v.SetDefault("SHAREPOINT_MAX_PAGES", 50)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "ddh")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_MIGRATE", true)
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("CACHE_WAIT_TIMEOUT", 30*time.Second)
	v.SetDefault("PRINCIPAL_CACHE_SIZE", 256)
	v.SetDefault("PRINCIPAL_CACHE_TTL", time.Minute)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")

	v.AutomaticEnv()

	overrides, err := lists.ParseOverrides(v.GetString("FIELD_OVERRIDES"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: FIELD_OVERRIDES: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("PORT"),
			Env:      v.GetString("ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Backend: strings.ToLower(strings.TrimSpace(v.GetString("LIST_BACKEND"))),
		SharePoint: SharePointConfig{
			SiteURL:       strings.TrimRight(v.GetString("SHAREPOINT_SITE_URL"), "/"),
			LocationsList: v.GetString("SHAREPOINT_LOCATIONS_LIST"),
			ProblemsList:  v.GetString("SHAREPOINT_PROBLEMS_LIST"),
			Username:      v.GetString("SHAREPOINT_USERNAME"),
			Password:      v.GetString("SHAREPOINT_PASSWORD"),
			Timeout:       v.GetDuration("SHAREPOINT_TIMEOUT"),
			MaxPages:      v.GetInt("SHAREPOINT_MAX_PAGES"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
			Migrate:  v.GetBool("DB_MIGRATE"),
		},
		Cache: CacheConfig{
			TTL:         v.GetDuration("CACHE_TTL"),
			WaitTimeout: v.GetDuration("CACHE_WAIT_TIMEOUT"),
		},
		Principals: PrincipalConfig{
			CacheSize: v.GetInt("PRINCIPAL_CACHE_SIZE"),
			CacheTTL:  v.GetDuration("PRINCIPAL_CACHE_TTL"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		FieldOverrides: overrides,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Backend {
	case BackendSharePoint:
		if err := c.SharePoint.validate(); err != nil {
			return err
		}
	case BackendPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("LIST_BACKEND must be %q or %q, got %q", BackendSharePoint, BackendPostgres, c.Backend)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Cache.WaitTimeout <= 0 {
		return fmt.Errorf("CACHE_WAIT_TIMEOUT must be positive")
	}
	if c.Principals.CacheSize < 1 {
		return fmt.Errorf("PRINCIPAL_CACHE_SIZE must be at least 1")
	}
	if c.Principals.CacheTTL <= 0 {
		return fmt.Errorf("PRINCIPAL_CACHE_TTL must be positive")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if _, err := c.Schemas(); err != nil {
		return fmt.Errorf("FIELD_OVERRIDES: %w", err)
	}

	return nil
}

// Schemas returns the list field table with titles and overrides applied.
func (c *Config) Schemas() (lists.Schemas, error) {
	schemas := lists.DefaultSchemas().
		WithTitle(lists.CollectionLocations, c.SharePoint.LocationsList).
		WithTitle(lists.CollectionProblems, c.SharePoint.ProblemsList)
	return schemas.WithOverrides(c.FieldOverrides)
}

func (s SharePointConfig) validate() error {
	if s.SiteURL == "" {
		return fmt.Errorf("SHAREPOINT_SITE_URL is required")
	}
	u, err := url.Parse(s.SiteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SHAREPOINT_SITE_URL must be an absolute URL")
	}
	if s.LocationsList == "" {
		return fmt.Errorf("SHAREPOINT_LOCATIONS_LIST is required")
	}
	if s.ProblemsList == "" {
		return fmt.Errorf("SHAREPOINT_PROBLEMS_LIST is required")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("SHAREPOINT_TIMEOUT must be positive")
	}
	if s.Username != "" && s.Password == "" {
		return fmt.Errorf("SHAREPOINT_PASSWORD is required when SHAREPOINT_USERNAME is set")
	}
	return nil
}

func (d DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
