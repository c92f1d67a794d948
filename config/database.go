package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"pipeline"`
	Password string `env:"PASSWORD" envDefault:"pipeline"`
	Name     string `env:"NAME"     envDefault:"pipeline"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically
	// applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// CacheConfig contains the Redis-backed creator profile cache configuration.
type CacheConfig struct {
	// Enabled turns the profile read-through cache on. When off, the
	// personalizer reads profiles straight from Postgres.
	Enabled       bool   `env:"ENABLED"        envDefault:"false"`
	RedisAddr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB"       envDefault:"0"`

	// ProfileTTL is the TTL for cached creator profiles.
	ProfileTTL time.Duration `env:"PROFILE_TTL" envDefault:"5m"`
}
