package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains suite and tooling configuration parameters.
type Config struct {
	LogLevel    int         `env:"LOG_LEVEL" envDefault:"0"`
	Postgres    Postgres    `envPrefix:"POSTGRES_"`
	Storage     Storage     `envPrefix:"MINIO_"`
	Cipher      Cipher      `envPrefix:"CIPHER_"`
	Performance Performance `envPrefix:"PERF_"`
}

// Postgres contains database connection parameters.
type Postgres struct {
	Host      string `env:"HOST" envDefault:"localhost"`
	Port      string `env:"PORT" envDefault:"5432"`
	DB        string `env:"DB" envDefault:"vault_db"`
	User      string `env:"USER" envDefault:"vault_admin"`
	Password  string `env:"PASSWORD" envDefault:"vault_admin"`
	AdminUser string `env:"ADMIN_USER" envDefault:"postgres"`
	// AdminPassword may be empty for trust or peer authentication.
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminDB       string `env:"ADMIN_DB" envDefault:"postgres"`
	SSLMode       string `env:"SSLMODE" envDefault:"disable"`
}

// DSN returns the connection string of the vault database.
func (p Postgres) DSN() string {
	return p.dsn(url.UserPassword(p.User, p.Password), p.DB)
}

// AdminDSN returns the connection string used to provision roles and databases.
func (p Postgres) AdminDSN() string {
	if p.AdminPassword == "" {
		return p.dsn(url.User(p.AdminUser), p.AdminDB)
	}
	return p.dsn(url.UserPassword(p.AdminUser, p.AdminPassword), p.AdminDB)
}

func (p Postgres) dsn(user *url.Userinfo, db string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + db,
		RawQuery: url.Values{"sslmode": []string{p.SSLMode}}.Encode(),
	}
	return u.String()
}

// Storage contains object storage parameters.
type Storage struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"vaultqa-access-key"`
	SecretKey string `env:"SECRET_KEY" envDefault:"vaultqa-secret-key"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"vaultqa-exports"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// Cipher selects the authenticated encryption algorithm for vault payloads.
type Cipher struct {
	Algorithm string `env:"ALGORITHM" envDefault:"aes-256-gcm"`
}

// Performance contains latency thresholds checked by the performance suite.
type Performance struct {
	BulkInsertMax   time.Duration `env:"BULK_INSERT_MAX" envDefault:"5s"`
	BulkInsertRows  int           `env:"BULK_INSERT_ROWS" envDefault:"100"`
	IndexedQueryMax time.Duration `env:"INDEXED_QUERY_MAX" envDefault:"100ms"`
	IndexedRows     int           `env:"INDEXED_ROWS" envDefault:"50"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
