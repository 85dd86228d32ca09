package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// PostgresConfig defines the connection to the optional Postgres live table.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// Parameter Store names holding production credentials.
const (
	ssmHostParam     = "MARKETPULSE_DB_HOST"
	ssmUserParam     = "MARKETPULSE_DB_USER"
	ssmPasswordParam = "MARKETPULSE_DB_PASSWORD"
)

// DSN builds a lib/pq connection string. In "prod" the host and credentials
// come from AWS SSM Parameter Store; an unreadable parameter falls back to the
// configured value.
func (cfg *PostgresConfig) DSN(env string) string {
	host, user, password := cfg.credentials(env)
	return cfg.dsn(host, user, password, cfg.DBName)
}

// AdminDSN is DSN pointed at the server's default "postgres" database, used to
// create the target database on first start.
func (cfg *PostgresConfig) AdminDSN(env string) string {
	host, user, password := cfg.credentials(env)
	return cfg.dsn(host, user, password, "postgres")
}

// lookupParameter reads one Parameter Store value, "" when unavailable.
var lookupParameter = func(name string) string {
	return getParameterStoreValue(name, true)
}

func (cfg *PostgresConfig) credentials(env string) (host, user, password string) {
	host, user, password = cfg.Host, cfg.User, cfg.Password
	if env == "prod" {
		host = firstNonEmpty(lookupParameter(ssmHostParam), host)
		user = firstNonEmpty(lookupParameter(ssmUserParam), user)
		password = firstNonEmpty(lookupParameter(ssmPasswordParam), password)
	}
	return host, user, password
}

func (cfg *PostgresConfig) dsn(host, user, password, dbname string) string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, cfg.Port, user, password, dbname, cfg.SSLMode,
	)

	if cfg.TimeZone != "" {
		dsn += fmt.Sprintf(" TimeZone=%s", cfg.TimeZone)
	}

	return dsn
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getParameterStoreValue(parameterName string, decrypt bool) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return ""
	}

	client := ssm.NewFromConfig(cfg)

	input := &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	}

	result, err := client.GetParameter(ctx, input)
	if err != nil {
		return ""
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return ""
	}

	return *result.Parameter.Value
}
