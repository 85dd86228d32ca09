package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func stubParameters(t *testing.T, values map[string]string) {
	t.Helper()
	orig := lookupParameter
	lookupParameter = func(name string) string { return values[name] }
	t.Cleanup(func() { lookupParameter = orig })
}

// go test -v --run TestProdDSNSharesParameterStoreCredentials
func TestProdDSNSharesParameterStoreCredentials(t *testing.T) {
	stubParameters(t, map[string]string{
		ssmHostParam:     "db.internal",
		ssmUserParam:     "pulse",
		ssmPasswordParam: "s3cret",
	})
	cfg := PostgresConfig{Host: "localhost", Port: 5432, User: "postgres", DBName: "marketpulse", SSLMode: "require"}

	assert.Equal(t,
		"host=db.internal port=5432 user=pulse password=s3cret dbname=marketpulse sslmode=require",
		cfg.DSN("prod"))
	assert.Equal(t,
		"host=db.internal port=5432 user=pulse password=s3cret dbname=postgres sslmode=require",
		cfg.AdminDSN("prod"))
}

// go test -v --run TestProdDSNFallsBackToConfig
func TestProdDSNFallsBackToConfig(t *testing.T) {
	stubParameters(t, map[string]string{ssmPasswordParam: "s3cret"})
	cfg := PostgresConfig{Host: "localhost", Port: 5432, User: "postgres", DBName: "marketpulse", SSLMode: "disable"}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=s3cret dbname=postgres sslmode=disable",
		cfg.AdminDSN("prod"))
}

// go test -v --run TestDevDSNSkipsParameterStore
func TestDevDSNSkipsParameterStore(t *testing.T) {
	stubParameters(t, map[string]string{ssmHostParam: "db.internal"})
	cfg := PostgresConfig{Host: "localhost", Port: 5432, User: "postgres", DBName: "marketpulse", SSLMode: "disable"}

	assert.Contains(t, cfg.AdminDSN("dev"), "host=localhost ")
	assert.Contains(t, cfg.DSN("dev"), "host=localhost ")
}
