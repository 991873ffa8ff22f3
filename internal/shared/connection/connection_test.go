package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leave-portal/internal/config"
)

func TestPostgresDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost: "db", DBPort: "5433", DBUser: "leave", DBPassword: "secret",
		DBName: "leave_portal", DBSSLMode: "disable",
	}
	assert.Equal(t,
		"host=db user=leave password=secret dbname=leave_portal port=5433 sslmode=disable",
		PostgresDSN(cfg),
	)
}
