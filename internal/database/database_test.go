package database

import (
	"testing"

	"github.com/klokku/scheduler/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestMigrationURL_EscapesCredentials(t *testing.T) {
	cfg := config.Database{Host: "db", Port: 5433, User: "sched", Pass: "p@ss/word", Name: "events", Schema: "scheduler"}

	got := migrationURL(cfg)

	assert.Equal(t, "postgres://sched:p%40ss%2Fword@db:5433/events?search_path=scheduler&sslmode=disable", got)
}

func TestConnString(t *testing.T) {
	cfg := config.Database{Host: "localhost", Port: 5432, User: "sched", Pass: "it's", Name: "events", Schema: "scheduler"}

	got := connString(cfg)

	assert.Equal(t, `host=localhost port=5432 user=sched password='it\'s' dbname=events sslmode=disable options='-c search_path=scheduler'`, got)
}

func TestFindMigrationsPath(t *testing.T) {
	path, err := findMigrationsPath()

	assert.NoError(t, err)
	assert.DirExists(t, path)
}
