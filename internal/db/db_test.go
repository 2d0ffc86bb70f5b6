package db

import (
	"testing"
	"time"

	"github.com/waw-schedule/backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLConfig(t *testing.T) {
	conf, err := mysqlConfig(config.Database{
		Net:      "tcp",
		Server:   "localhost:3306",
		DBName:   "waw",
		User:     "waw",
		Password: "secret",
		TimeZone: "UTC",
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)

	assert.True(t, conf.ClientFoundRows)
	assert.True(t, conf.ParseTime)
	assert.Equal(t, time.UTC, conf.Loc)
	assert.Contains(t, conf.FormatDSN(), "clientFoundRows=true")
}

func TestMySQLConfig_BadTimeZone(t *testing.T) {
	_, err := mysqlConfig(config.Database{TimeZone: "Mars/Olympus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time load location failed")
}
