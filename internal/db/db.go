package db

import (
	"fmt"
	"time"

	"github.com/waw-schedule/backend/internal/config"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// DuplicateEntry is the MySQL error number for a unique key violation.
const DuplicateEntry = 1062

// New opens the account store and checks it answers.
func New(cfg config.Database) (*sqlx.DB, error) {
	dsn, err := mysqlConfig(cfg)
	if err != nil {
		return nil, err
	}

	dbConn, err := sqlx.Connect("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("db connection failed: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConnections)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConnections)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}

	return dbConn, nil
}

func mysqlConfig(cfg config.Database) (*mysql.Config, error) {
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time load location failed: %w", err)
	}

	conf := mysql.NewConfig()
	conf.Net = cfg.Net
	conf.Addr = cfg.Server
	conf.User = cfg.User
	conf.Passwd = cfg.Password
	conf.DBName = cfg.DBName
	conf.Timeout = cfg.Timeout
	conf.Loc = location
	conf.ParseTime = true
	// rows matched, not rows changed: rewriting last_logout_at with the same
	// value must still count as found
	conf.ClientFoundRows = true

	return conf, nil
}
