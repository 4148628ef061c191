// Package db selects a store driver by name.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zhouzirui/zenora/backend/internal/store"
	"github.com/zhouzirui/zenora/backend/internal/store/db/memory"
	"github.com/zhouzirui/zenora/backend/internal/store/db/mysql"
	"github.com/zhouzirui/zenora/backend/internal/store/db/postgres"
	"github.com/zhouzirui/zenora/backend/internal/store/db/sqlite"
)

// ErrUnknownDriver is returned for an unsupported DB_DRIVER value.
var ErrUnknownDriver = errors.New("unknown store driver")

// ErrDSNRequired is returned when a SQL driver is selected without a DSN.
var ErrDSNRequired = errors.New("DB_DSN is required for this driver")

// NewDriver opens the named driver.
func NewDriver(ctx context.Context, name, dsn string) (store.Driver, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "memory" {
		return memory.NewDB(), nil
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrDSNRequired)
	}

	var (
		driver store.Driver
		err    error
	)
	switch name {
	case "sqlite":
		driver, err = sqlite.NewDB(ctx, dsn)
	case "postgres":
		driver, err = postgres.NewDB(ctx, dsn)
	case "mysql":
		driver, err = mysql.NewDB(ctx, dsn)
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownDriver)
	}
	if err != nil {
		return nil, err
	}
	return driver, nil
}

// Open returns a migrated Store backed by the named driver.
func Open(ctx context.Context, name, dsn string) (*store.Store, error) {
	driver, err := NewDriver(ctx, name, dsn)
	if err != nil {
		return nil, err
	}
	s := store.New(driver)
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate %s store: %w", name, err)
	}
	return s, nil
}
