package database

import (
	"context"
	"embed"
	"sync"

	"github.com/juju/errors"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/accounts/*.sql migrations/products/*.sql
var migrationsFS embed.FS

// Migration sets, one per service database.
const (
	AccountsMigrations = "migrations/accounts"
	ProductsMigrations = "migrations/products"
)

// goose keeps its dialect and filesystem in package globals.
var gooseMu sync.Mutex

// Migrate applies every pending migration in set to db.
func Migrate(ctx context.Context, db *gorm.DB, set string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Trace(err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(dialectFor(db)); err != nil {
		return errors.Trace(err)
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{})
	if err := goose.UpContext(ctx, sqlDB, set); err != nil {
		return errors.Annotatef(err, "migrate %s", set)
	}
	return nil
}

func dialectFor(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return "sqlite3"
	}
	return "mysql"
}

type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...interface{}) { logger.Criticalf(format, v...) }
func (gooseLogger) Printf(format string, v ...interface{}) { logger.Infof(format, v...) }
