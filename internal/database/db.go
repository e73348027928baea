package database

import (
	"context"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/iliyamo/storefront/internal/config"
)

var logger = loggo.GetLogger("storefront.database")

// Open connects to the configured store and verifies the connection.  Each
// request gets its own short-lived session from the pool; nothing here holds
// state across requests.
func Open(ctx context.Context, cfg config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql", "":
		dialector = gormmysql.New(gormmysql.Config{DSN: cfg.DSN()})
	case "sqlite":
		dialector = sqlite.Dialector{DriverName: "sqlite", DSN: cfg.Path}
	default:
		return nil, errors.NotSupportedf("database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(gormWriter{}, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Annotatef(err, "open %s", cfg.Driver)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Trace(err)
	}
	// Pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, errors.Annotate(err, "ping database")
	}
	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warningf("close database: %v", err)
	}
}

// IsDuplicateKey reports whether err is a unique constraint violation from
// MySQL (error 1062) or SQLite.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// gormWriter routes GORM's own logging through loggo.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.Warningf(format, args...)
}
