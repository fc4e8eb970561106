package db

import (
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cashbook/internal/model"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Options describe how to reach the document store.
type Options struct {
	Driver string
	DSN    string
	// DBName overrides the schema named in a MySQL DSN.
	DBName  string
	LogMode bool
}

// Open returns a connected GORM DB instance for the configured driver.
func Open(opts Options) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.Default
	if !opts.LogMode {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", opts.Driver, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if opts.Driver == DriverSQLite {
		// one connection keeps in-memory databases shared across queries
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", opts.Driver, err)
	}
	return gormDB, nil
}

func dialectorFor(opts Options) (gorm.Dialector, error) {
	switch opts.Driver {
	case DriverMySQL, "":
		parsed, err := mysqldriver.ParseDSN(opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		if opts.DBName != "" {
			parsed.DBName = opts.DBName
		}
		// report matched rather than changed rows so an identical replace
		// is not mistaken for a missing sheet
		parsed.ClientFoundRows = true
		return mysql.Open(parsed.FormatDSN()), nil
	case DriverSQLite:
		return sqlite.Open(opts.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", opts.Driver)
	}
}

// Migrate creates the users and sheets collections.
func Migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(&model.User{}, &model.Sheet{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Close releases the pooled connection.
func Close(gormDB *gorm.DB) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenMemory opens and migrates a private in-memory sqlite store.
func OpenMemory() (*gorm.DB, error) {
	gormDB, err := Open(Options{Driver: DriverSQLite, DSN: "file::memory:"})
	if err != nil {
		return nil, err
	}
	if err := Migrate(gormDB); err != nil {
		return nil, err
	}
	return gormDB, nil
}
