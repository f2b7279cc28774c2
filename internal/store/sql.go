package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	// modernc pure-Go SQLite driver — no CGO required.
	// Registers itself as "sqlite" in database/sql.
	_ "modernc.org/sqlite"
)

// SQL is a Store backed by a relational database through GORM. Todos are
// rows in a single table; the schema is created with AutoMigrate on open.
// Deployments that cannot run MongoDB use this backend with SQLite or
// PostgreSQL.
type SQL struct {
	db *gorm.DB
}

// SQLConfig holds the configuration required to open a SQL-backed store.
// Driver defaults to "sqlite" if left empty.
type SQLConfig struct {
	Driver   string // "sqlite" or "postgres"
	DSN      string
	Logger   *zap.Logger
	LogLevel gormlogger.LogLevel
}

// OpenSQL opens the database connection, migrates the todos table, and
// returns the ready-to-use store. Like OpenMongo, a failure here is
// fatal at startup.
func OpenSQL(cfg SQLConfig) (*SQL, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("store: logger is required")
	}

	gormCfg := &gorm.Config{
		Logger: newGormLogger(cfg.Logger, cfg.LogLevel),
	}

	var (
		database *gorm.DB
		err      error
	)

	switch cfg.Driver {
	case "sqlite", "":
		// Open the connection manually via database/sql using the modernc
		// driver (registered as "sqlite"), then hand the existing *sql.DB
		// to GORM so it does not try to open a second connection with
		// go-sqlite3.
		var sqlDB *sql.DB
		sqlDB, err = sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("store: failed to open sqlite: %w", err)
		}
		// SQLite supports only one writer at a time.
		sqlDB.SetMaxOpenConns(1)

		database, err = gorm.Open(gormsqlite.Dialector{Conn: sqlDB}, gormCfg)
		if err != nil {
			return nil, fmt.Errorf("store: failed to initialize gorm with sqlite: %w", err)
		}

	case "postgres":
		database, err = gorm.Open(gormpostgres.Open(cfg.DSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("store: failed to open postgres: %w", err)
		}
		sqlDB, dbErr := database.DB()
		if dbErr != nil {
			return nil, fmt.Errorf("store: failed to get sql.DB: %w", dbErr)
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)

	default:
		return nil, fmt.Errorf("store: unsupported driver %q, use \"sqlite\" or \"postgres\"", cfg.Driver)
	}

	if err := database.AutoMigrate(&Todo{}); err != nil {
		return nil, fmt.Errorf("store: migrating todos table: %w", err)
	}

	return &SQL{db: database}, nil
}

// Ping implements Store.
func (s *SQL) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("store: failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close implements Store.
func (s *SQL) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("store: failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// FindAll implements Store. Rows come back in primary-key order, which
// is this backend's natural iteration order.
func (s *SQL) FindAll(ctx context.Context) ([]Todo, error) {
	var todos []Todo
	if err := s.db.WithContext(ctx).Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("store: querying todos: %w", err)
	}
	return todos, nil
}

// FindByID implements Store.
func (s *SQL) FindByID(ctx context.Context, id string) (*Todo, error) {
	var todo Todo
	err := s.db.WithContext(ctx).First(&todo, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: querying todo %s: %w", id, err)
	}
	return &todo, nil
}

// Insert implements Store. IDs are random UUIDs assigned here — SQL has
// no ObjectID generator and auto-increment integers would be reused
// after deletes.
func (s *SQL) Insert(ctx context.Context, todo Todo) (*Todo, error) {
	todo.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&todo).Error; err != nil {
		return nil, fmt.Errorf("store: inserting todo: %w", err)
	}
	return &todo, nil
}

// Update implements Store. Select("*") forces a full-row replacement so
// zero values (status back to open, zero due date) are persisted too.
func (s *SQL) Update(ctx context.Context, id string, todo Todo) (*Todo, error) {
	todo.ID = id
	res := s.db.WithContext(ctx).Model(&Todo{}).
		Where("id = ?", id).
		Select("*").
		Updates(todo)
	if res.Error != nil {
		return nil, fmt.Errorf("store: updating todo %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &todo, nil
}

// Delete implements Store.
func (s *SQL) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&Todo{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("store: deleting todo %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
