package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Service owns one catalog database handle. The process keeps two of them,
// primary and live, and never shares a handle between the two roles.
type Service struct {
	db      *gorm.DB
	log     *logger.Logger
	role    string
	dialect string
}

// Open connects to dsn. postgres:// and postgresql:// DSNs (or libpq key=value
// strings) use the Postgres driver; file: and sqlite: DSNs use SQLite.
func Open(logg *logger.Logger, role string, dsn string) (*Service, error) {
	serviceLog := logg.With("service", "DatabaseService", "role", role)

	dialector, dialect, err := dialectorFor(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s database: %w", role, err)
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLog,
		// Postgres keeps the raw *pgconn.PgError so the violated constraint
		// can be named; SQLite errors are translated to gorm.ErrDuplicatedKey.
		TranslateError: dialect == DialectSQLite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", role, err)
	}
	if dialect == DialectSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("%s database handle: %w", role, err)
		}
		// One writer at a time; also keeps :memory: databases alive.
		sqlDB.SetMaxOpenConns(1)
	}

	serviceLog.Info("Database connected", "dialect", dialect, "dsn", dsn)
	return &Service{db: db, log: serviceLog, role: role, dialect: dialect}, nil
}

func (s *Service) DB() *gorm.DB    { return s.db }
func (s *Service) Role() string    { return s.role }
func (s *Service) Dialect() string { return s.dialect }

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(dsn string) (gorm.Dialector, string, error) {
	raw := strings.TrimSpace(dsn)
	lower := strings.ToLower(raw)
	switch {
	case raw == "":
		return nil, "", fmt.Errorf("empty DSN")
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"), strings.Contains(lower, "host="):
		return postgres.Open(raw), DialectPostgres, nil
	case strings.HasPrefix(lower, "sqlite:"):
		return sqlite.Open(strings.TrimPrefix(raw[len("sqlite:"):], "//")), DialectSQLite, nil
	case strings.HasPrefix(lower, "file:"), raw == ":memory:":
		return sqlite.Open(raw), DialectSQLite, nil
	default:
		return nil, "", fmt.Errorf("unsupported DSN scheme (want postgres://, file: or sqlite:)")
	}
}

// IsPostgres reports whether db talks to Postgres. Row locks are only taken there.
func IsPostgres(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == DialectPostgres
}
