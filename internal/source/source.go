// Package source manages the databases a chat session can query. Each
// configured source wraps a database/sql connection behind a read-only
// execution surface.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"  // postgres driver
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
	_ "modernc.org/sqlite"              // sqlite driver (pure Go)
)

// Config describes one queryable database.
type Config struct {
	Name     string            `koanf:"name"`
	Driver   string            `koanf:"driver"`
	Path     string            `koanf:"path"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	Username string            `koanf:"username"`
	Password string            `koanf:"password"`
	Options  map[string]string `koanf:"options"`
}

type driverSpec struct {
	sqlDriver string
	dialect   string
	dsn       func(Config) string
}

var drivers = map[string]driverSpec{
	"sqlite": {
		sqlDriver: "sqlite",
		dialect:   "SQLite",
		dsn:       sqliteDSN,
	},
	"postgres": {
		sqlDriver: "pgx",
		dialect:   "PostgreSQL",
		dsn:       postgresDSN,
	},
	"duckdb": {
		sqlDriver: "duckdb",
		dialect:   "DuckDB",
		dsn:       duckdbDSN,
	},
}

// DriverNames returns the supported driver names, sorted.
func DriverNames() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sqliteDSN(cfg Config) string {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	return path + "?_pragma=query_only(1)"
}

func duckdbDSN(cfg Config) string {
	return cfg.Path
}

func postgresDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)
	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return dsn
}

// Source is one open database connection.
type Source struct {
	name    string
	driver  string
	dialect string
	db      *sql.DB
	logger  *slog.Logger
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("source name not specified")
	}

	spec, ok := drivers[cfg.Driver]
	if !ok {
		return nil, &UnknownDriverError{Driver: cfg.Driver, Available: DriverNames()}
	}

	logger.Debug("connecting to source",
		slog.String("source", cfg.Name),
		slog.String("driver", cfg.Driver))

	db, err := sql.Open(spec.sqlDriver, spec.dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", cfg.Driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s source %q: %w", cfg.Driver, cfg.Name, err)
	}

	return &Source{
		name:    cfg.Name,
		driver:  cfg.Driver,
		dialect: spec.dialect,
		db:      db,
		logger:  logger,
	}, nil
}

// Name returns the configured source name.
func (s *Source) Name() string { return s.name }

// Driver returns the driver name ("sqlite", "postgres", "duckdb").
func (s *Source) Driver() string { return s.driver }

// Dialect returns the human-readable SQL dialect name, used in prompts.
func (s *Source) Dialect() string { return s.dialect }

// DB returns the underlying connection.
func (s *Source) DB() *sql.DB { return s.db }

// Close closes the connection.
func (s *Source) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// UnknownDriverError is returned when a config names an unsupported driver.
type UnknownDriverError struct {
	Driver    string
	Available []string
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("unknown source driver %q (available: %v)", e.Driver, e.Available)
}

// Registry holds the opened sources by name.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*Source
	order   []string
}

// NewRegistry opens every configured source. It fails on the first
// source that cannot be reached.
func NewRegistry(ctx context.Context, cfgs []Config, logger *slog.Logger) (*Registry, error) {
	r := &Registry{sources: make(map[string]*Source)}
	for _, cfg := range cfgs {
		src, err := Open(ctx, cfg, logger)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.Add(src)
	}
	return r, nil
}

// Add registers an opened source.
func (r *Registry) Add(src *Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sources[src.name]; !exists {
		r.order = append(r.order, src.name)
	}
	r.sources[src.name] = src
}

// Get returns the source with the given name. An empty name returns the
// first configured source.
func (r *Registry) Get(name string) (*Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		if len(r.order) == 0 {
			return nil, fmt.Errorf("no sources configured")
		}
		return r.sources[r.order[0]], nil
	}
	src, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("unknown source %q (available: %v)", name, r.names())
	}
	return src, nil
}

// Names returns the configured source names in config order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) names() []string {
	return append([]string(nil), r.order...)
}

// Close closes all sources and returns the first error seen.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, src := range r.sources {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
