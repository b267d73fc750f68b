// Package sqlite implements the slate Store on SQLite.
//
// JSONL files in the data directory are the source of truth. Attach
// rebuilds a fresh SQLite database from them; every committed write is
// persisted back to the affected JSONL file according to the configured
// sync strategy. A lock file keeps a second process from attaching the
// same data directory.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/slate/internal/logging"
	"github.com/mesh-intelligence/slate/pkg/types"
)

var _ types.Store = (*Backend)(nil)

// Backend implements types.Store using SQLite as the query engine and
// JSONL files as the source of truth.
type Backend struct {
	// writeMu serializes writes and the snapshot notifications that follow
	// them, so subscribers see changes in commit order.
	writeMu sync.Mutex

	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	lock     *flock.Flock
	logger   *slog.Logger
	hub      *hub

	syncStrategy  string
	batchSize     int
	batchInterval time.Duration
	pending       map[string]func() error // table name -> persist
	pendingWrites int
	batchTimer    *time.Timer
	batchMu       sync.Mutex
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBackend creates a detached backend. Call Attach before use.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{logger: logging.NewNop(), hub: newHub()}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(slog.String(logging.FieldComponent, "store"))
	return b
}

// Attach locks the data directory, creates a fresh database and loads the
// JSONL files into it.
func (b *Backend) Attach(config types.Config) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire data dir lock: %w", err)
	}
	if !ok {
		return types.ErrDataDirLocked
	}

	db, err := b.openDatabase(dataDir)
	if err != nil {
		_ = lock.Unlock()
		return err
	}

	b.db = db
	b.lock = lock
	b.config = config
	b.config.DataDir = dataDir
	b.syncStrategy = config.EffectiveSyncStrategy()
	b.batchSize = config.BatchSize
	b.batchInterval = config.BatchInterval
	b.pending = make(map[string]func() error)
	b.pendingWrites = 0
	b.attached = true

	if b.syncStrategy == types.SyncBatch && b.batchInterval > 0 {
		b.startBatchTimer()
	}
	b.logger.Info("store attached", slog.String("data_dir", dataDir), slog.String("sync", b.syncStrategy))
	return nil
}

func (b *Backend) openDatabase(dataDir string) (*sql.DB, error) {
	dbPath := filepath.Join(dataDir, dbFile)
	// The database is a cache of the JSONL files and is rebuilt every time.
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return nil, err
	}
	skipped, err := loadAllJSONL(db, dataDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load JSONL: %w", err)
	}
	for file, n := range skipped {
		b.logger.Warn("skipped unreadable records", slog.String("file", file), slog.Int("count", n))
	}
	return db, nil
}

// Detach flushes pending writes, closes the database and releases the
// data directory lock. Detach is idempotent.
func (b *Backend) Detach() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.stopBatchTimer()
	flushErr := b.flushPending()

	if err := b.db.Close(); err != nil && flushErr == nil {
		flushErr = fmt.Errorf("closing database: %w", err)
	}
	b.db = nil
	if err := b.lock.Unlock(); err != nil && flushErr == nil {
		flushErr = fmt.Errorf("release data dir lock: %w", err)
	}
	b.lock = nil
	b.attached = false
	b.hub.reset()
	b.logger.Info("store detached")
	return flushErr
}

// Scenes returns the scene table.
func (b *Backend) Scenes() (types.SceneTable, error) {
	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	return &scenesTable{backend: b}, nil
}

// Fields returns the custom field definition table.
func (b *Backend) Fields() (types.FieldTable, error) {
	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	return &fieldsTable{backend: b}, nil
}

// Columns returns the board column table.
func (b *Backend) Columns() (types.ColumnTable, error) {
	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	return &columnsTable{backend: b}, nil
}

// Projects returns the project registry.
func (b *Backend) Projects() (types.ProjectTable, error) {
	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	return &projectsTable{backend: b}, nil
}

func (b *Backend) checkAttached() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrStoreDetached
	}
	return nil
}

// database returns the open database, or ErrStoreDetached.
func (b *Backend) database() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.db, nil
}

// persist writes table's JSONL file now or queues it, depending on the
// sync strategy. The caller holds writeMu.
func (b *Backend) persist(table string) error {
	b.mu.RLock()
	db, dataDir := b.db, b.config.DataDir
	b.mu.RUnlock()

	var fn func() error
	switch table {
	case tableScenes:
		fn = func() error { return persistScenes(db, dataDir) }
	case tableFields:
		fn = func() error { return persistFields(db, dataDir) }
	case tableColumns:
		fn = func() error { return persistColumns(db, dataDir) }
	case tableProjects:
		fn = func() error { return persistProjects(db, dataDir) }
	default:
		return fmt.Errorf("persist: unknown table %q", table)
	}

	if b.syncStrategy == types.SyncImmediate || b.syncStrategy == "" {
		return fn()
	}

	b.batchMu.Lock()
	defer b.batchMu.Unlock()
	b.pending[table] = fn
	b.pendingWrites++
	if b.syncStrategy == types.SyncBatch && b.batchSize > 0 && b.pendingWrites >= b.batchSize {
		return b.flushPendingLocked()
	}
	return nil
}

// flushPending writes every queued table file.
func (b *Backend) flushPending() error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()
	return b.flushPendingLocked()
}

// flushPendingLocked requires batchMu.
func (b *Backend) flushPendingLocked() error {
	for _, table := range []string{tableProjects, tableScenes, tableFields, tableColumns} {
		fn, ok := b.pending[table]
		if !ok {
			continue
		}
		if err := fn(); err != nil {
			return fmt.Errorf("flush %s: %w", table, err)
		}
		delete(b.pending, table)
	}
	b.pendingWrites = 0
	return nil
}

// startBatchTimer flushes queued writes every batchInterval. The caller
// holds mu.
func (b *Backend) startBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()
	if b.batchTimer != nil {
		return
	}
	tick := func() {
		b.writeMu.Lock()
		defer b.writeMu.Unlock()
		if err := b.checkAttached(); err != nil {
			return
		}
		if err := b.flushPending(); err != nil {
			b.logger.Error("batch flush failed", slog.Any("error", err))
		}
		b.batchMu.Lock()
		if b.batchTimer != nil {
			b.batchTimer.Reset(b.batchInterval)
		}
		b.batchMu.Unlock()
	}
	b.batchTimer = time.AfterFunc(b.batchInterval, tick)
}

func (b *Backend) stopBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()
	if b.batchTimer != nil {
		b.batchTimer.Stop()
		b.batchTimer = nil
	}
}

// newID returns a UUID v7, falling back to v4.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
