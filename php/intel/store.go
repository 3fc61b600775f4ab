package intel

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/dhamidi/phpintel/php"
)

const (
	DefaultCacheDir = ".phpintel"
	indexKey        = "index"
)

// Store persists the index and per-file declaration sets of one project
// root. Reads never fail: a missing or corrupt blob reads as never scanned.
type Store interface {
	Root() string
	// Exists reports whether the root has ever been scanned.
	Exists() bool
	LoadIndex() *Index
	SaveIndex(x *Index) error
	LoadDeclarations(file string) []php.Declaration
	SaveDeclarations(file string, decls []php.Declaration) error
	Close() error
}

// OpenStore opens the store of kind ("files" or "sqlite") for root.
func OpenStore(kind, root, cacheDir string) (Store, error) {
	if cacheDir == "" {
		cacheDir = DefaultCacheDir
	}
	switch kind {
	case "", "files":
		return NewDirStore(root, cacheDir), nil
	case "sqlite":
		return NewSQLiteStore(root, cacheDir), nil
	}
	return nil, fmt.Errorf("unknown storage %q", kind)
}

// DirStore keeps one blob file per source file plus an index blob under
// <root>/<cacheDir>.
type DirStore struct {
	root string
	dir  string
}

func NewDirStore(root, cacheDir string) *DirStore {
	return &DirStore{root: root, dir: filepath.Join(root, cacheDir)}
}

func (s *DirStore) Root() string { return s.root }
func (s *DirStore) Dir() string  { return s.dir }

func (s *DirStore) Exists() bool {
	info, err := os.Stat(s.dir)
	return err == nil && info.IsDir()
}

func (s *DirStore) LoadIndex() *Index {
	data, ok := s.read(indexKey)
	if !ok {
		return NewIndex()
	}
	x, err := DecodeIndex(data)
	if err != nil {
		log.Warningf("corrupt index in %s: %v", s.dir, err)
		return NewIndex()
	}
	return x
}

func (s *DirStore) SaveIndex(x *Index) error {
	data, err := EncodeIndex(x)
	if err != nil {
		return err
	}
	return s.write(indexKey, data)
}

func (s *DirStore) LoadDeclarations(file string) []php.Declaration {
	data, ok := s.read(FileKey(file))
	if !ok {
		return nil
	}
	decls, err := DecodeDeclarations(data)
	if err != nil {
		log.Warningf("corrupt declarations for %s: %v", file, err)
		return nil
	}
	return decls
}

func (s *DirStore) SaveDeclarations(file string, decls []php.Declaration) error {
	data, err := EncodeDeclarations(decls)
	if err != nil {
		return err
	}
	return s.write(FileKey(file), data)
}

func (s *DirStore) Close() error { return nil }

func (s *DirStore) read(key string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warningf("read %s: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

func (s *DirStore) write(key string, data []byte) error {
	return s.withLock(func() error {
		path := filepath.Join(s.dir, key)
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		return nil
	})
}

func (s *DirStore) withLock(fn func() error) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	fileLock := flock.New(filepath.Join(s.dir, "lock"))
	if err := fileLock.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fileLock.Unlock() }()

	return fn()
}

// SQLiteStore keeps the same blobs as rows of a single SQLite database at
// <root>/<cacheDir>/intel.db. The connection opens lazily so that reading
// an unscanned root creates nothing.
type SQLiteStore struct {
	root string
	dir  string

	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteStore(root, cacheDir string) *SQLiteStore {
	return &SQLiteStore{root: root, dir: filepath.Join(root, cacheDir)}
}

func (s *SQLiteStore) Root() string { return s.root }

func (s *SQLiteStore) path() string { return filepath.Join(s.dir, "intel.db") }

func (s *SQLiteStore) Exists() bool {
	_, err := os.Stat(s.path())
	return err == nil
}

func (s *SQLiteStore) open(create bool) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	if !create && !s.Exists() {
		return nil, os.ErrNotExist
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", s.path())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		`CREATE TABLE IF NOT EXISTS blobs (
			key  TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			data BLOB NOT NULL
		)`,
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize database: %w", err)
		}
	}
	s.db = db
	return db, nil
}

func (s *SQLiteStore) read(key string) ([]byte, bool) {
	db, err := s.open(false)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warningf("%v", err)
		}
		return nil, false
	}
	var data []byte
	err = db.QueryRow(`SELECT data FROM blobs WHERE key = ?`, key).Scan(&data)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warningf("read %s: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

func (s *SQLiteStore) write(key, path string, data []byte) error {
	db, err := s.open(true)
	if err != nil {
		return err
	}
	_, err = db.Exec(`INSERT INTO blobs (key, path, data) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET path = excluded.path, data = excluded.data`, key, path, data)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) LoadIndex() *Index {
	data, ok := s.read(indexKey)
	if !ok {
		return NewIndex()
	}
	x, err := DecodeIndex(data)
	if err != nil {
		log.Warningf("corrupt index in %s: %v", s.path(), err)
		return NewIndex()
	}
	return x
}

func (s *SQLiteStore) SaveIndex(x *Index) error {
	data, err := EncodeIndex(x)
	if err != nil {
		return err
	}
	return s.write(indexKey, "", data)
}

func (s *SQLiteStore) LoadDeclarations(file string) []php.Declaration {
	data, ok := s.read(FileKey(file))
	if !ok {
		return nil
	}
	decls, err := DecodeDeclarations(data)
	if err != nil {
		log.Warningf("corrupt declarations for %s: %v", file, err)
		return nil
	}
	return decls
}

func (s *SQLiteStore) SaveDeclarations(file string, decls []php.Declaration) error {
	data, err := EncodeDeclarations(decls)
	if err != nil {
		return err
	}
	return s.write(FileKey(file), file, data)
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
