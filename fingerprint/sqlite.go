package fingerprint

import (
	"database/sql"
	"sync"

	_ "github.com/glebarez/go-sqlite"
)

type SQLiteStore struct {
	db         *sql.DB
	writeMutex *sync.Mutex
}

// NewSQLiteStore creates a new store with the given filename as the db.
// If the file name is empty, a new in-memory db is opened.
// Fingerprints stored in a file-backed db survive process restarts, which
// only makes sense when the served files do not change in place.
func NewSQLiteStore(filename string) SQLiteStore {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS fingerprints (
		path TEXT PRIMARY KEY,
		fingerprint TEXT
	)`)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		panic(err)
	}
	return SQLiteStore{
		db:         db,
		writeMutex: &sync.Mutex{},
	}
}

func (s SQLiteStore) GetOrCompute(path string, compute func() (string, error)) (string, error) {
	if fp, ok, err := s.Get(path); err != nil {
		return "", err
	} else if ok {
		return fp, nil
	}
	fp, err := compute()
	if err != nil {
		return "", err
	}
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	// INSERT OR IGNORE keeps the first committed fingerprint if two
	// requests computed concurrently (the values are identical anyway)
	_, err = s.db.Exec("INSERT OR IGNORE INTO fingerprints (path, fingerprint) VALUES (?, ?)", path, fp)
	if err != nil {
		return "", err
	}
	return fp, nil
}

func (s SQLiteStore) Get(path string) (string, bool, error) {
	var fp string
	err := s.db.QueryRow("SELECT fingerprint FROM fingerprints WHERE path = ?", path).Scan(&fp)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return fp, true, nil
}

func (s SQLiteStore) Purge(path string) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("DELETE FROM fingerprints WHERE path = ?", path)
	if err != nil {
		panic(err)
	}
}

func (s SQLiteStore) Len() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM fingerprints").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
