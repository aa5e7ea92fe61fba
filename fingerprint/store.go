package fingerprint

import "sync"

// Store is an interface for a fingerprint store.
// It maps canonical file paths to content fingerprints (uppercase hex strings).
// Entries are added lazily on first access to a path and are never removed:
// once a fingerprint is stored for a path, the serving code will keep
// returning it even if the file changes on disk afterwards. This is a
// deliberate tradeoff for file trees that are immutable or versioned by path.
//
// Implementations must be thread-safe!
type Store interface {
	// GetOrCompute returns the fingerprint stored for the given path.
	// If the path is not present, compute is invoked, its result stored
	// under the path, and returned. If compute fails, the error is returned
	// and nothing is stored.
	// Two concurrent calls for the same uncached path may both invoke
	// compute; this is fine, since compute is deterministic for unchanged
	// file content and last write wins with an identical value.
	// Implementations must not hold any lock while compute runs.
	GetOrCompute(path string, compute func() (string, error)) (string, error)
	// Get returns the fingerprint for the given path, if it exists.
	// It also returns a boolean indicating whether the path was present.
	Get(path string) (string, bool, error)
	// Purge removes the fingerprint stored for the given path.
	// It is a utility method that is not used by the serving code.
	Purge(path string)
	// Len returns the number of stored fingerprints.
	Len() (int, error)
}

type MemStore struct {
	mutex *sync.Mutex
	db    map[string]string
}

func NewMemStore() MemStore {
	return MemStore{
		mutex: &sync.Mutex{},
		db:    make(map[string]string),
	}
}

func (m MemStore) GetOrCompute(path string, compute func() (string, error)) (string, error) {
	m.mutex.Lock()
	fp, ok := m.db[path]
	m.mutex.Unlock()
	if ok {
		return fp, nil
	}
	fp, err := compute()
	if err != nil {
		return "", err
	}
	m.mutex.Lock()
	m.db[path] = fp
	m.mutex.Unlock()
	return fp, nil
}

func (m MemStore) Get(path string) (string, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	fp, ok := m.db[path]
	return fp, ok, nil
}

func (m MemStore) Purge(path string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.db, path)
}

func (m MemStore) Len() (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.db), nil
}
