// Package actorhost is the keyed single-writer execution substrate the room
// and directory actors run on. It guarantees at most one in-flight invocation
// per key, gives each key a private durable key-value view, and exposes
// synchronous request/response invocation between actors.
package actorhost

import (
	"sync"
)

// Backend is the durable store shared by all keys. Each actor only ever sees
// its own records through the scoped Storage view.
type Backend interface {
	GetActorState(key string) (value []byte, ok bool, err error)
	PutActorState(key string, value []byte) error
}

// Storage is the per-actor durable view handed to an invocation. Writes are
// visible to any later invocation of the same key before the current one
// returns.
type Storage interface {
	Get(name string) (value []byte, ok bool, err error)
	Put(name string, value []byte) error
}

type scopedStorage struct {
	backend Backend
	prefix  string
}

func (s *scopedStorage) Get(name string) ([]byte, bool, error) {
	return s.backend.GetActorState(s.prefix + "/" + name)
}

func (s *scopedStorage) Put(name string, value []byte) error {
	return s.backend.PutActorState(s.prefix+"/"+name, value)
}

// Host serializes invocations per key. Different keys run concurrently;
// the same key never does.
type Host struct {
	backend Backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(backend Backend) *Host {
	return &Host{
		backend: backend,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (h *Host) lockFor(key string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.locks[key]
	if !ok {
		l = &sync.Mutex{}
		h.locks[key] = l
	}
	return l
}

// Do runs fn as the sole in-flight invocation for key, with that key's
// durable storage. Cross-key calls from inside fn are fine; re-invoking the
// same key from inside fn would deadlock, matching the substrate's
// one-mutation-at-a-time contract.
func (h *Host) Do(key string, fn func(st Storage) error) error {
	l := h.lockFor(key)
	l.Lock()
	defer l.Unlock()
	return fn(&scopedStorage{backend: h.backend, prefix: key})
}

// MemoryBackend is a map-backed Backend for tests and ephemeral deployments.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) GetActorState(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryBackend) PutActorState(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}
