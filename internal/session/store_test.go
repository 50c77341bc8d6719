package session

import (
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlink/openlink/internal/common/logger"
	"github.com/openlink/openlink/pkg/models"
)

type fakeEntry struct {
	key      string
	value    []byte
	revision uint64
}

func (e *fakeEntry) Bucket() string             { return "test" }
func (e *fakeEntry) Key() string                { return e.key }
func (e *fakeEntry) Value() []byte              { return e.value }
func (e *fakeEntry) Revision() uint64           { return e.revision }
func (e *fakeEntry) Created() time.Time         { return time.Time{} }
func (e *fakeEntry) Delta() uint64              { return 0 }
func (e *fakeEntry) Operation() nats.KeyValueOp { return nats.KeyValuePut }

// fakeKV is an in-memory KeyValue with real revision semantics. The
// onUpdate hook lets tests interleave a competing writer mid-transaction.
type fakeKV struct {
	mu       sync.Mutex
	entries  map[string]*fakeEntry
	revision uint64
	onGet    func()
}

func newFakeKV() *fakeKV {
	return &fakeKV{entries: map[string]*fakeEntry{}}
}

func (kv *fakeKV) Get(key string) (nats.KeyValueEntry, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	entry, ok := kv.entries[key]
	if !ok {
		return nil, nats.ErrKeyNotFound
	}
	copied := *entry
	// The hook runs after the snapshot is taken, so a competing write
	// leaves this reader holding a stale revision.
	if kv.onGet != nil {
		kv.onGet()
	}
	return &copied, nil
}

func (kv *fakeKV) Create(key string, value []byte) (uint64, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if _, ok := kv.entries[key]; ok {
		return 0, nats.ErrKeyExists
	}
	return kv.put(key, value), nil
}

func (kv *fakeKV) Update(key string, value []byte, last uint64) (uint64, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	entry, ok := kv.entries[key]
	if !ok || entry.revision != last {
		return 0, &nats.APIError{ErrorCode: nats.JSErrCodeStreamWrongLastSequence}
	}
	return kv.put(key, value), nil
}

func (kv *fakeKV) put(key string, value []byte) uint64 {
	kv.revision++
	kv.entries[key] = &fakeEntry{key: key, value: value, revision: kv.revision}
	return kv.revision
}

func (kv *fakeKV) Delete(key string, opts ...nats.DeleteOpt) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.entries, key)
	return nil
}

func (kv *fakeKV) Keys(opts ...nats.WatchOpt) ([]string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if len(kv.entries) == 0 {
		return nil, nats.ErrNoKeysFound
	}
	keys := make([]string, 0, len(kv.entries))
	for key := range kv.entries {
		keys = append(keys, key)
	}
	return keys, nil
}

func newTestStore() (*Store, *fakeKV) {
	kv := newFakeKV()
	return NewStoreWithKV(kv, logger.Default()), kv
}

func TestStoreCreateAndGet(t *testing.T) {
	store, _ := newTestStore()

	created, err := store.Update(aircraft.Address, func(current *Session) (*Session, error) {
		require.Nil(t, current)
		s := New(aircraft)
		s.ApplyLogonRequest(station1)
		return s, nil
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	loaded, revision, err := store.Get(aircraft.Address)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.NotZero(t, revision)
	assert.Equal(t, aircraft, loaded.Aircraft)
	require.NotNil(t, loaded.ActiveConnection)
	assert.Equal(t, station1, loaded.ActiveConnection.Station)
}

func TestStoreGetMissing(t *testing.T) {
	store, _ := newTestStore()

	session, revision, err := store.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Zero(t, revision)
}

func TestStoreUpdateExisting(t *testing.T) {
	store, _ := newTestStore()

	_, err := store.Update(aircraft.Address, func(*Session) (*Session, error) {
		s := New(aircraft)
		s.ApplyLogonRequest(station1)
		return s, nil
	})
	require.NoError(t, err)

	updated, err := store.Update(aircraft.Address, func(current *Session) (*Session, error) {
		require.NotNil(t, current)
		current.ApplyLogonAccepted(station1)
		return current, nil
	})
	require.NoError(t, err)
	assert.True(t, updated.ActiveConnection.Logon)
}

func TestStoreDeleteOnNil(t *testing.T) {
	store, kv := newTestStore()

	_, err := store.Update(aircraft.Address, func(*Session) (*Session, error) {
		return New(aircraft), nil
	})
	require.NoError(t, err)

	result, err := store.Update(aircraft.Address, func(*Session) (*Session, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Empty(t, kv.entries)
}

func TestStoreRetriesOnRevisionRace(t *testing.T) {
	store, kv := newTestStore()

	_, err := store.Update(aircraft.Address, func(*Session) (*Session, error) {
		return New(aircraft), nil
	})
	require.NoError(t, err)

	// A competing writer bumps the revision between read and write, once.
	raced := false
	kv.onGet = func() {
		if raced {
			return
		}
		raced = true
		entry := kv.entries[string(aircraft.Address)]
		kv.put(entry.key, entry.value)
	}

	attempts := 0
	_, err = store.Update(aircraft.Address, func(current *Session) (*Session, error) {
		attempts++
		current.ApplyLogonRequest(station1)
		return current, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestStoreSurfacesExhaustedRetries(t *testing.T) {
	store, kv := newTestStore()

	_, err := store.Update(aircraft.Address, func(*Session) (*Session, error) {
		return New(aircraft), nil
	})
	require.NoError(t, err)

	// Every read is followed by a competing write.
	kv.onGet = func() {
		if entry, ok := kv.entries[string(aircraft.Address)]; ok {
			kv.put(entry.key, entry.value)
		}
	}

	_, err = store.Update(aircraft.Address, func(current *Session) (*Session, error) {
		current.ApplyLogonRequest(station1)
		return current, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revision race")
}

func TestStoreList(t *testing.T) {
	store, _ := newTestStore()

	empty, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, empty)

	other := models.NewAcarsEndpoint("BAW42", "xyz")
	for _, endpoint := range []models.AcarsEndpoint{aircraft, other} {
		endpoint := endpoint
		_, err := store.Update(endpoint.Address, func(*Session) (*Session, error) {
			return New(endpoint), nil
		})
		require.NoError(t, err)
	}

	sessions, err := store.List()
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
