package session

import (
	"encoding/json"
	"errors"

	"github.com/nats-io/nats.go"

	apperrors "github.com/openlink/openlink/internal/common/errors"
	"github.com/openlink/openlink/internal/common/logger"
	"github.com/openlink/openlink/pkg/models"
	"github.com/openlink/openlink/pkg/subjects"
)

// casRetries bounds optimistic-concurrency retries on a stale revision.
const casRetries = 5

// KeyValue is the subset of the JetStream KV API the store uses, extracted
// so tests can run against an in-memory implementation.
type KeyValue interface {
	Get(key string) (nats.KeyValueEntry, error)
	Create(key string, value []byte) (uint64, error)
	Update(key string, value []byte, last uint64) (uint64, error)
	Delete(key string, opts ...nats.DeleteOpt) error
	Keys(opts ...nats.WatchOpt) ([]string, error)
}

// Store persists per-aircraft sessions in a JetStream KV bucket, keyed by
// the aircraft's ACARS address. All mutations go through compare-and-swap
// on the entry revision.
type Store struct {
	kv  KeyValue
	log *logger.Logger
}

// NewStore binds (or creates) the session bucket for a network. With clean
// set the bucket is deleted first, wiping all sessions.
func NewStore(js nats.JetStreamContext, network models.NetworkID, clean bool, log *logger.Logger) (*Store, error) {
	bucket := subjects.SessionBucket(network)
	if clean {
		if err := js.DeleteKeyValue(bucket); err != nil {
			log.WithNetwork(string(network)).Debug("no session bucket to delete")
		}
	}
	kv, err := js.CreateKeyValue(&nats.KeyValueConfig{Bucket: bucket, History: 1})
	if err != nil {
		kv, err = js.KeyValue(bucket)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeTransport, "failed to open session bucket")
		}
	}
	return &Store{kv: kv, log: log}, nil
}

// NewStoreWithKV wraps an existing KV handle, used by tests.
func NewStoreWithKV(kv KeyValue, log *logger.Logger) *Store {
	return &Store{kv: kv, log: log}
}

// Get loads the session for an aircraft address. A missing key returns
// (nil, 0, nil).
func (s *Store) Get(address models.AcarsAddress) (*Session, uint64, error) {
	entry, err := s.kv.Get(string(address))
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, 0, nil
		}
		return nil, 0, apperrors.Wrap(err, apperrors.CodeTransport, "failed to read session")
	}
	if len(entry.Value()) == 0 {
		return nil, entry.Revision(), nil
	}
	var session Session
	if err := json.Unmarshal(entry.Value(), &session); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CodeSerialization, "corrupt session record")
	}
	return &session, entry.Revision(), nil
}

// Update atomically read-modify-writes the session for an aircraft. The
// mutation receives the current session (nil when absent) and returns the
// value to persist; returning nil deletes the record. Stale revisions are
// retried a bounded number of times before surfacing a conflict.
func (s *Store) Update(address models.AcarsAddress, mutate func(*Session) (*Session, error)) (*Session, error) {
	key := string(address)
	for attempt := 0; attempt < casRetries; attempt++ {
		current, revision, err := s.Get(address)
		if err != nil {
			return nil, err
		}

		updated, err := mutate(current)
		if err != nil {
			return nil, err
		}

		if updated == nil {
			if revision == 0 {
				return nil, nil
			}
			if err := s.kv.Delete(key, nats.LastRevision(revision)); err != nil {
				if isRevisionConflict(err) {
					continue
				}
				return nil, apperrors.Wrap(err, apperrors.CodeTransport, "failed to delete session")
			}
			return nil, nil
		}

		data, err := json.Marshal(updated)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeSerialization, "failed to encode session")
		}

		if revision == 0 {
			if _, err := s.kv.Create(key, data); err != nil {
				if isRevisionConflict(err) {
					continue
				}
				return nil, apperrors.Wrap(err, apperrors.CodeTransport, "failed to create session")
			}
			return updated, nil
		}
		if _, err := s.kv.Update(key, data, revision); err != nil {
			if isRevisionConflict(err) {
				continue
			}
			return nil, apperrors.Wrap(err, apperrors.CodeTransport, "failed to update session")
		}
		return updated, nil
	}
	return nil, apperrors.Conflict("session update lost the revision race")
}

// List loads every session in the bucket, used for snapshot replay.
func (s *Store) List() ([]*Session, error) {
	keys, err := s.kv.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.CodeTransport, "failed to list sessions")
	}
	sessions := make([]*Session, 0, len(keys))
	for _, key := range keys {
		session, _, err := s.Get(models.AcarsAddress(key))
		if err != nil {
			return nil, err
		}
		if session != nil {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// isRevisionConflict matches the KV errors raised when another writer won
// the race: wrong last revision on update/delete, or key already created.
func isRevisionConflict(err error) bool {
	if errors.Is(err, nats.ErrKeyExists) {
		return true
	}
	var apiErr *nats.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == nats.JSErrCodeStreamWrongLastSequence
	}
	return false
}
