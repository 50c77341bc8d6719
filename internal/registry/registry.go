// Package registry tracks the ground stations of a network: their status,
// network address, and ACARS endpoint, persisted in a JetStream KV bucket
// with a secondary callsign index for O(1) logon resolution.
package registry

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	apperrors "github.com/openlink/openlink/internal/common/errors"
	"github.com/openlink/openlink/internal/common/logger"
	"github.com/openlink/openlink/pkg/models"
	"github.com/openlink/openlink/pkg/subjects"
)

// KeyValue is the subset of the JetStream KV API the registry uses,
// extracted so tests can run against an in-memory implementation.
type KeyValue interface {
	Get(key string) (nats.KeyValueEntry, error)
	Put(key string, value []byte) (uint64, error)
	Delete(key string, opts ...nats.DeleteOpt) error
	Keys(opts ...nats.WatchOpt) ([]string, error)
}

// StationEntry is one registered ground station.
type StationEntry struct {
	StationID      models.StationID      `json:"station_id"`
	Status         models.StationStatus  `json:"status"`
	LastUpdated    time.Time             `json:"last_updated"`
	NetworkAddress models.NetworkAddress `json:"network_address"`
	AcarsEndpoint  models.AcarsEndpoint  `json:"acars_endpoint"`
}

type callsignIndexEntry struct {
	StationID models.StationID `json:"station_id"`
}

// Registry is the station registry of a single network.
type Registry struct {
	stations KeyValue
	index    KeyValue
	log      *logger.Logger
	now      func() time.Time
}

// New binds (or creates) the registry and callsign-index buckets for a
// network. With clean set both buckets are deleted first.
func New(js nats.JetStreamContext, network models.NetworkID, clean bool, log *logger.Logger) (*Registry, error) {
	stations, err := openBucket(js, subjects.RegistryBucket(network), clean, log)
	if err != nil {
		return nil, err
	}
	index, err := openBucket(js, subjects.CallsignBucket(network), clean, log)
	if err != nil {
		return nil, err
	}
	return NewWithKV(stations, index, log), nil
}

// NewWithKV wraps existing KV handles, used by tests.
func NewWithKV(stations, index KeyValue, log *logger.Logger) *Registry {
	return &Registry{stations: stations, index: index, log: log, now: time.Now}
}

func openBucket(js nats.JetStreamContext, bucket string, clean bool, log *logger.Logger) (nats.KeyValue, error) {
	if clean {
		if err := js.DeleteKeyValue(bucket); err != nil {
			log.Debug("no bucket to delete", zap.String("bucket", bucket))
		}
	}
	kv, err := js.CreateKeyValue(&nats.KeyValueConfig{Bucket: bucket, History: 1})
	if err != nil {
		kv, err = js.KeyValue(bucket)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeTransport, "failed to open bucket "+bucket)
		}
	}
	return kv, nil
}

// UpdateStatus upserts a station entry with the current timestamp,
// resetting its lease. The callsign index tracks online stations only; a
// callsign change drops the stale index key.
func (r *Registry) UpdateStatus(id models.StationID, status models.StationStatus, endpoint models.AcarsEndpoint, address models.NetworkAddress) error {
	if existing, err := r.GetStatus(id); err != nil {
		return err
	} else if existing != nil && existing.AcarsEndpoint.Callsign != endpoint.Callsign {
		_ = r.index.Delete(callsignKey(existing.AcarsEndpoint.Callsign))
	}

	entry := StationEntry{
		StationID:      id,
		Status:         status,
		LastUpdated:    r.now().UTC(),
		NetworkAddress: address,
		AcarsEndpoint:  endpoint,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeSerialization, "failed to encode station entry")
	}
	if _, err := r.stations.Put(string(id), data); err != nil {
		return apperrors.Wrap(err, apperrors.CodeTransport, "failed to write station entry")
	}

	key := callsignKey(endpoint.Callsign)
	if status == models.StationOnline {
		idx, err := json.Marshal(callsignIndexEntry{StationID: id})
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeSerialization, "failed to encode callsign index")
		}
		if _, err := r.index.Put(key, idx); err != nil {
			return apperrors.Wrap(err, apperrors.CodeTransport, "failed to write callsign index")
		}
	} else {
		_ = r.index.Delete(key)
	}
	return nil
}

// GetStatus looks up a station by ID. A missing station returns (nil, nil).
func (r *Registry) GetStatus(id models.StationID) (*StationEntry, error) {
	entry, err := r.stations.Get(string(id))
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.CodeTransport, "failed to read station entry")
	}
	var station StationEntry
	if err := json.Unmarshal(entry.Value(), &station); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeSerialization, "corrupt station entry")
	}
	return &station, nil
}

// LookupCallsign resolves an ACARS callsign to its station entry through
// the reverse index. Offline stations are not indexed and resolve to nil.
func (r *Registry) LookupCallsign(callsign models.Callsign) (*StationEntry, error) {
	raw, err := r.index.Get(callsignKey(callsign))
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.CodeTransport, "failed to read callsign index")
	}
	var idx callsignIndexEntry
	if err := json.Unmarshal(raw.Value(), &idx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeSerialization, "corrupt callsign index")
	}
	return r.GetStatus(idx.StationID)
}

// ListEntries returns every station entry in the registry.
func (r *Registry) ListEntries() ([]StationEntry, error) {
	keys, err := r.stations.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.CodeTransport, "failed to list stations")
	}
	entries := make([]StationEntry, 0, len(keys))
	for _, key := range keys {
		entry, err := r.GetStatus(models.StationID(key))
		if err != nil {
			return nil, err
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

// ExpireStaleOnline marks online stations whose lease elapsed as offline
// and returns the transitioned entries, so the caller can emit synthetic
// status changes.
func (r *Registry) ExpireStaleOnline(ttl time.Duration) ([]StationEntry, error) {
	now := r.now()
	entries, err := r.ListEntries()
	if err != nil {
		return nil, err
	}
	var expired []StationEntry
	for _, entry := range entries {
		if entry.Status != models.StationOnline {
			continue
		}
		if now.Sub(entry.LastUpdated) <= ttl {
			continue
		}
		if err := r.UpdateStatus(entry.StationID, models.StationOffline, entry.AcarsEndpoint, entry.NetworkAddress); err != nil {
			return expired, err
		}
		expired = append(expired, entry)
	}
	return expired, nil
}

func callsignKey(callsign models.Callsign) string {
	return strings.ToUpper(string(callsign))
}
