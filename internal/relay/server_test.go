package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/openlink/openlink/internal/common/config"
	"github.com/openlink/openlink/internal/common/logger"
	"github.com/openlink/openlink/internal/registry"
	"github.com/openlink/openlink/internal/session"
	"github.com/openlink/openlink/pkg/models"
	"github.com/openlink/openlink/pkg/subjects"
)

const testNetwork = models.NetworkID("demonetwork")

var (
	aircraftEP = models.NewAcarsEndpoint("AFR1234", "abc")
	stationEP  = models.NewAcarsEndpoint("LFPG", "def")

	aircraftAddr = models.NetworkAddress("A001")
	stationAddr  = models.NetworkAddress("S001")
)

type sentEnvelope struct {
	address  models.NetworkAddress
	envelope models.Envelope
}

type fakeTransport struct {
	sent []sentEnvelope
}

func (t *fakeTransport) SendToStation(address models.NetworkAddress, envelope models.Envelope) error {
	t.sent = append(t.sent, sentEnvelope{address: address, envelope: envelope})
	return nil
}

func (t *fakeTransport) SubscribeAllOutbox() (*nats.Subscription, <-chan *nats.Msg, error) {
	return nil, nil, nil
}

func (t *fakeTransport) sentTo(address models.NetworkAddress) []models.Envelope {
	var out []models.Envelope
	for _, s := range t.sent {
		if s.address == address {
			out = append(out, s.envelope)
		}
	}
	return out
}

type fakeEntry struct {
	key   string
	value []byte
	rev   uint64
}

func (e *fakeEntry) Bucket() string             { return "test" }
func (e *fakeEntry) Key() string                { return e.key }
func (e *fakeEntry) Value() []byte              { return e.value }
func (e *fakeEntry) Revision() uint64           { return e.rev }
func (e *fakeEntry) Created() time.Time         { return time.Time{} }
func (e *fakeEntry) Delta() uint64              { return 0 }
func (e *fakeEntry) Operation() nats.KeyValueOp { return nats.KeyValuePut }

// fakeKV backs both the session store and the registry in tests.
type fakeKV struct {
	entries map[string]*fakeEntry
	rev     uint64
}

func newFakeKV() *fakeKV {
	return &fakeKV{entries: map[string]*fakeEntry{}}
}

func (kv *fakeKV) Get(key string) (nats.KeyValueEntry, error) {
	entry, ok := kv.entries[key]
	if !ok {
		return nil, nats.ErrKeyNotFound
	}
	return entry, nil
}

func (kv *fakeKV) Put(key string, value []byte) (uint64, error) {
	kv.rev++
	kv.entries[key] = &fakeEntry{key: key, value: value, rev: kv.rev}
	return kv.rev, nil
}

func (kv *fakeKV) Create(key string, value []byte) (uint64, error) {
	if _, ok := kv.entries[key]; ok {
		return 0, nats.ErrKeyExists
	}
	return kv.Put(key, value)
}

func (kv *fakeKV) Update(key string, value []byte, last uint64) (uint64, error) {
	entry, ok := kv.entries[key]
	if !ok || entry.rev != last {
		return 0, &nats.APIError{ErrorCode: nats.JSErrCodeStreamWrongLastSequence}
	}
	return kv.Put(key, value)
}

func (kv *fakeKV) Delete(key string, opts ...nats.DeleteOpt) error {
	delete(kv.entries, key)
	return nil
}

func (kv *fakeKV) Keys(opts ...nats.WatchOpt) ([]string, error) {
	if len(kv.entries) == 0 {
		return nil, nats.ErrNoKeysFound
	}
	keys := make([]string, 0, len(kv.entries))
	for key := range kv.entries {
		keys = append(keys, key)
	}
	return keys, nil
}

func newTestServer() (*Server, *fakeTransport) {
	log := logger.Default()
	transport := &fakeTransport{}
	store := session.NewStoreWithKV(newFakeKV(), log)
	return &Server{
		network:  testNetwork,
		client:   transport,
		token:    "server.jwt",
		registry: registry.NewWithKV(newFakeKV(), newFakeKV(), log),
		engine:   session.NewEngine(store, log),
		presence: config.PresenceConfig{
			LeaseTTLSeconds:              90,
			SweepIntervalSeconds:         20,
			AutoEndServiceStationOffline: true,
		},
		log: log,
	}, transport
}

func registerParticipants(t *testing.T, srv *Server) {
	t.Helper()
	require.NoError(t, srv.registry.UpdateStatus("aircraft1", models.StationOnline, aircraftEP, aircraftAddr))
	require.NoError(t, srv.registry.UpdateStatus("station1", models.StationOnline, stationEP, stationAddr))
}

func seedConnectedSession(t *testing.T, srv *Server) {
	t.Helper()
	_, err := srv.engine.Store().Update(aircraftEP.Address, func(*session.Session) (*session.Session, error) {
		s := session.New(aircraftEP)
		s.ApplyLogonRequest(stationEP)
		s.ApplyLogonAccepted(stationEP)
		s.ApplyConnectionRequest(stationEP)
		s.ApplyConnectionAccepted(stationEP)
		return s, nil
	})
	require.NoError(t, err)
}

func publish(t *testing.T, srv *Server, sender models.NetworkAddress, envelope models.Envelope) {
	t.Helper()
	data, err := json.Marshal(envelope)
	require.NoError(t, err)
	srv.handleFrame(subjects.Outbox(testNetwork, sender), data)
}

func sessionUpdateView(t *testing.T, envelope models.Envelope) models.SessionView {
	t.Helper()
	require.NotNil(t, envelope.Payload.Acars)
	require.NotNil(t, envelope.Payload.Acars.Message.CPDLC)
	update, ok := envelope.Payload.Acars.Message.CPDLC.Message.Meta.(*models.SessionUpdate)
	require.True(t, ok, "expected a session update envelope")
	return update.Session
}
