package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlink/openlink/pkg/models"
)

func statusEnvelope(t *testing.T, id models.StationID, status models.StationStatus, endpoint models.AcarsEndpoint, address models.NetworkAddress) models.Envelope {
	t.Helper()
	envelope, err := models.StationStatusEnvelope(id, status, endpoint).
		SourceAddress(testNetwork, address).
		DestinationServer(testNetwork).
		Token("user.jwt").
		Build()
	require.NoError(t, err)
	return envelope
}

func TestStationOnlineRegistersAndRepliesNothingWithoutSessions(t *testing.T) {
	srv, transport := newTestServer()

	publish(t, srv, stationAddr, statusEnvelope(t, "station1", models.StationOnline, stationEP, stationAddr))

	entry, err := srv.registry.GetStatus("station1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.StationOnline, entry.Status)
	assert.Equal(t, stationAddr, entry.NetworkAddress)
	assert.Empty(t, transport.sent)
}

func TestStationOnlineReplaysSnapshots(t *testing.T) {
	srv, transport := newTestServer()
	registerParticipants(t, srv)
	seedConnectedSession(t, srv)

	publish(t, srv, stationAddr, statusEnvelope(t, "station1", models.StationOnline, stationEP, stationAddr))

	toStation := transport.sentTo(stationAddr)
	require.Len(t, toStation, 1)
	view := sessionUpdateView(t, toStation[0])
	require.NotNil(t, view.ActiveConnection)
	assert.Equal(t, aircraftEP.Callsign, view.ActiveConnection.Peer)
	assert.Equal(t, models.PhaseConnected, view.ActiveConnection.Phase)

	// The replay correlates with the status announcement.
	require.NotNil(t, toStation[0].CorrelationID)
}

func TestAircraftOnlineReplaysFullView(t *testing.T) {
	srv, transport := newTestServer()
	registerParticipants(t, srv)
	seedConnectedSession(t, srv)

	publish(t, srv, aircraftAddr, statusEnvelope(t, "aircraft1", models.StationOnline, aircraftEP, aircraftAddr))

	toAircraft := transport.sentTo(aircraftAddr)
	require.Len(t, toAircraft, 1)
	view := sessionUpdateView(t, toAircraft[0])
	require.NotNil(t, view.ActiveConnection)
	assert.Equal(t, models.Callsign("LFPG"), view.ActiveConnection.Peer)
}

func TestStationOfflineEndsServiceImplicitly(t *testing.T) {
	srv, transport := newTestServer()
	registerParticipants(t, srv)
	seedConnectedSession(t, srv)

	publish(t, srv, stationAddr, statusEnvelope(t, "station1", models.StationOffline, stationEP, stationAddr))

	stored, _, err := srv.engine.Store().Get(aircraftEP.Address)
	require.NoError(t, err)
	assert.Nil(t, stored)

	toAircraft := transport.sentTo(aircraftAddr)
	require.Len(t, toAircraft, 2)

	// The aircraft receives an END SERVICE as if the station had sent it.
	endService := toAircraft[0].Payload.Acars.Message.CPDLC
	require.NotNil(t, endService)
	assert.Equal(t, stationEP.Callsign, endService.Source)
	_, isEndService := endService.Message.Meta.(models.EndService)
	assert.True(t, isEndService)

	// Followed by an empty snapshot.
	view := sessionUpdateView(t, toAircraft[1])
	assert.Nil(t, view.ActiveConnection)

	// The offline station is no longer a reachable recipient.
	assert.Empty(t, transport.sentTo(stationAddr))
}

func TestStationOfflineWithoutAutoEndService(t *testing.T) {
	srv, transport := newTestServer()
	srv.presence.AutoEndServiceStationOffline = false
	registerParticipants(t, srv)
	seedConnectedSession(t, srv)

	publish(t, srv, stationAddr, statusEnvelope(t, "station1", models.StationOffline, stationEP, stationAddr))

	// The session is still terminated and the snapshot delivered, but no
	// synthetic END SERVICE is sent.
	toAircraft := transport.sentTo(aircraftAddr)
	require.Len(t, toAircraft, 1)
	view := sessionUpdateView(t, toAircraft[0])
	assert.Nil(t, view.ActiveConnection)
}

func TestSweepWithoutStaleStations(t *testing.T) {
	srv, transport := newTestServer()
	registerParticipants(t, srv)

	srv.sweepPresence()

	assert.Empty(t, transport.sent)
}
