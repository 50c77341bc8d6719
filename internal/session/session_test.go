package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlink/openlink/pkg/models"
)

var (
	aircraft = models.NewAcarsEndpoint("TEST123", "abc")
	station1 = models.NewAcarsEndpoint("STATION1", "def")
	station2 = models.NewAcarsEndpoint("STATION2", "ghi")
)

func TestSessionLifecycle(t *testing.T) {
	s := New(aircraft)

	s.ApplyLogonRequest(station1)
	require.NotNil(t, s.ActiveConnection)
	assert.Equal(t, station1, s.ActiveConnection.Station)
	assert.False(t, s.ActiveConnection.Logon)
	assert.Equal(t, models.PhaseLogonPending, s.ActiveConnection.Phase())

	assert.True(t, s.ApplyLogonAccepted(station1))
	assert.True(t, s.ActiveConnection.Logon)
	assert.False(t, s.ActiveConnection.Ready())
	assert.Equal(t, models.PhaseLoggedOn, s.ActiveConnection.Phase())

	assert.True(t, s.ApplyConnectionRequest(station1))
	assert.False(t, s.ActiveConnection.Ready())

	assert.True(t, s.ApplyConnectionAccepted(station1))
	assert.True(t, s.ActiveConnection.Ready())
	assert.Equal(t, models.PhaseConnected, s.ActiveConnection.Phase())

	assert.True(t, s.ApplyEndService(station1))
	assert.Nil(t, s.ActiveConnection)
	assert.True(t, s.Empty())
}

func TestSessionHandoverPromotesInactive(t *testing.T) {
	s := New(aircraft)

	s.ApplyLogonRequest(station1)
	s.ApplyLogonAccepted(station1)
	s.ApplyConnectionRequest(station1)
	s.ApplyConnectionAccepted(station1)

	s.ApplyLogonRequest(station2)
	s.ApplyLogonAccepted(station2)
	s.ApplyConnectionRequest(station2)
	s.ApplyConnectionAccepted(station2)

	require.NotNil(t, s.InactiveConnection)
	assert.True(t, s.ActiveConnection.Ready())
	assert.True(t, s.InactiveConnection.Ready())

	assert.True(t, s.ApplyEndService(station1))
	require.NotNil(t, s.ActiveConnection)
	assert.Equal(t, station2, s.ActiveConnection.Station)
	assert.Nil(t, s.InactiveConnection)
}

func TestSessionRejectsOutOfOrderEvents(t *testing.T) {
	s := New(aircraft)

	assert.False(t, s.ApplyLogonAccepted(station1))
	assert.Nil(t, s.ActiveConnection)

	assert.False(t, s.ApplyConnectionRequest(station1))
	assert.False(t, s.ApplyConnectionAccepted(station1))
	assert.Nil(t, s.ActiveConnection)

	// Connection acceptance before logon acceptance does not connect.
	s.ApplyLogonRequest(station1)
	assert.False(t, s.ApplyConnectionAccepted(station1))
	assert.False(t, s.ActiveConnection.Connection)
}

func TestSessionNDAImplicitLogon(t *testing.T) {
	s := New(aircraft)

	s.ApplyNextDataAuthority(station1)
	assert.True(t, s.ApplyConnectionRequest(station1))
	require.NotNil(t, s.ActiveConnection)
	assert.Equal(t, station1, s.ActiveConnection.Station)
	assert.True(t, s.ActiveConnection.Logon)

	assert.True(t, s.ApplyConnectionAccepted(station1))
	assert.True(t, s.ActiveConnection.Ready())
}

func TestSessionNDATransfer(t *testing.T) {
	s := New(aircraft)

	s.ApplyLogonRequest(station1)
	s.ApplyLogonAccepted(station1)
	s.ApplyConnectionRequest(station1)
	s.ApplyConnectionAccepted(station1)

	s.ApplyNextDataAuthority(station2)
	assert.True(t, s.ApplyConnectionRequest(station2))
	require.NotNil(t, s.InactiveConnection)
	assert.Equal(t, station2, s.InactiveConnection.Station)
	assert.True(t, s.InactiveConnection.Logon)
	assert.True(t, s.ApplyConnectionAccepted(station2))

	assert.Equal(t, station1, s.ActiveConnection.Station)

	assert.True(t, s.ApplyEndService(station1))
	assert.Equal(t, station2, s.ActiveConnection.Station)
	assert.Nil(t, s.InactiveConnection)
}

func TestSessionEndServiceUnknownStation(t *testing.T) {
	s := New(aircraft)
	s.ApplyLogonRequest(station1)

	assert.False(t, s.ApplyEndService(station2))
	assert.NotNil(t, s.ActiveConnection)
}

func TestAircraftView(t *testing.T) {
	s := New(aircraft)
	s.ApplyLogonRequest(station1)
	s.ApplyLogonAccepted(station1)
	s.ApplyConnectionRequest(station1)
	s.ApplyConnectionAccepted(station1)
	s.ApplyNextDataAuthority(station2)

	view := s.AircraftView()
	require.NotNil(t, view.ActiveConnection)
	assert.Equal(t, models.Callsign("STATION1"), view.ActiveConnection.Peer)
	assert.Equal(t, models.PhaseConnected, view.ActiveConnection.Phase)
	assert.Nil(t, view.InactiveConnection)
	require.NotNil(t, view.NextDataAuthority)
	assert.Equal(t, models.Callsign("STATION2"), *view.NextDataAuthority)
}

func TestStationViewIsolation(t *testing.T) {
	s := New(aircraft)
	s.ApplyLogonRequest(station1)
	s.ApplyLogonAccepted(station1)
	s.ApplyConnectionRequest(station1)
	s.ApplyConnectionAccepted(station1)
	s.ApplyLogonRequest(station2)

	view1 := s.StationView("STATION1")
	require.NotNil(t, view1.ActiveConnection)
	assert.Equal(t, models.Callsign("TEST123"), view1.ActiveConnection.Peer)
	assert.Equal(t, models.PhaseConnected, view1.ActiveConnection.Phase)
	assert.Nil(t, view1.InactiveConnection)

	view2 := s.StationView("STATION2")
	assert.Nil(t, view2.ActiveConnection)
	require.NotNil(t, view2.InactiveConnection)
	assert.Equal(t, models.PhaseLogonPending, view2.InactiveConnection.Phase)

	// Projection is stable under repetition.
	assert.Equal(t, view2, s.StationView("STATION2"))
}

func TestInvolvesAndConnectedCallsigns(t *testing.T) {
	s := New(aircraft)
	s.ApplyLogonRequest(station1)
	s.ApplyNextDataAuthority(station2)

	assert.True(t, s.Involves("TEST123"))
	assert.True(t, s.Involves("STATION1"))
	assert.True(t, s.Involves("STATION2"))
	assert.False(t, s.Involves("OTHER"))

	assert.Equal(t, []models.Callsign{"STATION1"}, s.ConnectedCallsigns())
}
