package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlink/openlink/internal/common/logger"
	"github.com/openlink/openlink/pkg/models"
)

func newTestEngine() *Engine {
	store, _ := newTestStore()
	return NewEngine(store, logger.Default())
}

func TestEngineLogonRoundTrip(t *testing.T) {
	engine := newTestEngine()

	target := station1
	session, changed, err := engine.HandleMeta(MetaInput{
		Aircraft:    aircraft,
		LogonTarget: &target,
		Meta:        &models.LogonRequest{Station: "STATION1", FlightPlanOrigin: "LFPG", FlightPlanDestination: "KJFK"},
	})
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, session)
	assert.Equal(t, models.PhaseLogonPending, session.ActiveConnection.Phase())

	session, changed, err = engine.HandleMeta(MetaInput{
		Aircraft:     aircraft,
		StationParty: station1,
		Meta:         &models.LogonResponse{Accepted: true},
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.PhaseLoggedOn, session.ActiveConnection.Phase())
}

func TestEngineRejectedLogonLeavesStateUntouched(t *testing.T) {
	engine := newTestEngine()

	_, changed, err := engine.HandleMeta(MetaInput{
		Aircraft:     aircraft,
		StationParty: station1,
		Meta:         &models.LogonResponse{Accepted: false},
	})
	require.NoError(t, err)
	assert.False(t, changed)

	stored, _, err := engine.Store().Get(aircraft.Address)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestEngineFullConnection(t *testing.T) {
	engine := newTestEngine()
	target := station1

	steps := []MetaInput{
		{Aircraft: aircraft, LogonTarget: &target, Meta: &models.LogonRequest{Station: "STATION1"}},
		{Aircraft: aircraft, StationParty: station1, Meta: &models.LogonResponse{Accepted: true}},
		{Aircraft: aircraft, StationParty: station1, Meta: models.ConnectionRequest{}},
		{Aircraft: aircraft, StationParty: station1, Meta: &models.ConnectionResponse{Accepted: true}},
	}
	var session *Session
	for _, step := range steps {
		var err error
		session, _, err = engine.HandleMeta(step)
		require.NoError(t, err)
	}
	require.NotNil(t, session)
	assert.Equal(t, models.PhaseConnected, session.ActiveConnection.Phase())
}

func TestEngineEndServiceRemovesEmptySession(t *testing.T) {
	engine := newTestEngine()
	target := station1

	_, _, err := engine.HandleMeta(MetaInput{
		Aircraft: aircraft, LogonTarget: &target,
		Meta: &models.LogonRequest{Station: "STATION1"},
	})
	require.NoError(t, err)

	session, changed, err := engine.HandleMeta(MetaInput{
		Aircraft: aircraft, StationParty: station1, Meta: models.EndService{},
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Nil(t, session)

	stored, _, err := engine.Store().Get(aircraft.Address)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestEngineConnectionRequestWithoutStanding(t *testing.T) {
	engine := newTestEngine()

	session, changed, err := engine.HandleMeta(MetaInput{
		Aircraft: aircraft, StationParty: station1, Meta: models.ConnectionRequest{},
	})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, session)
}

func TestEngineNDAHandover(t *testing.T) {
	engine := newTestEngine()
	target := station1

	seed := []MetaInput{
		{Aircraft: aircraft, LogonTarget: &target, Meta: &models.LogonRequest{Station: "STATION1"}},
		{Aircraft: aircraft, StationParty: station1, Meta: &models.LogonResponse{Accepted: true}},
		{Aircraft: aircraft, StationParty: station1, Meta: models.ConnectionRequest{}},
		{Aircraft: aircraft, StationParty: station1, Meta: &models.ConnectionResponse{Accepted: true}},
		{Aircraft: aircraft, StationParty: station1, Meta: &models.NextDataAuthority{NDA: station2}},
		{Aircraft: aircraft, StationParty: station2, Meta: models.ConnectionRequest{}},
		{Aircraft: aircraft, StationParty: station2, Meta: &models.ConnectionResponse{Accepted: true}},
	}
	var session *Session
	for _, step := range seed {
		var err error
		session, _, err = engine.HandleMeta(step)
		require.NoError(t, err)
	}

	require.NotNil(t, session.InactiveConnection)
	assert.Equal(t, models.PhaseConnected, session.InactiveConnection.Phase())
	assert.Equal(t, station1, session.ActiveConnection.Station)
}

func TestEngineContactMessagesArePassThrough(t *testing.T) {
	engine := newTestEngine()

	for _, meta := range []models.CpdlcMeta{
		&models.ContactRequest{Station: "STATION2"},
		&models.ContactResponse{Accepted: true},
		models.ContactComplete{},
		&models.LogonForward{Flight: "TEST123", NewStation: "STATION2"},
	} {
		session, changed, err := engine.HandleMeta(MetaInput{
			Aircraft: aircraft, StationParty: station1, Meta: meta,
		})
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Nil(t, session)
	}
}

func TestEngineHandleApplication(t *testing.T) {
	engine := newTestEngine()
	target := station1

	seed := []MetaInput{
		{Aircraft: aircraft, LogonTarget: &target, Meta: &models.LogonRequest{Station: "STATION1"}},
		{Aircraft: aircraft, StationParty: station1, Meta: &models.LogonResponse{Accepted: true}},
		{Aircraft: aircraft, StationParty: station1, Meta: models.ConnectionRequest{}},
		{Aircraft: aircraft, StationParty: station1, Meta: &models.ConnectionResponse{Accepted: true}},
	}
	for _, step := range seed {
		_, _, err := engine.HandleMeta(step)
		require.NoError(t, err)
	}

	msg := &models.ApplicationMessage{
		Elements: []models.MessageElement{models.NewMessageElement("UM20", models.LevelArg(350))},
	}
	session, err := engine.HandleApplication(aircraft, "STATION1", SideStation, msg)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), msg.MIN)
	require.Len(t, session.Dialogues, 1)
	assert.Equal(t, models.RespWU, session.Dialogues[0].ResponseAttr)
}

func TestEngineHandleApplicationWithoutSession(t *testing.T) {
	engine := newTestEngine()

	msg := &models.ApplicationMessage{
		Elements: []models.MessageElement{models.NewMessageElement("DM6", models.LevelArg(390))},
	}
	_, err := engine.HandleApplication(aircraft, "TEST123", SideAircraft, msg)
	assert.Error(t, err)
}
