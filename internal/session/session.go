// Package session implements the server-side CPDLC session engine: a pure
// state machine over per-aircraft session records, persisted in a JetStream
// KV bucket with compare-and-swap semantics.
package session

import (
	"github.com/openlink/openlink/pkg/models"
)

// maxClosedDialogues bounds the closed-dialogue history kept per session.
const maxClosedDialogues = 16

// Connection is one aircraft↔station link within a session. Logon and
// connection are independent flags; the link is operational when both hold.
type Connection struct {
	Station    models.AcarsEndpoint `json:"station"`
	Logon      bool                 `json:"logon"`
	Connection bool                 `json:"connection"`
}

// NewConnection creates a connection awaiting logon acceptance.
func NewConnection(station models.AcarsEndpoint) *Connection {
	return &Connection{Station: station}
}

// Phase derives the lifecycle phase from the logon/connection flags.
func (c *Connection) Phase() models.ConnectionPhase {
	switch {
	case c.Logon && c.Connection:
		return models.PhaseConnected
	case c.Logon:
		return models.PhaseLoggedOn
	default:
		return models.PhaseLogonPending
	}
}

// Ready reports whether the connection can carry application traffic.
func (c *Connection) Ready() bool {
	return c.Logon && c.Connection
}

// Session is the per-aircraft CPDLC state persisted in KV. It tracks up to
// two concurrent connections (active and inactive, for handovers), the
// designated next data authority, the per-side MIN counters, and the open
// and recently closed dialogues.
type Session struct {
	Aircraft           models.AcarsEndpoint  `json:"aircraft"`
	ActiveConnection   *Connection           `json:"active_connection"`
	InactiveConnection *Connection           `json:"inactive_connection"`
	NextDataAuthority  *models.AcarsEndpoint `json:"next_data_authority"`
	MinCounterAircraft uint8                 `json:"min_counter_aircraft"`
	MinCounterStation  uint8                 `json:"min_counter_station"`
	Dialogues          []models.Dialogue     `json:"dialogues"`
}

// New creates an empty session for an aircraft.
func New(aircraft models.AcarsEndpoint) *Session {
	return &Session{Aircraft: aircraft}
}

// Empty reports whether the session carries no state worth persisting.
func (s *Session) Empty() bool {
	return s.ActiveConnection == nil && s.InactiveConnection == nil && s.NextDataAuthority == nil
}

func (s *Session) connectionFor(station models.AcarsEndpoint) *Connection {
	if s.ActiveConnection != nil && s.ActiveConnection.Station == station {
		return s.ActiveConnection
	}
	if s.InactiveConnection != nil && s.InactiveConnection.Station == station {
		return s.InactiveConnection
	}
	return nil
}

// ConnectionByCallsign returns the connection whose station matches the
// callsign, if any.
func (s *Session) ConnectionByCallsign(callsign models.Callsign) *Connection {
	if s.ActiveConnection != nil && s.ActiveConnection.Station.Callsign == callsign {
		return s.ActiveConnection
	}
	if s.InactiveConnection != nil && s.InactiveConnection.Station.Callsign == callsign {
		return s.InactiveConnection
	}
	return nil
}

func (s *Session) place(conn *Connection) {
	if s.ActiveConnection == nil {
		s.ActiveConnection = conn
	} else {
		s.InactiveConnection = conn
	}
}

// ApplyLogonRequest records a logon attempt toward a station. The new
// connection takes the active slot if free, otherwise the inactive slot.
func (s *Session) ApplyLogonRequest(station models.AcarsEndpoint) {
	s.place(NewConnection(station))
}

// ApplyLogonAccepted marks the matching connection as logged on. Returns
// false when no connection matches the station.
func (s *Session) ApplyLogonAccepted(station models.AcarsEndpoint) bool {
	conn := s.connectionFor(station)
	if conn == nil {
		return false
	}
	conn.Logon = true
	return true
}

// ApplyConnectionRequest handles a station's connection request. A request
// from the designated next data authority creates an implicit logged-on
// connection. Returns false when the station has no standing to connect.
func (s *Session) ApplyConnectionRequest(station models.AcarsEndpoint) bool {
	if s.connectionFor(station) != nil {
		return true
	}
	if s.NextDataAuthority != nil && *s.NextDataAuthority == station {
		conn := NewConnection(station)
		conn.Logon = true
		s.place(conn)
		return true
	}
	return false
}

// ApplyConnectionAccepted establishes the connection with a station that
// has already logged on. Returns false on missing connection or logon.
func (s *Session) ApplyConnectionAccepted(station models.AcarsEndpoint) bool {
	conn := s.connectionFor(station)
	if conn == nil || !conn.Logon {
		return false
	}
	conn.Connection = true
	return true
}

// ApplyNextDataAuthority designates the handover target.
func (s *Session) ApplyNextDataAuthority(station models.AcarsEndpoint) {
	s.NextDataAuthority = &station
}

// ApplyEndService terminates the connection with a station. Terminating the
// active connection promotes the inactive one into its place. Returns false
// when no connection matches.
func (s *Session) ApplyEndService(station models.AcarsEndpoint) bool {
	if s.ActiveConnection != nil && s.ActiveConnection.Station == station {
		s.ActiveConnection = s.InactiveConnection
		s.InactiveConnection = nil
		if s.NextDataAuthority != nil && *s.NextDataAuthority == station {
			s.NextDataAuthority = nil
		}
		return true
	}
	if s.InactiveConnection != nil && s.InactiveConnection.Station == station {
		s.InactiveConnection = nil
		if s.NextDataAuthority != nil && *s.NextDataAuthority == station {
			s.NextDataAuthority = nil
		}
		return true
	}
	return false
}

// AircraftView projects the session for the aircraft: both connections and
// the next data authority are visible.
func (s *Session) AircraftView() models.SessionView {
	view := models.SessionView{}
	if s.ActiveConnection != nil {
		view.ActiveConnection = connectionView(s.ActiveConnection)
	}
	if s.InactiveConnection != nil {
		view.InactiveConnection = connectionView(s.InactiveConnection)
	}
	if s.NextDataAuthority != nil {
		callsign := s.NextDataAuthority.Callsign
		view.NextDataAuthority = &callsign
	}
	return view
}

// StationView projects the session for one station: only its own
// connection is included, keeping other stations' state isolated. The peer
// from a station's perspective is the aircraft.
func (s *Session) StationView(callsign models.Callsign) models.SessionView {
	view := models.SessionView{}
	if s.ActiveConnection != nil && s.ActiveConnection.Station.Callsign == callsign {
		view.ActiveConnection = &models.ConnectionView{
			Peer:  s.Aircraft.Callsign,
			Phase: s.ActiveConnection.Phase(),
		}
	}
	if s.InactiveConnection != nil && s.InactiveConnection.Station.Callsign == callsign {
		view.InactiveConnection = &models.ConnectionView{
			Peer:  s.Aircraft.Callsign,
			Phase: s.InactiveConnection.Phase(),
		}
	}
	return view
}

func connectionView(conn *Connection) *models.ConnectionView {
	return &models.ConnectionView{Peer: conn.Station.Callsign, Phase: conn.Phase()}
}

// ConnectedCallsigns lists the station callsigns holding a connection in
// this session, used for SessionUpdate fan-out.
func (s *Session) ConnectedCallsigns() []models.Callsign {
	var callsigns []models.Callsign
	if s.ActiveConnection != nil {
		callsigns = append(callsigns, s.ActiveConnection.Station.Callsign)
	}
	if s.InactiveConnection != nil {
		callsigns = append(callsigns, s.InactiveConnection.Station.Callsign)
	}
	return callsigns
}

// Involves reports whether the callsign appears in this session as the
// aircraft, a connection, or the next data authority.
func (s *Session) Involves(callsign models.Callsign) bool {
	if s.Aircraft.Callsign == callsign {
		return true
	}
	if s.ConnectionByCallsign(callsign) != nil {
		return true
	}
	return s.NextDataAuthority != nil && s.NextDataAuthority.Callsign == callsign
}
