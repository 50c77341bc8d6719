package models

import (
	"encoding/json"
	"fmt"
)

// CpdlcMeta is a protocol-level CPDLC message handling the logon,
// connection, contact and transfer lifecycle between an aircraft and
// successive ground stations.
type CpdlcMeta interface {
	// MetaType returns the wire variant tag (e.g. "LogonRequest").
	MetaType() string
	// RenderText returns the human-readable representation.
	RenderText() string
}

// LogonRequest is sent by an aircraft to request logon with a ground station.
type LogonRequest struct {
	Station               Callsign        `json:"station"`
	FlightPlanOrigin      ICAOAirportCode `json:"flight_plan_origin"`
	FlightPlanDestination ICAOAirportCode `json:"flight_plan_destination"`
}

func (LogonRequest) MetaType() string { return "LogonRequest" }

func (m LogonRequest) RenderText() string {
	return fmt.Sprintf("LOGON REQUEST TO %s - FP ORIGIN %s DEST %s",
		m.Station, m.FlightPlanOrigin, m.FlightPlanDestination)
}

// LogonResponse accepts or rejects a pending logon request.
type LogonResponse struct {
	Accepted bool `json:"accepted"`
}

func (LogonResponse) MetaType() string { return "LogonResponse" }

func (m LogonResponse) RenderText() string {
	if m.Accepted {
		return "LOGON ACCEPTED"
	}
	return "LOGON REJECTED"
}

// ConnectionRequest asks the aircraft to open a CPDLC data connection.
type ConnectionRequest struct{}

func (ConnectionRequest) MetaType() string   { return "ConnectionRequest" }
func (ConnectionRequest) RenderText() string { return "CONNECTION REQUEST" }

// ConnectionResponse accepts or rejects a connection request.
type ConnectionResponse struct {
	Accepted bool `json:"accepted"`
}

func (ConnectionResponse) MetaType() string { return "ConnectionResponse" }

func (m ConnectionResponse) RenderText() string {
	if m.Accepted {
		return "CONNECTION ACCEPTED"
	}
	return "CONNECTION REJECTED"
}

// ContactRequest instructs the aircraft to contact another station.
type ContactRequest struct {
	Station Callsign `json:"station"`
}

func (ContactRequest) MetaType() string { return "ContactRequest" }

func (m ContactRequest) RenderText() string {
	return fmt.Sprintf("CONTACT %s", m.Station)
}

// ContactResponse accepts or rejects a contact instruction.
type ContactResponse struct {
	Accepted bool `json:"accepted"`
}

func (ContactResponse) MetaType() string { return "ContactResponse" }

func (m ContactResponse) RenderText() string {
	if m.Accepted {
		return "CONTACT ACCEPTED"
	}
	return "CONTACT REJECTED"
}

// ContactComplete confirms the contact handover is finished.
type ContactComplete struct{}

func (ContactComplete) MetaType() string   { return "ContactComplete" }
func (ContactComplete) RenderText() string { return "CONTACT COMPLETE" }

// LogonForward hands the aircraft's logon credentials to a new station.
type LogonForward struct {
	Flight                Callsign        `json:"flight"`
	FlightPlanOrigin      ICAOAirportCode `json:"flight_plan_origin"`
	FlightPlanDestination ICAOAirportCode `json:"flight_plan_destination"`
	NewStation            Callsign        `json:"new_station"`
}

func (LogonForward) MetaType() string { return "LogonForward" }

func (m LogonForward) RenderText() string {
	return fmt.Sprintf("LOGON FORWARD FLIGHT %s ORIGIN %s DEST %s NEW STATION %s",
		m.Flight, m.FlightPlanOrigin, m.FlightPlanDestination, m.NewStation)
}

// NextDataAuthority designates the station that will take over the
// session.
type NextDataAuthority struct {
	NDA AcarsEndpoint `json:"nda"`
}

func (NextDataAuthority) MetaType() string { return "NextDataAuthority" }

func (m NextDataAuthority) RenderText() string {
	return fmt.Sprintf("NEXT DATA AUTHORITY %s %s", m.NDA.Callsign, m.NDA.Address)
}

// EndService terminates the active connection with the aircraft,
// promoting the inactive one (if any).
type EndService struct{}

func (EndService) MetaType() string   { return "EndService" }
func (EndService) RenderText() string { return "END SERVICE" }

// SessionUpdate is the server-originated notification carrying the
// authoritative session state for the recipient. Clients replace their
// local state with this snapshot.
type SessionUpdate struct {
	Session SessionView `json:"session"`
}

func (SessionUpdate) MetaType() string { return "SessionUpdate" }

func (m SessionUpdate) RenderText() string {
	describe := func(c *ConnectionView) string {
		if c == nil {
			return "NONE"
		}
		return fmt.Sprintf("%s (%s)", c.Peer, c.Phase)
	}
	return fmt.Sprintf("SESSION UPDATE ACTIVE %s INACTIVE %s",
		describe(m.Session.ActiveConnection), describe(m.Session.InactiveConnection))
}

// marshalMeta encodes a meta message as {"type": tag, "data": fields}.
// Unit variants omit the data member.
func marshalMeta(meta CpdlcMeta) (json.RawMessage, error) {
	switch meta.(type) {
	case ConnectionRequest, *ConnectionRequest,
		ContactComplete, *ContactComplete,
		EndService, *EndService:
		return json.Marshal(taggedUnion{Type: meta.MetaType()})
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	return json.Marshal(taggedUnion{Type: meta.MetaType(), Data: data})
}

// unmarshalMeta decodes the {"type", "data"} form into the concrete variant.
func unmarshalMeta(data []byte) (CpdlcMeta, error) {
	var tagged taggedUnion
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, err
	}
	decode := func(v CpdlcMeta) (CpdlcMeta, error) {
		if len(tagged.Data) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(tagged.Data, v); err != nil {
			return nil, err
		}
		return v, nil
	}
	switch tagged.Type {
	case "LogonRequest":
		return decode(&LogonRequest{})
	case "LogonResponse":
		return decode(&LogonResponse{})
	case "ConnectionRequest":
		return ConnectionRequest{}, nil
	case "ConnectionResponse":
		return decode(&ConnectionResponse{})
	case "ContactRequest":
		return decode(&ContactRequest{})
	case "ContactResponse":
		return decode(&ContactResponse{})
	case "ContactComplete":
		return ContactComplete{}, nil
	case "LogonForward":
		return decode(&LogonForward{})
	case "NextDataAuthority":
		return decode(&NextDataAuthority{})
	case "EndService":
		return EndService{}, nil
	case "SessionUpdate":
		return decode(&SessionUpdate{})
	default:
		return nil, fmt.Errorf("unknown cpdlc meta message type: %q", tagged.Type)
	}
}
