package models

import (
	"encoding/json"
	"fmt"
)

// Callsign is the callsign component of an ACARS endpoint (e.g. "AFR1234"
// for an aircraft or "LFPG" for a ground station).
type Callsign string

func (c Callsign) String() string {
	return string(c)
}

// AcarsAddress is the datalink address component of an ACARS endpoint.
type AcarsAddress string

func (a AcarsAddress) String() string {
	return string(a)
}

// AcarsEndpoint identifies one party in an ACARS exchange.
type AcarsEndpoint struct {
	Callsign Callsign     `json:"callsign"`
	Address  AcarsAddress `json:"address"`
}

// NewAcarsEndpoint builds an endpoint from raw strings.
func NewAcarsEndpoint(callsign, address string) AcarsEndpoint {
	return AcarsEndpoint{Callsign: Callsign(callsign), Address: AcarsAddress(address)}
}

// AcarsRouting carries the aircraft identity on every ACARS envelope.
type AcarsRouting struct {
	Aircraft AcarsEndpoint `json:"aircraft"`
}

// AcarsEnvelope combines routing (who) with a message (what).
type AcarsEnvelope struct {
	Routing AcarsRouting `json:"routing"`
	Message AcarsMessage `json:"message"`
}

// AcarsMessage is the payload of an AcarsEnvelope. Only CPDLC is defined
// today; the union encoding leaves room for ADS-B or AOC variants later.
type AcarsMessage struct {
	CPDLC *CpdlcEnvelope
}

type taggedUnion struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON encodes the message as {"type": "CPDLC", "data": ...}.
func (m AcarsMessage) MarshalJSON() ([]byte, error) {
	if m.CPDLC == nil {
		return nil, fmt.Errorf("acars message has no payload")
	}
	data, err := json.Marshal(m.CPDLC)
	if err != nil {
		return nil, err
	}
	return json.Marshal(taggedUnion{Type: "CPDLC", Data: data})
}

// UnmarshalJSON decodes the {"type", "data"} form.
func (m *AcarsMessage) UnmarshalJSON(data []byte) error {
	var tagged taggedUnion
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	switch tagged.Type {
	case "CPDLC":
		var env CpdlcEnvelope
		if err := json.Unmarshal(tagged.Data, &env); err != nil {
			return err
		}
		m.CPDLC = &env
		return nil
	default:
		return fmt.Errorf("unknown acars message type: %q", tagged.Type)
	}
}
