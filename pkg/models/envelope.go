package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MetaMessage is an out-of-band backbone notification, outside the ACARS
// application layer. Encoded as an externally tagged variant:
// {"StationStatus": [id, status, endpoint]}.
type MetaMessage struct {
	StationStatus *StationStatusUpdate
}

// StationStatusUpdate announces a ground station going online or offline.
type StationStatusUpdate struct {
	ID       StationID
	Status   StationStatus
	Endpoint AcarsEndpoint
}

// NewStationStatus builds a station status meta message.
func NewStationStatus(id StationID, status StationStatus, endpoint AcarsEndpoint) MetaMessage {
	return MetaMessage{StationStatus: &StationStatusUpdate{ID: id, Status: status, Endpoint: endpoint}}
}

// MarshalJSON encodes the externally tagged tuple variant.
func (m MetaMessage) MarshalJSON() ([]byte, error) {
	if m.StationStatus == nil {
		return nil, fmt.Errorf("meta message has no payload")
	}
	tuple := [3]any{m.StationStatus.ID, m.StationStatus.Status, m.StationStatus.Endpoint}
	return json.Marshal(map[string][3]any{"StationStatus": tuple})
}

// UnmarshalJSON decodes the externally tagged tuple variant.
func (m *MetaMessage) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	raw, ok := tagged["StationStatus"]
	if !ok {
		return fmt.Errorf("unknown meta message variant: %s", string(data))
	}
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return err
	}
	if len(tuple) != 3 {
		return fmt.Errorf("station status expects 3 elements, got %d", len(tuple))
	}
	var update StationStatusUpdate
	if err := json.Unmarshal(tuple[0], &update.ID); err != nil {
		return err
	}
	if err := json.Unmarshal(tuple[1], &update.Status); err != nil {
		return err
	}
	if err := json.Unmarshal(tuple[2], &update.Endpoint); err != nil {
		return err
	}
	m.StationStatus = &update
	return nil
}

// OpenLinkMessage is the payload union of an envelope: either an ACARS
// application envelope or a backbone meta message.
type OpenLinkMessage struct {
	Acars *AcarsEnvelope
	Meta  *MetaMessage
}

// AcarsPayload wraps an ACARS envelope as an envelope payload.
func AcarsPayload(env AcarsEnvelope) OpenLinkMessage {
	return OpenLinkMessage{Acars: &env}
}

// MetaPayload wraps a meta message as an envelope payload.
func MetaPayload(meta MetaMessage) OpenLinkMessage {
	return OpenLinkMessage{Meta: &meta}
}

// MarshalJSON encodes the payload as {"type": "Acars"|"Meta", "data": ...}.
func (m OpenLinkMessage) MarshalJSON() ([]byte, error) {
	switch {
	case m.Acars != nil:
		data, err := json.Marshal(m.Acars)
		if err != nil {
			return nil, err
		}
		return json.Marshal(taggedUnion{Type: "Acars", Data: data})
	case m.Meta != nil:
		data, err := json.Marshal(m.Meta)
		if err != nil {
			return nil, err
		}
		return json.Marshal(taggedUnion{Type: "Meta", Data: data})
	default:
		return nil, fmt.Errorf("openlink message has no payload")
	}
}

// UnmarshalJSON decodes the {"type", "data"} form.
func (m *OpenLinkMessage) UnmarshalJSON(data []byte) error {
	var tagged taggedUnion
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	switch tagged.Type {
	case "Acars":
		var env AcarsEnvelope
		if err := json.Unmarshal(tagged.Data, &env); err != nil {
			return err
		}
		m.Acars = &env
		m.Meta = nil
		return nil
	case "Meta":
		var meta MetaMessage
		if err := json.Unmarshal(tagged.Data, &meta); err != nil {
			return err
		}
		m.Meta = &meta
		m.Acars = nil
		return nil
	default:
		return fmt.Errorf("unknown openlink message type: %q", tagged.Type)
	}
}

// Envelope is the unit of transport on the backbone. Every publish on an
// outbox or inbox subject carries exactly one JSON envelope.
type Envelope struct {
	// ID is unique per envelope; the server reuses it as correlation_id on
	// messages it emits in reaction to this one.
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	// CorrelationID links a reaction to the envelope that triggered it.
	CorrelationID *uuid.UUID      `json:"correlation_id"`
	Routing       Routing         `json:"routing"`
	Payload       OpenLinkMessage `json:"payload"`
	// Token is the sender's JWT, verified by the relay before dispatch.
	Token string `json:"token"`
}
