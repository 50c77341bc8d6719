package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageBuilder assembles a CPDLC message into an ACARS envelope. The
// aircraft identity is fixed at construction; From and To set the CPDLC
// endpoints for this exchange.
type MessageBuilder struct {
	aircraft AcarsEndpoint
	from     *AcarsEndpoint
	to       *AcarsEndpoint
	message  *CpdlcMessage
}

// Cpdlc starts a builder for a message concerning the given aircraft.
func Cpdlc(aircraft AcarsEndpoint) *MessageBuilder {
	return &MessageBuilder{aircraft: aircraft}
}

// From sets the CPDLC source endpoint.
func (b *MessageBuilder) From(endpoint AcarsEndpoint) *MessageBuilder {
	b.from = &endpoint
	return b
}

// FromAircraft sets the aircraft itself as the CPDLC source.
func (b *MessageBuilder) FromAircraft() *MessageBuilder {
	return b.From(b.aircraft)
}

// To sets the CPDLC destination endpoint.
func (b *MessageBuilder) To(endpoint AcarsEndpoint) *MessageBuilder {
	b.to = &endpoint
	return b
}

// ToAircraft sets the aircraft itself as the CPDLC destination.
func (b *MessageBuilder) ToAircraft() *MessageBuilder {
	return b.To(b.aircraft)
}

func (b *MessageBuilder) meta(meta CpdlcMeta) *MessageBuilder {
	msg := MetaCpdlcMessage(meta)
	b.message = &msg
	return b
}

// LogonRequest sets a logon request to the named station.
func (b *MessageBuilder) LogonRequest(station Callsign, origin, destination ICAOAirportCode) *MessageBuilder {
	return b.meta(&LogonRequest{
		Station:               station,
		FlightPlanOrigin:      origin,
		FlightPlanDestination: destination,
	})
}

// LogonResponse sets a logon acceptance or rejection.
func (b *MessageBuilder) LogonResponse(accepted bool) *MessageBuilder {
	return b.meta(&LogonResponse{Accepted: accepted})
}

// ConnectionRequest sets a CPDLC connection request.
func (b *MessageBuilder) ConnectionRequest() *MessageBuilder {
	return b.meta(ConnectionRequest{})
}

// ConnectionResponse sets a connection acceptance or rejection.
func (b *MessageBuilder) ConnectionResponse(accepted bool) *MessageBuilder {
	return b.meta(&ConnectionResponse{Accepted: accepted})
}

// ContactRequest sets an instruction to contact another station.
func (b *MessageBuilder) ContactRequest(station Callsign) *MessageBuilder {
	return b.meta(&ContactRequest{Station: station})
}

// ContactResponse sets a contact acceptance or rejection.
func (b *MessageBuilder) ContactResponse(accepted bool) *MessageBuilder {
	return b.meta(&ContactResponse{Accepted: accepted})
}

// ContactComplete sets a contact completion confirmation.
func (b *MessageBuilder) ContactComplete() *MessageBuilder {
	return b.meta(ContactComplete{})
}

// LogonForward sets a logon forward to a new station.
func (b *MessageBuilder) LogonForward(flight Callsign, origin, destination ICAOAirportCode, newStation Callsign) *MessageBuilder {
	return b.meta(&LogonForward{
		Flight:                flight,
		FlightPlanOrigin:      origin,
		FlightPlanDestination: destination,
		NewStation:            newStation,
	})
}

// NextDataAuthority designates the next controlling station.
func (b *MessageBuilder) NextDataAuthority(nda AcarsEndpoint) *MessageBuilder {
	return b.meta(&NextDataAuthority{NDA: nda})
}

// EndService sets an end of service notification.
func (b *MessageBuilder) EndService() *MessageBuilder {
	return b.meta(EndService{})
}

// SessionUpdate sets a server-originated session snapshot.
func (b *MessageBuilder) SessionUpdate(view SessionView) *MessageBuilder {
	return b.meta(&SessionUpdate{Session: view})
}

// Application sets an ICAO application message as the payload.
func (b *MessageBuilder) Application(msg *ApplicationMessage) *MessageBuilder {
	wrapped := ApplicationCpdlcMessage(msg)
	b.message = &wrapped
	return b
}

// RawMessage sets an already constructed CPDLC message.
func (b *MessageBuilder) RawMessage(msg CpdlcMessage) *MessageBuilder {
	b.message = &msg
	return b
}

// Build assembles the ACARS envelope.
func (b *MessageBuilder) Build() (AcarsEnvelope, error) {
	if b.from == nil {
		return AcarsEnvelope{}, fmt.Errorf("message builder: from endpoint not set")
	}
	if b.to == nil {
		return AcarsEnvelope{}, fmt.Errorf("message builder: to endpoint not set")
	}
	if b.message == nil {
		return AcarsEnvelope{}, fmt.Errorf("message builder: message not set")
	}
	return AcarsEnvelope{
		Routing: AcarsRouting{Aircraft: b.aircraft},
		Message: AcarsMessage{CPDLC: &CpdlcEnvelope{
			Source:      b.from.Callsign,
			Destination: b.to.Callsign,
			Message:     *b.message,
		}},
	}, nil
}

// Envelope lifts the built ACARS envelope into a transport envelope
// builder. Build errors surface when the envelope builder finishes.
func (b *MessageBuilder) Envelope() *EnvelopeBuilder {
	acars, err := b.Build()
	eb := newEnvelopeBuilder()
	if err != nil {
		eb.err = err
		return eb
	}
	eb.payload = AcarsPayload(acars)
	return eb
}

// EnvelopeBuilder assembles a transport envelope. ID and timestamp default
// to a fresh UUID and the current time; token defaults to empty and is
// stamped by the SDK before publishing.
type EnvelopeBuilder struct {
	id            uuid.UUID
	timestamp     time.Time
	correlationID *uuid.UUID
	source        *RoutingEndpoint
	destination   *RoutingEndpoint
	payload       OpenLinkMessage
	token         string
	err           error
}

func newEnvelopeBuilder() *EnvelopeBuilder {
	return &EnvelopeBuilder{
		id:        uuid.New(),
		timestamp: time.Now().UTC(),
	}
}

// NewEnvelope starts an envelope builder with the given payload.
func NewEnvelope(payload OpenLinkMessage) *EnvelopeBuilder {
	eb := newEnvelopeBuilder()
	eb.payload = payload
	return eb
}

// ID overrides the generated envelope ID.
func (b *EnvelopeBuilder) ID(id uuid.UUID) *EnvelopeBuilder {
	b.id = id
	return b
}

// Timestamp overrides the generated timestamp.
func (b *EnvelopeBuilder) Timestamp(t time.Time) *EnvelopeBuilder {
	b.timestamp = t
	return b
}

// CorrelationID links this envelope to the one that triggered it.
func (b *EnvelopeBuilder) CorrelationID(id uuid.UUID) *EnvelopeBuilder {
	b.correlationID = &id
	return b
}

// Token sets the sender's JWT.
func (b *EnvelopeBuilder) Token(token string) *EnvelopeBuilder {
	b.token = token
	return b
}

// SourceAddress routes from a participant address.
func (b *EnvelopeBuilder) SourceAddress(network NetworkID, address NetworkAddress) *EnvelopeBuilder {
	return b.SourceRaw(AddressEndpoint(network, address))
}

// SourceServer routes from the network server.
func (b *EnvelopeBuilder) SourceServer(network NetworkID) *EnvelopeBuilder {
	return b.SourceRaw(ServerEndpoint(network))
}

// SourceRaw routes from an already constructed endpoint.
func (b *EnvelopeBuilder) SourceRaw(endpoint RoutingEndpoint) *EnvelopeBuilder {
	b.source = &endpoint
	return b
}

// DestinationAddress routes to a participant address.
func (b *EnvelopeBuilder) DestinationAddress(network NetworkID, address NetworkAddress) *EnvelopeBuilder {
	return b.DestinationRaw(AddressEndpoint(network, address))
}

// DestinationServer routes to the network server.
func (b *EnvelopeBuilder) DestinationServer(network NetworkID) *EnvelopeBuilder {
	return b.DestinationRaw(ServerEndpoint(network))
}

// DestinationRaw routes to an already constructed endpoint.
func (b *EnvelopeBuilder) DestinationRaw(endpoint RoutingEndpoint) *EnvelopeBuilder {
	b.destination = &endpoint
	return b
}

// Build assembles the envelope.
func (b *EnvelopeBuilder) Build() (Envelope, error) {
	if b.err != nil {
		return Envelope{}, b.err
	}
	if b.source == nil {
		return Envelope{}, fmt.Errorf("envelope builder: source not set")
	}
	if b.destination == nil {
		return Envelope{}, fmt.Errorf("envelope builder: destination not set")
	}
	if b.payload.Acars == nil && b.payload.Meta == nil {
		return Envelope{}, fmt.Errorf("envelope builder: payload not set")
	}
	return Envelope{
		ID:            b.id,
		Timestamp:     b.timestamp,
		CorrelationID: b.correlationID,
		Routing:       Routing{Source: *b.source, Destination: *b.destination},
		Payload:       b.payload,
		Token:         b.token,
	}, nil
}

// StationStatusEnvelope starts an envelope builder announcing a station
// status change.
func StationStatusEnvelope(id StationID, status StationStatus, endpoint AcarsEndpoint) *EnvelopeBuilder {
	return NewEnvelope(MetaPayload(NewStationStatus(id, status, endpoint)))
}
