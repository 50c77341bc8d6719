package relay

import (
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/openlink/openlink/internal/common/errors"
	"github.com/openlink/openlink/internal/session"
	"github.com/openlink/openlink/pkg/models"
)

// handleMeta processes a backbone meta message (station status). The status
// write commits even when the follow-up replay or offline handling fails.
func (s *Server) handleMeta(sender models.NetworkAddress, envelope models.Envelope) {
	status := envelope.Payload.Meta.StationStatus
	if status == nil {
		s.log.Warn("unknown meta message variant", zap.String("sender", string(sender)))
		return
	}

	address := sender
	if src := envelope.Routing.Source; src.Address != nil {
		address = *src.Address
	}

	s.log.Info("station status update",
		zap.String("station", string(status.ID)),
		zap.String("status", status.Status.String()),
		zap.String("callsign", string(status.Endpoint.Callsign)))

	if err := s.registry.UpdateStatus(status.ID, status.Status, status.Endpoint, address); err != nil {
		s.log.Error("failed to update station status",
			zap.String("station", string(status.ID)), zap.Error(err))
		return
	}

	switch status.Status {
	case models.StationOnline:
		if err := s.replaySnapshots(address, status.Endpoint, envelope.ID); err != nil {
			s.log.Warn("failed to replay session snapshots",
				zap.String("callsign", string(status.Endpoint.Callsign)), zap.Error(err))
		}
	case models.StationOffline:
		s.handleStationOffline(status.Endpoint.Callsign, &envelope.ID)
	}
}

// handleAcars routes an ACARS envelope: the session engine stamps or
// mutates state, the destination callsign is resolved through the registry,
// and the rewritten envelope is forwarded to the destination's inbox.
// Session mutations trigger a SessionUpdate fan-out.
func (s *Server) handleAcars(envelope models.Envelope) {
	acars := envelope.Payload.Acars
	cpdlc := acars.Message.CPDLC
	if cpdlc == nil {
		s.log.Warn("acars envelope carries no cpdlc payload")
		return
	}
	aircraft := acars.Routing.Aircraft
	log := s.log.WithCallsign(string(aircraft.Callsign))

	var (
		updated *session.Session
		changed bool
	)

	switch {
	case cpdlc.Message.Application != nil:
		side := session.SideStation
		if cpdlc.Source == aircraft.Callsign {
			side = session.SideAircraft
		}
		if _, err := s.engine.HandleApplication(aircraft, cpdlc.Source, side, cpdlc.Message.Application); err != nil {
			log.Warn("dropping application message", zap.Error(err))
			return
		}
		// MIN stamping does not alter any projected view, so no fan-out.

	case cpdlc.Message.Meta != nil:
		input, err := s.metaInput(aircraft, cpdlc)
		if err != nil {
			log.Warn("dropping cpdlc meta message", zap.Error(err))
			return
		}
		updated, changed, err = s.engine.HandleMeta(input)
		if err != nil {
			log.Warn("dropping cpdlc meta message", zap.Error(err))
			return
		}

	default:
		log.Warn("cpdlc envelope carries no message")
		return
	}

	s.forward(cpdlc.Destination, envelope)

	if changed {
		s.fanOut(updated, aircraft, &envelope.ID, exchangeStations(aircraft, cpdlc))
	}
}

// metaInput resolves the parties of a CPDLC meta message. The station party
// is whichever CPDLC endpoint is not the aircraft; for logon requests the
// named station is resolved as the logon target. Unresolvable callsigns
// fail the dispatch so the message is dropped, matching the routing rule
// that unregistered participants cannot take part in an exchange.
func (s *Server) metaInput(aircraft models.AcarsEndpoint, cpdlc *models.CpdlcEnvelope) (session.MetaInput, error) {
	input := session.MetaInput{Aircraft: aircraft, Meta: cpdlc.Message.Meta}

	party := cpdlc.Source
	if party == aircraft.Callsign {
		party = cpdlc.Destination
	}
	if party == aircraft.Callsign {
		input.StationParty = aircraft
	} else {
		endpoint, err := s.resolveEndpoint(party)
		if err != nil {
			return session.MetaInput{}, err
		}
		input.StationParty = endpoint
	}

	if logon, ok := cpdlc.Message.Meta.(*models.LogonRequest); ok {
		endpoint, err := s.resolveEndpoint(logon.Station)
		if err != nil {
			return session.MetaInput{}, err
		}
		input.LogonTarget = &endpoint
	}
	return input, nil
}

// resolveEndpoint maps a callsign to its registered ACARS endpoint.
func (s *Server) resolveEndpoint(callsign models.Callsign) (models.AcarsEndpoint, error) {
	entry, err := s.registry.LookupCallsign(callsign)
	if err != nil {
		return models.AcarsEndpoint{}, err
	}
	if entry == nil {
		return models.AcarsEndpoint{}, apperrors.NotFound(fmt.Sprintf("station %s not registered", callsign))
	}
	return entry.AcarsEndpoint, nil
}

// forward resolves the destination callsign and publishes the envelope on
// its inbox with rewritten routing: the new source is the envelope's
// previous destination, the new destination the resolved address. An
// unregistered destination skips forwarding without failing the dispatch.
func (s *Server) forward(destination models.Callsign, envelope models.Envelope) {
	entry, err := s.registry.LookupCallsign(destination)
	if err != nil {
		s.log.Error("destination lookup failed",
			zap.String("destination", string(destination)), zap.Error(err))
		return
	}
	if entry == nil {
		s.log.Debug("destination not registered, skipping forward",
			zap.String("destination", string(destination)))
		return
	}

	forwarded := envelope
	forwarded.Routing = models.Routing{
		Source:      envelope.Routing.Destination,
		Destination: models.AddressEndpoint(s.network, entry.NetworkAddress),
	}
	if err := s.client.SendToStation(entry.NetworkAddress, forwarded); err != nil {
		s.log.Error("failed to forward envelope",
			zap.String("destination", string(destination)), zap.Error(err))
	}
}

// exchangeStations lists the non-aircraft callsigns taking part in a CPDLC
// exchange, so a station that just left the session still gets a snapshot
// clearing its view.
func exchangeStations(aircraft models.AcarsEndpoint, cpdlc *models.CpdlcEnvelope) []models.Callsign {
	var stations []models.Callsign
	if cpdlc.Source != aircraft.Callsign {
		stations = append(stations, cpdlc.Source)
	}
	if cpdlc.Destination != aircraft.Callsign && cpdlc.Destination != cpdlc.Source {
		stations = append(stations, cpdlc.Destination)
	}
	return stations
}
