package relay

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openlink/openlink/internal/session"
	"github.com/openlink/openlink/pkg/models"
)

// fanOut delivers SessionUpdate snapshots after a session mutation: the
// aircraft gets its full view, every connected station and every extra
// exchange participant gets its own isolated view. A nil session projects
// empty views, clearing the recipients' state after removal.
func (s *Server) fanOut(sess *session.Session, aircraft models.AcarsEndpoint, correlation *uuid.UUID, extras []models.Callsign) {
	aircraftView := models.SessionView{}
	if sess != nil {
		aircraftView = sess.AircraftView()
	}
	s.sendSessionUpdate(aircraft.Callsign, aircraft, aircraftView, correlation)

	targets := map[models.Callsign]bool{}
	if sess != nil {
		for _, callsign := range sess.ConnectedCallsigns() {
			targets[callsign] = true
		}
	}
	for _, callsign := range extras {
		targets[callsign] = true
	}

	for callsign := range targets {
		view := models.SessionView{}
		if sess != nil {
			view = sess.StationView(callsign)
		}
		s.sendSessionUpdate(callsign, aircraft, view, correlation)
	}
}

// sendSessionUpdate builds and delivers one snapshot envelope to the
// recipient's inbox. Unregistered recipients are skipped.
func (s *Server) sendSessionUpdate(recipient models.Callsign, aircraft models.AcarsEndpoint, view models.SessionView, correlation *uuid.UUID) {
	entry, err := s.registry.LookupCallsign(recipient)
	if err != nil {
		s.log.Error("recipient lookup failed",
			zap.String("recipient", string(recipient)), zap.Error(err))
		return
	}
	if entry == nil {
		s.log.Debug("recipient not registered, skipping session update",
			zap.String("recipient", string(recipient)))
		return
	}

	builder := models.Cpdlc(aircraft).
		From(serverEndpoint).
		To(entry.AcarsEndpoint).
		SessionUpdate(view).
		Envelope().
		SourceServer(s.network).
		DestinationAddress(s.network, entry.NetworkAddress).
		Token(s.token)
	if correlation != nil {
		builder = builder.CorrelationID(*correlation)
	}
	envelope, err := builder.Build()
	if err != nil {
		s.log.Error("failed to build session update", zap.Error(err))
		return
	}
	if err := s.client.SendToStation(entry.NetworkAddress, envelope); err != nil {
		s.log.Error("failed to send session update",
			zap.String("recipient", string(recipient)), zap.Error(err))
	}
}

// replaySnapshots delivers the current view of every session the
// participant is involved in, making reconnection idempotent: a freshly
// booted client receives its correct state without any history replay.
func (s *Server) replaySnapshots(address models.NetworkAddress, endpoint models.AcarsEndpoint, correlation uuid.UUID) error {
	sessions, err := s.engine.Store().List()
	if err != nil {
		return err
	}
	for _, sess := range sessions {
		if !sess.Involves(endpoint.Callsign) {
			continue
		}
		view := sess.StationView(endpoint.Callsign)
		if sess.Aircraft.Callsign == endpoint.Callsign {
			view = sess.AircraftView()
		}

		envelope, err := models.Cpdlc(sess.Aircraft).
			From(serverEndpoint).
			To(endpoint).
			SessionUpdate(view).
			Envelope().
			SourceServer(s.network).
			DestinationAddress(s.network, address).
			CorrelationID(correlation).
			Token(s.token).
			Build()
		if err != nil {
			return err
		}
		if err := s.client.SendToStation(address, envelope); err != nil {
			return err
		}
		s.log.Debug("replayed session snapshot",
			zap.String("recipient", string(endpoint.Callsign)),
			zap.String("aircraft", string(sess.Aircraft.Callsign)))
	}
	return nil
}

// handleStationOffline terminates every session still holding the offline
// station, optionally delivers an implicit END SERVICE to each affected
// aircraft, and fans out the resulting snapshots. The fan-out targets are
// captured before the mutation so a removed session still clears every
// former participant's view.
func (s *Server) handleStationOffline(callsign models.Callsign, correlation *uuid.UUID) {
	sessions, err := s.engine.Store().List()
	if err != nil {
		s.log.Warn("failed to list sessions for offline station",
			zap.String("callsign", string(callsign)), zap.Error(err))
		return
	}

	for _, sess := range sessions {
		conn := sess.ConnectionByCallsign(callsign)
		if conn == nil {
			continue
		}
		aircraft := sess.Aircraft
		targets := sess.ConnectedCallsigns()

		updated, changed, err := s.engine.HandleMeta(session.MetaInput{
			Aircraft:     aircraft,
			StationParty: conn.Station,
			Meta:         models.EndService{},
		})
		if err != nil {
			s.log.Warn("failed to end service for offline station",
				zap.String("callsign", string(callsign)),
				zap.String("aircraft", string(aircraft.Callsign)),
				zap.Error(err))
			continue
		}

		if s.presence.AutoEndServiceStationOffline {
			s.sendImplicitEndService(aircraft, conn.Station, correlation)
		}
		if changed {
			s.fanOut(updated, aircraft, correlation, targets)
		}
	}
}

// sendImplicitEndService notifies the aircraft that the offline station's
// service ended, as if the station had sent END SERVICE itself.
func (s *Server) sendImplicitEndService(aircraft, station models.AcarsEndpoint, correlation *uuid.UUID) {
	entry, err := s.registry.LookupCallsign(aircraft.Callsign)
	if err != nil || entry == nil {
		s.log.Debug("aircraft not registered, skipping implicit end service",
			zap.String("aircraft", string(aircraft.Callsign)))
		return
	}

	builder := models.Cpdlc(aircraft).
		From(station).
		ToAircraft().
		EndService().
		Envelope().
		SourceServer(s.network).
		DestinationAddress(s.network, entry.NetworkAddress).
		Token(s.token)
	if correlation != nil {
		builder = builder.CorrelationID(*correlation)
	}
	envelope, err := builder.Build()
	if err != nil {
		s.log.Error("failed to build implicit end service", zap.Error(err))
		return
	}
	if err := s.client.SendToStation(entry.NetworkAddress, envelope); err != nil {
		s.log.Warn("failed to send implicit end service",
			zap.String("aircraft", string(aircraft.Callsign)),
			zap.String("station", string(station.Callsign)),
			zap.Error(err))
	}
}
