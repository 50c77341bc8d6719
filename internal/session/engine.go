package session

import (
	"go.uber.org/zap"

	apperrors "github.com/openlink/openlink/internal/common/errors"
	"github.com/openlink/openlink/internal/common/logger"
	"github.com/openlink/openlink/pkg/models"
)

// Engine applies CPDLC messages to persisted sessions. Every handler is a
// single compare-and-swap transaction against the store; the engine itself
// holds no state between calls.
type Engine struct {
	store *Store
	log   *logger.Logger
}

// NewEngine creates the engine.
func NewEngine(store *Store, log *logger.Logger) *Engine {
	return &Engine{store: store, log: log}
}

// Store exposes the underlying session store for snapshot replay.
func (e *Engine) Store() *Store {
	return e.store
}

// MetaInput carries a meta message with its resolved parties. StationParty
// is the ground-station end of the exchange (source for uplinks toward the
// aircraft, destination for downlinks). LogonTarget is the resolved
// endpoint of the station named in a LogonRequest.
type MetaInput struct {
	Aircraft     models.AcarsEndpoint
	StationParty models.AcarsEndpoint
	LogonTarget  *models.AcarsEndpoint
	Meta         models.CpdlcMeta
}

// HandleMeta applies a meta message to the aircraft's session. It returns
// the updated session (nil when the session was removed) and whether the
// session state changed, which drives SessionUpdate fan-out.
func (e *Engine) HandleMeta(in MetaInput) (*Session, bool, error) {
	log := e.log.WithCallsign(string(in.Aircraft.Callsign))
	changed := false

	apply := func(fn func(*Session)) (*Session, error) {
		return e.store.Update(in.Aircraft.Address, func(current *Session) (*Session, error) {
			if current == nil {
				current = New(in.Aircraft)
			}
			fn(current)
			if current.Empty() {
				return nil, nil
			}
			return current, nil
		})
	}

	switch meta := in.Meta.(type) {
	case *models.LogonRequest:
		if in.LogonTarget == nil {
			return nil, false, apperrors.NotFound("logon target not resolved")
		}
		log.Info("processing logon request", zap.String("station", string(meta.Station)))
		session, err := apply(func(s *Session) {
			s.ApplyLogonRequest(*in.LogonTarget)
			changed = true
		})
		return session, changed, err

	case *models.LogonResponse:
		log.Info("processing logon response", zap.Bool("accepted", meta.Accepted))
		if !meta.Accepted {
			return nil, false, nil
		}
		session, err := apply(func(s *Session) {
			if s.ApplyLogonAccepted(in.StationParty) {
				changed = true
			} else {
				log.Warn("no matching connection for logon acceptance",
					zap.String("station", string(in.StationParty.Callsign)))
			}
		})
		return session, changed, err

	case models.ConnectionRequest, *models.ConnectionRequest:
		session, err := apply(func(s *Session) {
			if s.ApplyConnectionRequest(in.StationParty) {
				changed = true
			} else {
				log.Warn("connection request without logon",
					zap.String("station", string(in.StationParty.Callsign)))
			}
		})
		return session, changed, err

	case *models.ConnectionResponse:
		if !meta.Accepted {
			return nil, false, nil
		}
		session, err := apply(func(s *Session) {
			if s.ApplyConnectionAccepted(in.StationParty) {
				changed = true
			} else {
				log.Warn("connection acceptance without logon",
					zap.String("station", string(in.StationParty.Callsign)))
			}
		})
		return session, changed, err

	case *models.NextDataAuthority:
		log.Info("designating next data authority",
			zap.String("nda", string(meta.NDA.Callsign)))
		session, err := apply(func(s *Session) {
			s.ApplyNextDataAuthority(meta.NDA)
			changed = true
		})
		return session, changed, err

	case models.EndService, *models.EndService:
		log.Info("processing end service",
			zap.String("station", string(in.StationParty.Callsign)))
		session, err := apply(func(s *Session) {
			if s.ApplyEndService(in.StationParty) {
				changed = true
			} else {
				log.Warn("end service for unknown station",
					zap.String("station", string(in.StationParty.Callsign)))
			}
		})
		return session, changed, err

	default:
		// Contact handling and logon forwarding are routed pass-throughs.
		return nil, false, nil
	}
}

// HandleApplication stamps an application message within the aircraft's
// session: MIN assignment, free-text normalization, and dialogue tracking.
// The message is mutated in place and must be forwarded as returned.
func (e *Engine) HandleApplication(aircraft models.AcarsEndpoint, sender models.Callsign, side Side, msg *models.ApplicationMessage) (*Session, error) {
	log := e.log.WithCallsign(string(aircraft.Callsign))
	session, err := e.store.Update(aircraft.Address, func(current *Session) (*Session, error) {
		if current == nil {
			return nil, apperrors.NotFound("no session for aircraft")
		}
		for _, warning := range current.StampApplication(msg, side, sender) {
			log.Warn(warning, zap.String("sender", string(sender)))
		}
		return current, nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug("stamped application message",
		zap.Uint8("min", msg.MIN), zap.String("side", side.String()))
	return session, nil
}
