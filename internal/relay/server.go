// Package relay implements the per-network OpenLink server: it consumes
// the outbox wildcard, drives the station registry and the CPDLC session
// engine, rewrites routing, forwards envelopes to destination inboxes, and
// fans out SessionUpdate snapshots to every involved participant.
package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/openlink/openlink/internal/common/config"
	apperrors "github.com/openlink/openlink/internal/common/errors"
	"github.com/openlink/openlink/internal/common/logger"
	"github.com/openlink/openlink/internal/registry"
	"github.com/openlink/openlink/internal/session"
	"github.com/openlink/openlink/pkg/models"
	"github.com/openlink/openlink/pkg/sdk"
	"github.com/openlink/openlink/pkg/subjects"
)

// serverEndpoint is the CPDLC source used on server-originated messages.
var serverEndpoint = models.NewAcarsEndpoint("SERVER", "SERVER")

// transport is the slice of the SDK client the relay publishes and
// subscribes through, extracted so tests can run without a broker.
type transport interface {
	SendToStation(address models.NetworkAddress, envelope models.Envelope) error
	SubscribeAllOutbox() (*nats.Subscription, <-chan *nats.Msg, error)
}

// Server routes the traffic of a single network.
type Server struct {
	network  models.NetworkID
	client   transport
	conn     *sdk.Client
	token    string
	registry *registry.Registry
	engine   *session.Engine
	presence config.PresenceConfig
	log      *logger.Logger
}

// New connects to the broker in server mode and binds the network's KV
// buckets. With clean set, all buckets are wiped first.
func New(ctx context.Context, network models.NetworkID, cfg *config.Config, clean bool, log *logger.Logger) (*Server, error) {
	log = log.WithNetwork(string(network))

	client, err := sdk.ConnectAsServer(ctx, cfg.NATS.URL, cfg.Auth.URL, cfg.Auth.ServerSecret, network, log)
	if err != nil {
		return nil, err
	}

	js, err := client.NATS().JetStream()
	if err != nil {
		client.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeTransport, "failed to open jetstream context")
	}

	reg, err := registry.New(js, network, clean, log)
	if err != nil {
		client.Close()
		return nil, err
	}
	store, err := session.NewStore(js, network, clean, log)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &Server{
		network:  network,
		client:   client,
		conn:     client,
		token:    client.Credentials().JWT,
		registry: reg,
		engine:   session.NewEngine(store, log),
		presence: cfg.Presence,
		log:      log,
	}, nil
}

// Close drains the broker connection.
func (s *Server) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}

// Run consumes the outbox wildcard until the context is cancelled or the
// subscription closes. The presence sweeper runs on the same loop.
func (s *Server) Run(ctx context.Context) error {
	sub, msgs, err := s.client.SubscribeAllOutbox()
	if err != nil {
		return err
	}
	if sub != nil {
		defer func() { _ = sub.Unsubscribe() }()
	}

	s.log.Info("server listening",
		zap.String("subject", subjects.AllOutbox(s.network)),
		zap.Duration("lease_ttl", s.presence.LeaseTTL()),
		zap.Duration("sweep_interval", s.presence.SweepInterval()),
		zap.Bool("auto_end_service_on_station_offline", s.presence.AutoEndServiceStationOffline))

	ticker := time.NewTicker(s.presence.SweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				s.log.Warn("outbox subscription closed")
				return nil
			}
			s.handleFrame(msg.Subject, msg.Data)
		case <-ticker.C:
			s.sweepPresence()
		}
	}
}

// handleFrame validates a raw broker frame and dispatches the envelope.
// Malformed frames are logged and skipped.
func (s *Server) handleFrame(subject string, data []byte) {
	sender, err := subjects.ParseOutboxSender(subject)
	if err != nil {
		s.log.Warn("ignoring frame on unexpected subject",
			zap.String("subject", subject), zap.Error(err))
		return
	}
	var envelope models.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		s.log.Warn("ignoring malformed envelope",
			zap.String("sender", string(sender)), zap.Error(err))
		return
	}

	switch {
	case envelope.Payload.Meta != nil:
		s.handleMeta(sender, envelope)
	case envelope.Payload.Acars != nil:
		s.handleAcars(envelope)
	default:
		s.log.Warn("envelope carries no payload", zap.String("sender", string(sender)))
	}
}

// sweepPresence expires stale online stations and treats each expiry as an
// implicit offline transition.
func (s *Server) sweepPresence() {
	expired, err := s.registry.ExpireStaleOnline(s.presence.LeaseTTL())
	if err != nil {
		s.log.Warn("presence sweeper failed", zap.Error(err))
		return
	}
	for _, entry := range expired {
		s.log.Info("presence lease expired, station marked offline",
			zap.String("station", string(entry.StationID)),
			zap.String("callsign", string(entry.AcarsEndpoint.Callsign)))
		s.handleStationOffline(entry.AcarsEndpoint.Callsign, nil)
	}
}
