package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"

	apperrors "github.com/openlink/openlink/internal/common/errors"
	"github.com/openlink/openlink/internal/common/logger"
	"github.com/openlink/openlink/pkg/models"
	"github.com/openlink/openlink/pkg/subjects"
)

const authHTTPTimeout = 10 * time.Second

// Client is an authenticated OpenLink participant bound to one network.
type Client struct {
	nc      *nats.Conn
	network models.NetworkID
	creds   Credentials
	log     *logger.Logger
}

// ConnectWithAuthorizationCode performs the full user connection sequence:
// generate an ephemeral keypair, trade the OIDC code for a JWT at the auth
// service, and open the broker connection with that identity.
func ConnectWithAuthorizationCode(ctx context.Context, brokerURL, authURL, oidcCode string, network models.NetworkID, log *logger.Logger) (*Client, error) {
	seed, public, err := generateUserKeypair()
	if err != nil {
		return nil, err
	}
	jwt, cid, err := exchange(ctx, authURL+"/exchange", map[string]string{
		"oidc_code":        oidcCode,
		"user_nkey_public": public,
		"network":          string(network),
	})
	if err != nil {
		return nil, err
	}
	return Connect(brokerURL, Credentials{Seed: seed, JWT: jwt, CID: cid}, network, log)
}

// ConnectAsServer authenticates with the pre-shared server secret,
// receiving the wildcard permissions the relay needs.
func ConnectAsServer(ctx context.Context, brokerURL, authURL, serverSecret string, network models.NetworkID, log *logger.Logger) (*Client, error) {
	seed, public, err := generateUserKeypair()
	if err != nil {
		return nil, err
	}
	jwt, cid, err := exchange(ctx, authURL+"/exchange-server", map[string]string{
		"server_secret":    serverSecret,
		"user_nkey_public": public,
		"network":          string(network),
	})
	if err != nil {
		return nil, err
	}
	return Connect(brokerURL, Credentials{Seed: seed, JWT: jwt, CID: cid}, network, log)
}

// Connect opens a broker connection with existing credentials. Both native
// TCP and websocket broker URLs are accepted.
func Connect(brokerURL string, creds Credentials, network models.NetworkID, log *logger.Logger) (*Client, error) {
	nc, err := nats.Connect(brokerURL,
		nats.UserJWTAndSeed(creds.JWT, creds.Seed),
		nats.Name(fmt.Sprintf("openlink-%s-%s", network, creds.CID)),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransport, "failed to connect to broker")
	}
	log.WithNetwork(string(network)).Info("connected to broker")
	return &Client{nc: nc, network: network, creds: creds, log: log}, nil
}

// Network returns the network this client is bound to.
func (c *Client) Network() models.NetworkID {
	return c.network
}

// Address returns the client's network address (its CID).
func (c *Client) Address() models.NetworkAddress {
	return models.NetworkAddress(c.creds.CID)
}

// CID returns the authenticated connection identifier.
func (c *Client) CID() string {
	return c.creds.CID
}

// Credentials returns the credentials backing this connection.
func (c *Client) Credentials() Credentials {
	return c.creds
}

// NATS exposes the underlying connection for JetStream admin operations.
func (c *Client) NATS() *nats.Conn {
	return c.nc
}

// Close drains and closes the broker connection.
func (c *Client) Close() {
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
	}
}

// SendToServer wraps a payload in an envelope addressed to the network
// server, stamps the client's token, and publishes it on the client's
// outbox. Returns the sent envelope so callers can correlate replies.
func (c *Client) SendToServer(payload models.OpenLinkMessage) (models.Envelope, error) {
	envelope, err := models.NewEnvelope(payload).
		SourceAddress(c.network, c.Address()).
		DestinationServer(c.network).
		Token(c.creds.JWT).
		Build()
	if err != nil {
		return models.Envelope{}, err
	}
	subject := subjects.Outbox(c.network, c.Address())
	if err := c.PublishEnvelope(subject, envelope); err != nil {
		return models.Envelope{}, err
	}
	return envelope, nil
}

// SendAcars sends an ACARS envelope to the network server for routing.
func (c *Client) SendAcars(envelope models.AcarsEnvelope) (models.Envelope, error) {
	return c.SendToServer(models.AcarsPayload(envelope))
}

// SendCpdlc builds the CPDLC message and sends it to the network server
// for routing. Logon, connection, contact and application messages all go
// through here; the builder carries the endpoints and the message kind.
func (c *Client) SendCpdlc(builder *models.MessageBuilder) (models.Envelope, error) {
	acars, err := builder.Build()
	if err != nil {
		return models.Envelope{}, apperrors.Wrap(err, apperrors.CodeBadRequest, "invalid cpdlc message")
	}
	return c.SendAcars(acars)
}

// SendStationStatus announces this station's availability to the server.
// Online announcements must be repeated within the presence lease to keep
// the station registered.
func (c *Client) SendStationStatus(status models.StationStatus, endpoint models.AcarsEndpoint) (models.Envelope, error) {
	meta := models.NewStationStatus(models.StationID(c.Address()), status, endpoint)
	return c.SendToServer(models.MetaPayload(meta))
}

// SendToStation publishes an envelope directly on a participant's inbox.
// Requires server-level permissions.
func (c *Client) SendToStation(address models.NetworkAddress, envelope models.Envelope) error {
	return c.PublishEnvelope(subjects.Inbox(c.network, address), envelope)
}

// PublishEnvelope publishes an envelope on a raw subject and flushes
// before returning, so a successful return means the broker accepted it.
func (c *Client) PublishEnvelope(subject string, envelope models.Envelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeSerialization, "failed to encode envelope")
	}
	if err := c.nc.Publish(subject, data); err != nil {
		return apperrors.Wrap(err, apperrors.CodeTransport, "failed to publish envelope")
	}
	if err := c.nc.Flush(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeTransport, "failed to flush publish")
	}
	return nil
}

// SubscribeInbox subscribes to this client's inbox subject. Messages are
// delivered on the returned channel until the subscription is closed.
func (c *Client) SubscribeInbox() (*nats.Subscription, <-chan *nats.Msg, error) {
	return c.subscribe(subjects.Inbox(c.network, c.Address()))
}

// SubscribeAllOutbox subscribes to every outbox on the network. Requires
// server-level permissions.
func (c *Client) SubscribeAllOutbox() (*nats.Subscription, <-chan *nats.Msg, error) {
	return c.subscribe(subjects.AllOutbox(c.network))
}

func (c *Client) subscribe(subject string) (*nats.Subscription, <-chan *nats.Msg, error) {
	ch := make(chan *nats.Msg, 128)
	sub, err := c.nc.ChanSubscribe(subject, ch)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeTransport, "failed to subscribe to "+subject)
	}
	return sub, ch, nil
}

func generateUserKeypair() (seed, public string, err error) {
	kp, err := nkeys.CreateUser()
	if err != nil {
		return "", "", apperrors.Wrap(err, apperrors.CodeAuthentication, "failed to generate user keypair")
	}
	seedBytes, err := kp.Seed()
	if err != nil {
		return "", "", apperrors.Wrap(err, apperrors.CodeAuthentication, "failed to read keypair seed")
	}
	public, err = kp.PublicKey()
	if err != nil {
		return "", "", apperrors.Wrap(err, apperrors.CodeAuthentication, "failed to read keypair public key")
	}
	return string(seedBytes), public, nil
}

type exchangeReply struct {
	JWT   string `json:"jwt"`
	CID   string `json:"cid"`
	Error string `json:"error"`
}

// exchange posts a JSON body to an auth endpoint and returns the issued
// JWT and CID.
func exchange(ctx context.Context, url string, body map[string]string) (string, string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", "", apperrors.Wrap(err, apperrors.CodeSerialization, "failed to encode exchange request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", "", apperrors.Wrap(err, apperrors.CodeConfiguration, "failed to build exchange request")
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: authHTTPTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", apperrors.Wrap(err, apperrors.CodeTransport, "auth service unreachable")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", "", apperrors.Wrap(err, apperrors.CodeTransport, "failed to read exchange response")
	}

	var reply exchangeReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return "", "", apperrors.Wrap(err, apperrors.CodeSerialization, "malformed exchange response")
	}
	if resp.StatusCode != http.StatusOK {
		message := strings.TrimSpace(reply.Error)
		if message == "" {
			message = fmt.Sprintf("auth service returned status %d", resp.StatusCode)
		}
		return "", "", apperrors.Unauthorized(message)
	}
	return reply.JWT, reply.CID, nil
}
