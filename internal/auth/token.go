// Package auth implements the OpenLink auth service: it exchanges OIDC
// authorization codes (or the shared server secret) for short-lived NATS
// user JWTs scoped to the caller's outbox and inbox subjects.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nkeys"

	apperrors "github.com/openlink/openlink/internal/common/errors"
	"github.com/openlink/openlink/pkg/models"
	"github.com/openlink/openlink/pkg/subjects"
)

const (
	// UserTokenTTL is the lifetime of a participant JWT.
	UserTokenTTL = time.Hour
	// ServerTokenTTL is the lifetime of a relay server JWT.
	ServerTokenTTL = 24 * time.Hour
)

// ServerAddress is the network address the relay server for a network
// authenticates as.
func ServerAddress(network models.NetworkID) models.NetworkAddress {
	return models.NetworkAddress(fmt.Sprintf("openlink-server-%s", network))
}

// TokenIssuer signs NATS user JWTs with the account keypair.
type TokenIssuer struct {
	account nkeys.KeyPair
	now     func() time.Time
}

// NewTokenIssuer wraps an account keypair. The keypair must be able to sign
// (i.e. carry its seed).
func NewTokenIssuer(account nkeys.KeyPair) *TokenIssuer {
	return &TokenIssuer{account: account, now: time.Now}
}

// NewTokenIssuerFromSeed creates an issuer from an account seed, or
// generates a fresh account keypair when the seed is empty.
func NewTokenIssuerFromSeed(seed string) (*TokenIssuer, error) {
	if seed == "" {
		account, err := nkeys.CreateAccount()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to generate account keypair")
		}
		return NewTokenIssuer(account), nil
	}
	account, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfiguration, "invalid account seed")
	}
	return NewTokenIssuer(account), nil
}

// PublicKey returns the account public key used as the JWT issuer.
func (t *TokenIssuer) PublicKey() (string, error) {
	key, err := t.account.PublicKey()
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "failed to read account public key")
	}
	return key, nil
}

type userClaims struct {
	JTI  string     `json:"jti"`
	IAT  int64      `json:"iat"`
	EXP  int64      `json:"exp"`
	ISS  string     `json:"iss"`
	Name string     `json:"name"`
	Sub  string     `json:"sub"`
	NATS natsClaims `json:"nats"`
}

type natsClaims struct {
	Permissions natsPermissions `json:"permissions"`
	Type        string          `json:"type"`
	Version     int             `json:"version"`
}

type natsPermissions struct {
	Publish   natsPermissionList `json:"publish"`
	Subscribe natsPermissionList `json:"subscribe"`
}

type natsPermissionList struct {
	Allow []string `json:"allow"`
}

// SignUserJWT signs a participant JWT. The grant is minimal: publish on the
// participant's own outbox, subscribe on its own inbox.
func (t *TokenIssuer) SignUserJWT(userNkeyPublic, cid string, network models.NetworkID, ttl time.Duration) (string, error) {
	address := models.NetworkAddress(cid)
	return t.sign(userNkeyPublic, cid, ttl, natsPermissions{
		Publish:   natsPermissionList{Allow: []string{subjects.Outbox(network, address)}},
		Subscribe: natsPermissionList{Allow: []string{subjects.Inbox(network, address)}},
	})
}

// SignServerJWT signs a relay server JWT: subscribe on every outbox,
// publish on every inbox, plus JetStream API access.
func (t *TokenIssuer) SignServerJWT(userNkeyPublic string, network models.NetworkID, ttl time.Duration) (string, error) {
	name := string(ServerAddress(network))
	return t.sign(userNkeyPublic, name, ttl, natsPermissions{
		Publish: natsPermissionList{Allow: []string{
			subjects.AllInbox(network), "$JS.API.>", "_INBOX.>",
		}},
		Subscribe: natsPermissionList{Allow: []string{
			subjects.AllOutbox(network), "$JS.API.>", "_INBOX.>",
		}},
	})
}

func (t *TokenIssuer) sign(userNkeyPublic, name string, ttl time.Duration, perms natsPermissions) (string, error) {
	issuer, err := t.PublicKey()
	if err != nil {
		return "", err
	}
	now := t.now().Unix()
	claims := userClaims{
		JTI:  uuid.NewString(),
		IAT:  now,
		EXP:  now + int64(ttl.Seconds()),
		ISS:  issuer,
		Name: name,
		Sub:  userNkeyPublic,
		NATS: natsClaims{
			Permissions: perms,
			Type:        "user",
			Version:     2,
		},
	}
	return encodeAndSign(t.account, claims)
}

// encodeAndSign produces base64url(header).base64url(body).base64url(sig)
// with the NATS ed25519-nkey algorithm.
func encodeAndSign(kp nkeys.KeyPair, claims userClaims) (string, error) {
	header, err := json.Marshal(map[string]string{
		"typ": "JWT",
		"alg": "ed25519-nkey",
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode jwt header")
	}
	body, err := json.Marshal(claims)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode jwt claims")
	}

	enc := base64.RawURLEncoding
	signingInput := enc.EncodeToString(header) + "." + enc.EncodeToString(body)

	sig, err := kp.Sign([]byte(signingInput))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "failed to sign jwt")
	}
	return signingInput + "." + enc.EncodeToString(sig), nil
}
