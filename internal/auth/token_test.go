package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	account, err := nkeys.CreateAccount()
	require.NoError(t, err)
	return NewTokenIssuer(account)
}

func decodeClaims(t *testing.T, jwt string) map[string]json.RawMessage {
	t.Helper()
	parts := strings.Split(jwt, ".")
	require.Len(t, parts, 3)
	body, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var claims map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &claims))
	return claims
}

func TestSignUserJWTHasThreeParts(t *testing.T) {
	issuer := newTestIssuer(t)
	jwt, err := issuer.SignUserJWT("UABC123", "42", "vatsim", UserTokenTTL)
	require.NoError(t, err)
	assert.Len(t, strings.Split(jwt, "."), 3)
}

func TestUserJWTPermissionsAreScoped(t *testing.T) {
	issuer := newTestIssuer(t)
	jwt, err := issuer.SignUserJWT("UABC123", "42", "vatsim", UserTokenTTL)
	require.NoError(t, err)

	claims := decodeClaims(t, jwt)
	var nats struct {
		Permissions struct {
			Publish   struct{ Allow []string }
			Subscribe struct{ Allow []string }
		}
		Type    string
		Version int
	}
	require.NoError(t, json.Unmarshal(claims["nats"], &nats))

	assert.Equal(t, []string{"openlink.v1.vatsim.outbox.42"}, nats.Permissions.Publish.Allow)
	assert.Equal(t, []string{"openlink.v1.vatsim.inbox.42"}, nats.Permissions.Subscribe.Allow)
	assert.Equal(t, "user", nats.Type)
	assert.Equal(t, 2, nats.Version)
}

func TestUserJWTSubjectAndIssuer(t *testing.T) {
	issuer := newTestIssuer(t)
	accountKey, err := issuer.PublicKey()
	require.NoError(t, err)

	jwt, err := issuer.SignUserJWT("UTEST_PUBLIC_KEY", "99", "icao", UserTokenTTL)
	require.NoError(t, err)

	claims := decodeClaims(t, jwt)
	assert.JSONEq(t, `"UTEST_PUBLIC_KEY"`, string(claims["sub"]))
	assert.JSONEq(t, `"99"`, string(claims["name"]))

	var iss string
	require.NoError(t, json.Unmarshal(claims["iss"], &iss))
	assert.Equal(t, accountKey, iss)
}

func TestUserJWTExpiryMatchesTTL(t *testing.T) {
	issuer := newTestIssuer(t)
	jwt, err := issuer.SignUserJWT("UKEY", "1", "vatsim", 2*time.Hour)
	require.NoError(t, err)

	claims := decodeClaims(t, jwt)
	var iat, exp int64
	require.NoError(t, json.Unmarshal(claims["iat"], &iat))
	require.NoError(t, json.Unmarshal(claims["exp"], &exp))
	assert.Equal(t, int64(7200), exp-iat)
}

func TestUserJWTSignatureVerifies(t *testing.T) {
	account, err := nkeys.CreateAccount()
	require.NoError(t, err)
	issuer := NewTokenIssuer(account)

	jwt, err := issuer.SignUserJWT("UKEY", "1", "vatsim", UserTokenTTL)
	require.NoError(t, err)

	parts := strings.Split(jwt, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	assert.NoError(t, account.Verify([]byte(parts[0]+"."+parts[1]), sig))
}

func TestServerJWTHasWildcardPermissions(t *testing.T) {
	issuer := newTestIssuer(t)
	jwt, err := issuer.SignServerJWT("USERVER", "vatsim", ServerTokenTTL)
	require.NoError(t, err)

	claims := decodeClaims(t, jwt)
	var nats struct {
		Permissions struct {
			Publish   struct{ Allow []string }
			Subscribe struct{ Allow []string }
		}
	}
	require.NoError(t, json.Unmarshal(claims["nats"], &nats))

	assert.Contains(t, nats.Permissions.Publish.Allow, "openlink.v1.vatsim.inbox.>")
	assert.Contains(t, nats.Permissions.Publish.Allow, "$JS.API.>")
	assert.Contains(t, nats.Permissions.Subscribe.Allow, "openlink.v1.vatsim.outbox.>")
	assert.Contains(t, nats.Permissions.Subscribe.Allow, "_INBOX.>")

	assert.JSONEq(t, `"openlink-server-vatsim"`, string(claims["name"]))
}

func TestNewTokenIssuerFromSeed(t *testing.T) {
	account, err := nkeys.CreateAccount()
	require.NoError(t, err)
	seed, err := account.Seed()
	require.NoError(t, err)

	issuer, err := NewTokenIssuerFromSeed(string(seed))
	require.NoError(t, err)

	expected, err := account.PublicKey()
	require.NoError(t, err)
	actual, err := issuer.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, expected, actual)

	_, err = NewTokenIssuerFromSeed("not-a-seed")
	assert.Error(t, err)

	generated, err := NewTokenIssuerFromSeed("")
	require.NoError(t, err)
	key, err := generated.PublicKey()
	require.NoError(t, err)
	assert.NotEmpty(t, key)
}
