// Package sdk is the OpenLink client runtime: authenticated broker
// connections, envelope publishing, inbox/outbox subscriptions, and the
// pure CPDLC helpers shared by pilot and controller clients.
package sdk

import (
	"encoding/json"
	"os"

	apperrors "github.com/openlink/openlink/internal/common/errors"
)

// Credentials bind a broker identity: the user nkey seed, the JWT issued
// by the auth service, and the CID the JWT was scoped to.
type Credentials struct {
	Seed string `json:"seed"`
	JWT  string `json:"jwt"`
	CID  string `json:"cid"`
}

// LoadCredentials reads credentials from a JSON file.
func LoadCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, apperrors.Wrap(err, apperrors.CodeConfiguration, "failed to read credentials file")
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, apperrors.Wrap(err, apperrors.CodeSerialization, "malformed credentials file")
	}
	return creds, nil
}

// Save writes the credentials to a JSON file readable only by the owner.
func (c Credentials) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeSerialization, "failed to encode credentials")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return apperrors.Wrap(err, apperrors.CodeConfiguration, "failed to write credentials file")
	}
	return nil
}
