// Package subjects builds and parses the NATS subject and bucket names of
// the OpenLink backbone. Every name is namespaced by protocol version and
// network so independent networks never share traffic or state.
package subjects

import (
	"fmt"
	"strings"

	"github.com/openlink/openlink/pkg/models"
)

const (
	prefix  = "openlink"
	version = "v1"

	outboxSegment = "outbox"
	inboxSegment  = "inbox"
)

// Outbox is the subject a participant publishes on. Only the participant
// itself may publish here; the relay subscribes to all outboxes.
func Outbox(network models.NetworkID, address models.NetworkAddress) string {
	return fmt.Sprintf("%s.%s.%s.%s.%s", prefix, version, network, outboxSegment, address)
}

// Inbox is the subject a participant receives on. Only the relay may
// publish here.
func Inbox(network models.NetworkID, address models.NetworkAddress) string {
	return fmt.Sprintf("%s.%s.%s.%s.%s", prefix, version, network, inboxSegment, address)
}

// AllOutbox is the wildcard over every outbox of a network.
func AllOutbox(network models.NetworkID) string {
	return fmt.Sprintf("%s.%s.%s.%s.>", prefix, version, network, outboxSegment)
}

// AllInbox is the wildcard over every inbox of a network.
func AllInbox(network models.NetworkID) string {
	return fmt.Sprintf("%s.%s.%s.%s.>", prefix, version, network, inboxSegment)
}

// SessionBucket is the KV bucket holding CPDLC session state per aircraft.
func SessionBucket(network models.NetworkID) string {
	return fmt.Sprintf("%s-%s-%s-cpdlc-sessions", prefix, version, network)
}

// RegistryBucket is the KV bucket holding the station registry.
func RegistryBucket(network models.NetworkID) string {
	return fmt.Sprintf("%s-%s-%s-station-registry", prefix, version, network)
}

// CallsignBucket is the KV bucket indexing station callsigns to station
// IDs for logon resolution.
func CallsignBucket(network models.NetworkID) string {
	return fmt.Sprintf("%s-%s-%s-station-callsigns", prefix, version, network)
}

// ParseOutboxSender extracts the sender address from an outbox subject.
func ParseOutboxSender(subject string) (models.NetworkAddress, error) {
	return parseAddress(subject, outboxSegment)
}

// ParseInboxRecipient extracts the recipient address from an inbox subject.
func ParseInboxRecipient(subject string) (models.NetworkAddress, error) {
	return parseAddress(subject, inboxSegment)
}

func parseAddress(subject, direction string) (models.NetworkAddress, error) {
	parts := strings.SplitN(subject, ".", 5)
	if len(parts) != 5 {
		return "", fmt.Errorf("malformed subject: %q", subject)
	}
	if parts[0] != prefix || parts[1] != version {
		return "", fmt.Errorf("subject outside the %s.%s namespace: %q", prefix, version, subject)
	}
	if parts[3] != direction {
		return "", fmt.Errorf("subject %q is not an %s subject", subject, direction)
	}
	if parts[4] == "" {
		return "", fmt.Errorf("subject %q has an empty address", subject)
	}
	return models.NetworkAddress(parts[4]), nil
}

// Network extracts the network segment from any versioned subject.
func Network(subject string) (models.NetworkID, error) {
	parts := strings.SplitN(subject, ".", 5)
	if len(parts) != 5 || parts[0] != prefix || parts[1] != version {
		return "", fmt.Errorf("malformed subject: %q", subject)
	}
	return models.NetworkID(parts[2]), nil
}
