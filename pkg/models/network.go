// Package models defines the OpenLink wire types: network routing, the
// ACARS application layer, the CPDLC message hierarchy with its static
// catalog, and the top-level envelope carried on every subject.
//
// The JSON encoding is the protocol contract. Nested message unions encode
// as {"type": ..., "data": ...} objects, CPDLC arguments as
// {"type": ..., "value": ...}, and routing endpoints as externally tagged
// variants. Unknown fields are ignored on read.
package models

import (
	"encoding/json"
	"fmt"
)

// NetworkID identifies a network (e.g. "demonetwork", "vatsim") on which
// stations are registered.
type NetworkID string

func (n NetworkID) String() string {
	return string(n)
}

// NetworkAddress identifies a specific participant registered on a network
// (e.g. a user CID or a ground-station gateway).
type NetworkAddress string

func (a NetworkAddress) String() string {
	return string(a)
}

// RoutingEndpoint is one end of an OpenLink routing path. It either targets
// the network server itself (routing delegated to the server) or a specific
// participant address on a network.
type RoutingEndpoint struct {
	Network NetworkID
	// Address is nil for a server endpoint.
	Address *NetworkAddress
}

// ServerEndpoint returns an endpoint targeting the network server.
func ServerEndpoint(network NetworkID) RoutingEndpoint {
	return RoutingEndpoint{Network: network}
}

// AddressEndpoint returns an endpoint targeting a specific participant.
func AddressEndpoint(network NetworkID, address NetworkAddress) RoutingEndpoint {
	return RoutingEndpoint{Network: network, Address: &address}
}

// IsServer reports whether the endpoint targets the network server.
func (e RoutingEndpoint) IsServer() bool {
	return e.Address == nil
}

// Equal compares two endpoints by value.
func (e RoutingEndpoint) Equal(other RoutingEndpoint) bool {
	if e.Network != other.Network {
		return false
	}
	if (e.Address == nil) != (other.Address == nil) {
		return false
	}
	return e.Address == nil || *e.Address == *other.Address
}

func (e RoutingEndpoint) String() string {
	if e.Address == nil {
		return fmt.Sprintf("Server(%s)", e.Network)
	}
	return fmt.Sprintf("Address(%s, %s)", e.Network, *e.Address)
}

// MarshalJSON encodes the endpoint as an externally tagged variant:
// {"Server": "net"} or {"Address": ["net", "addr"]}.
func (e RoutingEndpoint) MarshalJSON() ([]byte, error) {
	if e.Address == nil {
		return json.Marshal(map[string]NetworkID{"Server": e.Network})
	}
	return json.Marshal(map[string][2]string{
		"Address": {string(e.Network), string(*e.Address)},
	})
}

// UnmarshalJSON decodes the externally tagged variant form.
func (e *RoutingEndpoint) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if raw, ok := tagged["Server"]; ok {
		var network NetworkID
		if err := json.Unmarshal(raw, &network); err != nil {
			return err
		}
		*e = ServerEndpoint(network)
		return nil
	}
	if raw, ok := tagged["Address"]; ok {
		var pair [2]string
		if err := json.Unmarshal(raw, &pair); err != nil {
			return err
		}
		*e = AddressEndpoint(NetworkID(pair[0]), NetworkAddress(pair[1]))
		return nil
	}
	return fmt.Errorf("unknown routing endpoint variant: %s", string(data))
}

// Routing is the source and destination header attached to every envelope.
type Routing struct {
	Source      RoutingEndpoint `json:"source"`
	Destination RoutingEndpoint `json:"destination"`
}
