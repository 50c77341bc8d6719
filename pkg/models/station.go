package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StationID is the network-level identity of a ground station: the network
// address it logged on with.
type StationID = NetworkAddress

// StationStatus is the availability of a ground station.
type StationStatus string

const (
	StationOnline  StationStatus = "Online"
	StationOffline StationStatus = "Offline"
)

// Valid reports whether the status is a known value.
func (s StationStatus) Valid() bool {
	return s == StationOnline || s == StationOffline
}

func (s StationStatus) String() string {
	return strings.ToLower(string(s))
}

// MarshalJSON encodes the capitalized wire form ("Online"/"Offline").
func (s StationStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid station status: %q", string(s))
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON decodes the wire form, rejecting unknown values.
func (s *StationStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	status := StationStatus(raw)
	if !status.Valid() {
		return fmt.Errorf("invalid station status: %q", raw)
	}
	*s = status
	return nil
}

