package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ICAOAirportCode is a four-letter ICAO airport designator (e.g. "LFPG").
type ICAOAirportCode string

func (c ICAOAirportCode) String() string {
	return string(c)
}

// ParseICAOAirportCode validates that a string is exactly four uppercase
// ASCII letters before converting it.
func ParseICAOAirportCode(s string) (ICAOAirportCode, error) {
	if len(s) != 4 {
		return "", fmt.Errorf("invalid ICAO airport code %q: must be exactly 4 uppercase ASCII letters", s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return "", fmt.Errorf("invalid ICAO airport code %q: must be exactly 4 uppercase ASCII letters", s)
		}
	}
	return ICAOAirportCode(s), nil
}

// FlightLevel is a typed flight level in hundreds of feet (FL350 == 350).
// Serialises as a bare number.
type FlightLevel uint16

func (f FlightLevel) String() string {
	return fmt.Sprintf("FL%d", uint16(f))
}

// ParseFlightLevel accepts "350" or "FL350" and rejects values above 999.
func ParseFlightLevel(s string) (FlightLevel, error) {
	numeric := strings.TrimPrefix(s, "FL")
	level, err := strconv.ParseUint(numeric, 10, 16)
	if err != nil || level > 999 {
		return 0, fmt.Errorf("invalid flight level %q: must be a number between 0 and 999", s)
	}
	return FlightLevel(level), nil
}

// MessageDirection distinguishes uplinks (ATC to aircraft, "UM") from
// downlinks (aircraft to ATC, "DM").
type MessageDirection string

const (
	Uplink   MessageDirection = "Uplink"
	Downlink MessageDirection = "Downlink"
)

// ResponseAttribute dictates which replies are valid for closing a CPDLC
// dialogue. Precedence for multi-element messages is WU > AN > R > Y > N,
// with NE treated as N.
type ResponseAttribute int

const (
	RespN ResponseAttribute = iota
	RespY
	RespR
	RespAN
	RespWU
	RespNE
)

var respAttrNames = map[ResponseAttribute]string{
	RespN:  "N",
	RespY:  "Y",
	RespR:  "R",
	RespAN: "AN",
	RespWU: "WU",
	RespNE: "NE",
}

func (r ResponseAttribute) String() string {
	switch r {
	case RespWU:
		return "W/U"
	case RespAN:
		return "A/N"
	default:
		return respAttrNames[r]
	}
}

// Name returns the wire name ("WU", "AN", "R", "Y", "N", "NE").
func (r ResponseAttribute) Name() string {
	return respAttrNames[r]
}

// ParseResponseAttribute converts a wire name back to an attribute.
func ParseResponseAttribute(s string) (ResponseAttribute, error) {
	for attr, name := range respAttrNames {
		if name == s {
			return attr, nil
		}
	}
	return 0, fmt.Errorf("unknown response attribute: %q", s)
}

func (r ResponseAttribute) MarshalJSON() ([]byte, error) {
	name, ok := respAttrNames[r]
	if !ok {
		return nil, fmt.Errorf("invalid response attribute: %d", int(r))
	}
	return json.Marshal(name)
}

func (r *ResponseAttribute) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	attr, err := ParseResponseAttribute(name)
	if err != nil {
		return err
	}
	*r = attr
	return nil
}

// normalized folds NE into N for precedence comparisons.
func (r ResponseAttribute) normalized() ResponseAttribute {
	if r == RespNE {
		return RespN
	}
	return r
}

// EffectiveResponseAttribute computes the effective attribute for a
// multi-element message by taking the highest-precedence entry.
// An empty list yields N.
func EffectiveResponseAttribute(attrs []ResponseAttribute) ResponseAttribute {
	effective := RespN
	for _, attr := range attrs {
		if norm := attr.normalized(); norm > effective {
			effective = norm
		}
	}
	return effective
}

// ArgType names the kind of argument expected in a template placeholder.
type ArgType string

const (
	ArgLevel               ArgType = "Level"
	ArgSpeed               ArgType = "Speed"
	ArgTime                ArgType = "Time"
	ArgPosition            ArgType = "Position"
	ArgDirection           ArgType = "Direction"
	ArgDegrees             ArgType = "Degrees"
	ArgDistance            ArgType = "Distance"
	ArgRouteClearance      ArgType = "RouteClearance"
	ArgProcedureName       ArgType = "ProcedureName"
	ArgUnitName            ArgType = "UnitName"
	ArgFacilityDesignation ArgType = "FacilityDesignation"
	ArgFrequency           ArgType = "Frequency"
	ArgCode                ArgType = "Code"
	ArgAtisCode            ArgType = "AtisCode"
	ArgErrorInfo           ArgType = "ErrorInfo"
	ArgFreeText            ArgType = "FreeText"
	ArgVerticalRate        ArgType = "VerticalRate"
	ArgAltimeter           ArgType = "Altimeter"
	ArgLegType             ArgType = "LegType"
	ArgPositionReport      ArgType = "PositionReport"
	ArgRemainingFuel       ArgType = "RemainingFuel"
	ArgPersonsOnBoard      ArgType = "PersonsOnBoard"
	ArgSpeedType           ArgType = "SpeedType"
	ArgDepartureClearance  ArgType = "DepartureClearance"
)

// Argument is a typed value filling one template placeholder. Level and
// Degrees are numeric; every other kind carries its textual representation.
type Argument struct {
	Type    ArgType
	Level   FlightLevel
	Degrees uint16
	Text    string
}

// LevelArg builds a flight-level argument.
func LevelArg(level FlightLevel) Argument {
	return Argument{Type: ArgLevel, Level: level}
}

// DegreesArg builds a heading argument.
func DegreesArg(degrees uint16) Argument {
	return Argument{Type: ArgDegrees, Degrees: degrees}
}

// TextArg builds any string-valued argument.
func TextArg(t ArgType, text string) Argument {
	return Argument{Type: t, Text: text}
}

// FreeTextArg builds a free-text argument.
func FreeTextArg(text string) Argument {
	return TextArg(ArgFreeText, text)
}

func (a Argument) String() string {
	switch a.Type {
	case ArgLevel:
		return a.Level.String()
	case ArgDegrees:
		return strconv.Itoa(int(a.Degrees))
	default:
		return a.Text
	}
}

type taggedArgument struct {
	Type  ArgType         `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the argument as {"type": ..., "value": ...}.
func (a Argument) MarshalJSON() ([]byte, error) {
	var value any
	switch a.Type {
	case ArgLevel:
		value = uint16(a.Level)
	case ArgDegrees:
		value = a.Degrees
	default:
		value = a.Text
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(taggedArgument{Type: a.Type, Value: raw})
}

// UnmarshalJSON decodes the {"type", "value"} form.
func (a *Argument) UnmarshalJSON(data []byte) error {
	var tagged taggedArgument
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	a.Type = tagged.Type
	switch tagged.Type {
	case ArgLevel:
		var level uint16
		if err := json.Unmarshal(tagged.Value, &level); err != nil {
			return err
		}
		a.Level = FlightLevel(level)
	case ArgDegrees:
		if err := json.Unmarshal(tagged.Value, &a.Degrees); err != nil {
			return err
		}
	default:
		if err := json.Unmarshal(tagged.Value, &a.Text); err != nil {
			return err
		}
	}
	return nil
}

// MessageElement is one element of a CPDLC application message. A single
// message can carry up to five elements. The ID references a catalog entry.
type MessageElement struct {
	ID   string     `json:"id"`
	Args []Argument `json:"args"`
}

// NewMessageElement creates an element with the given catalog ID and args.
func NewMessageElement(id string, args ...Argument) MessageElement {
	if args == nil {
		args = []Argument{}
	}
	return MessageElement{ID: id, Args: args}
}

// Definition looks up the catalog entry for this element's ID.
func (e MessageElement) Definition() (*MessageDefinition, bool) {
	return FindDefinition(e.ID)
}

// Render substitutes template placeholders with concrete argument values.
func (e MessageElement) Render() string {
	def, ok := e.Definition()
	if !ok {
		return fmt.Sprintf("[UNKNOWN %s]", e.ID)
	}
	return def.Render(e.Args)
}

// ApplicationMessage is an operational CPDLC message. The MIN is assigned
// by the server per session and side; MRN references the message being
// replied to and is nil for a dialogue-opening message.
type ApplicationMessage struct {
	MIN       uint8            `json:"min"`
	MRN       *uint8           `json:"mrn"`
	Elements  []MessageElement `json:"elements"`
	Timestamp time.Time        `json:"timestamp"`
}

// EffectiveResponseAttr computes the effective response attribute for the
// message from the catalog entries of its elements.
func (m *ApplicationMessage) EffectiveResponseAttr() ResponseAttribute {
	var attrs []ResponseAttribute
	for _, e := range m.Elements {
		if def, ok := e.Definition(); ok {
			attrs = append(attrs, def.ResponseAttr)
		}
	}
	return EffectiveResponseAttribute(attrs)
}

// Render joins the rendered elements with " / " for multi-element messages.
func (m *ApplicationMessage) Render() string {
	parts := make([]string, 0, len(m.Elements))
	for _, e := range m.Elements {
		parts = append(parts, e.Render())
	}
	return strings.Join(parts, " / ")
}

var closingResponseIDs = map[string]bool{
	"DM0": true, "DM1": true, "DM3": true, "DM4": true, "DM5": true,
	"UM0": true, "UM3": true, "UM4": true, "UM5": true,
}

var standbyIDs = map[string]bool{
	"DM2": true, "UM1": true, "UM2": true,
}

// IsClosingResponse reports whether the message is a single-element closing
// response (WILCO, UNABLE, ROGER, AFFIRM, NEGATIVE).
func (m *ApplicationMessage) IsClosingResponse() bool {
	return len(m.Elements) == 1 && closingResponseIDs[m.Elements[0].ID]
}

// IsStandby reports whether the message is a single-element STANDBY, which
// never closes an open dialogue.
func (m *ApplicationMessage) IsStandby() bool {
	return len(m.Elements) == 1 && standbyIDs[m.Elements[0].ID]
}

// IsStandbyElementID reports whether an element ID is one of the STANDBY
// forms (DM2, UM1, UM2).
func IsStandbyElementID(id string) bool {
	return standbyIDs[id]
}

// ClosesDialogueResponseElements reports whether the given response
// elements would close the referenced dialogue.
func ClosesDialogueResponseElements(elements []MessageElement) bool {
	return len(elements) == 1 && closingResponseIDs[elements[0].ID]
}

// DialogueState tracks whether a dialogue is still awaiting its closing
// response.
type DialogueState string

const (
	DialogueOpen   DialogueState = "Open"
	DialogueClosed DialogueState = "Closed"
)

// Dialogue tracks a single MIN↔MRN exchange within a session.
type Dialogue struct {
	InitiatorMIN uint8             `json:"initiator_min"`
	Initiator    Callsign          `json:"initiator"`
	State        DialogueState     `json:"state"`
	ResponseAttr ResponseAttribute `json:"response_attr"`
}

// ConnectionPhase is the lifecycle state of one aircraft↔station connection.
type ConnectionPhase string

const (
	PhaseLogonPending ConnectionPhase = "LogonPending"
	PhaseLoggedOn     ConnectionPhase = "LoggedOn"
	PhaseConnected    ConnectionPhase = "Connected"
	PhaseTerminated   ConnectionPhase = "Terminated"
)

func (p ConnectionPhase) String() string {
	switch p {
	case PhaseLogonPending:
		return "LOGON PENDING"
	case PhaseLoggedOn:
		return "LOGGED ON"
	case PhaseConnected:
		return "CONNECTED"
	case PhaseTerminated:
		return "TERMINATED"
	default:
		return string(p)
	}
}

// ConnectionView is one connection as seen by a participant. The peer is
// the other party: station callsign for an aircraft, aircraft callsign for
// a station.
type ConnectionView struct {
	Peer  Callsign        `json:"peer"`
	Phase ConnectionPhase `json:"phase"`
}

// SessionView is the server-authoritative projection of a CPDLC session
// for a given participant, broadcast after every session mutation.
type SessionView struct {
	ActiveConnection   *ConnectionView `json:"active_connection"`
	InactiveConnection *ConnectionView `json:"inactive_connection"`
	NextDataAuthority  *Callsign       `json:"next_data_authority"`
}

// CpdlcEnvelope wraps a CPDLC message with source and destination callsigns.
type CpdlcEnvelope struct {
	Source      Callsign     `json:"source"`
	Destination Callsign     `json:"destination"`
	Message     CpdlcMessage `json:"message"`
}

// CpdlcMessage distinguishes operational application messages from
// protocol meta messages.
type CpdlcMessage struct {
	Application *ApplicationMessage
	Meta        CpdlcMeta
}

// ApplicationCpdlcMessage wraps an application message into the union.
func ApplicationCpdlcMessage(msg *ApplicationMessage) CpdlcMessage {
	return CpdlcMessage{Application: msg}
}

// MetaCpdlcMessage wraps a meta message into the union.
func MetaCpdlcMessage(meta CpdlcMeta) CpdlcMessage {
	return CpdlcMessage{Meta: meta}
}

// Render produces the human-readable text of whichever variant is set.
func (m CpdlcMessage) Render() string {
	if m.Application != nil {
		return m.Application.Render()
	}
	if m.Meta != nil {
		return m.Meta.RenderText()
	}
	return ""
}

// MarshalJSON encodes the union as {"type": "Application"|"Meta", "data": ...}.
func (m CpdlcMessage) MarshalJSON() ([]byte, error) {
	switch {
	case m.Application != nil:
		data, err := json.Marshal(m.Application)
		if err != nil {
			return nil, err
		}
		return json.Marshal(taggedUnion{Type: "Application", Data: data})
	case m.Meta != nil:
		data, err := marshalMeta(m.Meta)
		if err != nil {
			return nil, err
		}
		return json.Marshal(taggedUnion{Type: "Meta", Data: data})
	default:
		return nil, fmt.Errorf("cpdlc message has no payload")
	}
}

// UnmarshalJSON decodes the {"type", "data"} form.
func (m *CpdlcMessage) UnmarshalJSON(data []byte) error {
	var tagged taggedUnion
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	switch tagged.Type {
	case "Application":
		var app ApplicationMessage
		if err := json.Unmarshal(tagged.Data, &app); err != nil {
			return err
		}
		m.Application = &app
		m.Meta = nil
		return nil
	case "Meta":
		meta, err := unmarshalMeta(tagged.Data)
		if err != nil {
			return err
		}
		m.Meta = meta
		m.Application = nil
		return nil
	default:
		return fmt.Errorf("unknown cpdlc message type: %q", tagged.Type)
	}
}
