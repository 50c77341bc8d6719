package models

// ResponseIntent is one short operational reply a recipient can choose
// when answering a CPDLC message, mapped to the matching uplink or
// downlink element.
type ResponseIntent int

const (
	IntentWilco ResponseIntent = iota
	IntentUnable
	IntentStandby
	IntentRoger
	IntentAffirm
	IntentNegative
)

var intentLabels = map[ResponseIntent]string{
	IntentWilco:    "WILCO",
	IntentUnable:   "UNABLE",
	IntentStandby:  "STANDBY",
	IntentRoger:    "ROGER",
	IntentAffirm:   "AFFIRM",
	IntentNegative: "NEGATIVE",
}

func (i ResponseIntent) String() string {
	if label, ok := intentLabels[i]; ok {
		return label
	}
	return "UNKNOWN"
}

// DownlinkID returns the element ID for this intent when the responder is
// an aircraft.
func (i ResponseIntent) DownlinkID() string {
	switch i {
	case IntentWilco:
		return "DM0"
	case IntentUnable:
		return "DM1"
	case IntentStandby:
		return "DM2"
	case IntentRoger:
		return "DM3"
	case IntentAffirm:
		return "DM4"
	case IntentNegative:
		return "DM5"
	}
	return ""
}

// UplinkID returns the element ID for this intent when the responder is a
// ground station. WILCO has no uplink form.
func (i ResponseIntent) UplinkID() string {
	switch i {
	case IntentUnable:
		return "UM0"
	case IntentStandby:
		return "UM1"
	case IntentRoger:
		return "UM3"
	case IntentAffirm:
		return "UM4"
	case IntentNegative:
		return "UM5"
	}
	return ""
}

// ElementID returns the element ID for this intent in the given direction,
// or "" when the intent has no form in that direction.
func (i ResponseIntent) ElementID(direction MessageDirection) string {
	if direction == Uplink {
		return i.UplinkID()
	}
	return i.DownlinkID()
}

// IntentsForAttribute maps a response attribute to the short replies it
// invites, in display order. N and NE expect no reply.
func IntentsForAttribute(attr ResponseAttribute) []ResponseIntent {
	switch attr.normalized() {
	case RespWU:
		return []ResponseIntent{IntentWilco, IntentStandby, IntentUnable}
	case RespAN:
		return []ResponseIntent{IntentAffirm, IntentNegative, IntentStandby}
	case RespR:
		return []ResponseIntent{IntentRoger, IntentStandby}
	case RespY:
		return []ResponseIntent{IntentStandby}
	default:
		return nil
	}
}
