package sdk

import (
	"github.com/openlink/openlink/pkg/models"
)

// Pure CPDLC helpers shared by client UIs. They are deterministic
// functions of the message elements and the static catalog, with no
// connection or session state.

// IsLogicalAckElementID reports whether an element ID is a logical
// acknowledgement (DM100 downlink or UM227 uplink).
func IsLogicalAckElementID(id string) bool {
	return id == "DM100" || id == "UM227"
}

// MessageContainsLogicalAck reports whether any element is a logical ack.
func MessageContainsLogicalAck(elements []models.MessageElement) bool {
	for _, e := range elements {
		if IsLogicalAckElementID(e.ID) {
			return true
		}
	}
	return false
}

// ShouldAutoSendLogicalAck decides whether a client should emit an
// automatic logical acknowledgement for a received message: only for
// non-zero MINs, and never in reply to a logical ack itself.
func ShouldAutoSendLogicalAck(elements []models.MessageElement, min uint8) bool {
	return min > 0 && !MessageContainsLogicalAck(elements)
}

// ClosesDialogueResponseElements reports whether the elements form a
// closing response (single WILCO, UNABLE, ROGER, AFFIRM, or NEGATIVE).
func ClosesDialogueResponseElements(elements []models.MessageElement) bool {
	return models.ClosesDialogueResponseElements(elements)
}

// ResponseAttrResolver maps an element ID to its response attribute.
// A false return means the ID is unknown to the resolver.
type ResponseAttrResolver func(id string) (models.ResponseAttribute, bool)

// ChooseShortResponseIntentsWithResolver returns the short replies to
// offer for a received message, using the given resolver for response
// attributes. Messages whose elements cannot all be resolved fall back
// to the most demanding class (W/U) so the user is never left without a
// reply path.
func ChooseShortResponseIntentsWithResolver(elements []models.MessageElement, resolve ResponseAttrResolver) []models.ResponseIntent {
	var attrs []models.ResponseAttribute
	for _, e := range elements {
		if attr, ok := resolve(e.ID); ok {
			attrs = append(attrs, attr)
		}
	}
	if len(attrs) == 0 {
		return models.IntentsForAttribute(models.RespWU)
	}
	return models.IntentsForAttribute(models.EffectiveResponseAttribute(attrs))
}

// ChooseShortResponseIntents chooses short replies using the static
// message catalog as the resolver.
func ChooseShortResponseIntents(elements []models.MessageElement) []models.ResponseIntent {
	return ChooseShortResponseIntentsWithResolver(elements, func(id string) (models.ResponseAttribute, bool) {
		def, ok := models.FindDefinition(id)
		if !ok {
			return models.RespN, false
		}
		return def.ResponseAttr, true
	})
}
