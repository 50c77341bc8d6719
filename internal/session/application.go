package session

import (
	"fmt"
	"strings"

	"github.com/openlink/openlink/pkg/models"
)

// Side identifies which party of a session originated a message. Each side
// draws MINs from its own counter.
type Side int

const (
	SideAircraft Side = iota
	SideStation
)

func (s Side) String() string {
	if s == SideAircraft {
		return "aircraft"
	}
	return "station"
}

// StampApplication processes an application message sent by the given side:
// it overwrites the MIN with the session counter (then advances it modulo
// 64), uppercases free-text arguments, closes the dialogue referenced by
// the MRN, and opens a new dialogue when the message demands a response.
//
// Returned warnings describe protocol oddities (dangling MRN) that do not
// stop the message from being forwarded.
func (s *Session) StampApplication(msg *models.ApplicationMessage, side Side, sender models.Callsign) []string {
	var warnings []string

	counter := &s.MinCounterAircraft
	if side == SideStation {
		counter = &s.MinCounterStation
	}
	msg.MIN = *counter
	*counter = (*counter + 1) % 64

	normalizeFreeText(msg.Elements)

	if msg.MRN != nil {
		if warning := s.closeDialogue(*msg.MRN, sender, msg.Elements); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	if attr := msg.EffectiveResponseAttr(); attr != models.RespN && attr != models.RespNE {
		s.Dialogues = append(s.Dialogues, models.Dialogue{
			InitiatorMIN: msg.MIN,
			Initiator:    sender,
			State:        models.DialogueOpen,
			ResponseAttr: attr,
		})
	}

	s.collectClosedDialogues()
	return warnings
}

// normalizeFreeText uppercases arguments occupying free-text slots, per the
// catalog definition of each element.
func normalizeFreeText(elements []models.MessageElement) {
	for i := range elements {
		def, ok := models.FindDefinition(elements[i].ID)
		if !ok {
			continue
		}
		for j := range elements[i].Args {
			if j < len(def.Args) && def.Args[j] == models.ArgFreeText {
				elements[i].Args[j].Text = strings.ToUpper(elements[i].Args[j].Text)
			}
		}
	}
}

// closeDialogue closes the open dialogue the MRN references. STANDBY
// elements leave the dialogue open so the definitive response can still
// close it later.
func (s *Session) closeDialogue(mrn uint8, responder models.Callsign, elements []models.MessageElement) string {
	if containsStandby(elements) {
		return ""
	}
	for i := range s.Dialogues {
		d := &s.Dialogues[i]
		if d.State == models.DialogueOpen && d.InitiatorMIN == mrn && d.Initiator != responder {
			d.State = models.DialogueClosed
			return ""
		}
	}
	return fmt.Sprintf("mrn %d does not reference an open dialogue", mrn)
}

func containsStandby(elements []models.MessageElement) bool {
	for _, e := range elements {
		if models.IsStandbyElementID(e.ID) {
			return true
		}
	}
	return false
}

// OpenDialogue returns the open dialogue with the given initiator MIN not
// initiated by the responder, if any.
func (s *Session) OpenDialogue(min uint8, responder models.Callsign) *models.Dialogue {
	for i := range s.Dialogues {
		d := &s.Dialogues[i]
		if d.State == models.DialogueOpen && d.InitiatorMIN == min && d.Initiator != responder {
			return d
		}
	}
	return nil
}

// collectClosedDialogues drops the oldest closed dialogues beyond the
// retention bound. Open dialogues are never collected.
func (s *Session) collectClosedDialogues() {
	closed := 0
	for _, d := range s.Dialogues {
		if d.State == models.DialogueClosed {
			closed++
		}
	}
	if closed <= maxClosedDialogues {
		return
	}
	drop := closed - maxClosedDialogues
	kept := s.Dialogues[:0]
	for _, d := range s.Dialogues {
		if drop > 0 && d.State == models.DialogueClosed {
			drop--
			continue
		}
		kept = append(kept, d)
	}
	s.Dialogues = kept
}
