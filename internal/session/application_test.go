package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlink/openlink/pkg/models"
)

func connectedSession() *Session {
	s := New(aircraft)
	s.ApplyLogonRequest(station1)
	s.ApplyLogonAccepted(station1)
	s.ApplyConnectionRequest(station1)
	s.ApplyConnectionAccepted(station1)
	return s
}

func uplink(elements ...models.MessageElement) *models.ApplicationMessage {
	return &models.ApplicationMessage{Elements: elements}
}

func reply(mrn uint8, elements ...models.MessageElement) *models.ApplicationMessage {
	return &models.ApplicationMessage{MRN: &mrn, Elements: elements}
}

func TestStampAssignsSequentialMINsPerSide(t *testing.T) {
	s := connectedSession()

	for i := 0; i < 3; i++ {
		msg := uplink(models.NewMessageElement("UM20", models.LevelArg(350)))
		s.StampApplication(msg, SideStation, "STATION1")
		assert.Equal(t, uint8(i), msg.MIN)
	}

	// The aircraft side draws from its own counter.
	msg := uplink(models.NewMessageElement("DM6", models.LevelArg(390)))
	s.StampApplication(msg, SideAircraft, "TEST123")
	assert.Equal(t, uint8(0), msg.MIN)
}

func TestStampOverwritesClientMIN(t *testing.T) {
	s := connectedSession()

	msg := uplink(models.NewMessageElement("UM20", models.LevelArg(350)))
	msg.MIN = 42
	s.StampApplication(msg, SideStation, "STATION1")
	assert.Equal(t, uint8(0), msg.MIN)
}

func TestMINWrapsModulo64(t *testing.T) {
	s := connectedSession()

	var first uint8
	for i := 0; i < 65; i++ {
		msg := uplink(models.NewMessageElement("DM67", models.FreeTextArg("x")))
		s.StampApplication(msg, SideAircraft, "TEST123")
		if i == 0 {
			first = msg.MIN
		}
		if i == 64 {
			assert.Equal(t, first, msg.MIN)
		}
		assert.Less(t, msg.MIN, uint8(64))
	}
}

func TestFreeTextUppercased(t *testing.T) {
	s := connectedSession()

	msg := uplink(models.NewMessageElement("DM67", models.FreeTextArg("due to weather")))
	s.StampApplication(msg, SideAircraft, "TEST123")
	assert.Equal(t, "DUE TO WEATHER", msg.Elements[0].Args[0].Text)

	// Non-free-text arguments are untouched.
	msg = uplink(models.NewMessageElement("UM117",
		models.TextArg(models.ArgUnitName, "Paris Control"),
		models.TextArg(models.ArgFrequency, "128.100")))
	s.StampApplication(msg, SideStation, "STATION1")
	assert.Equal(t, "Paris Control", msg.Elements[0].Args[0].Text)
}

func TestDialogueOpenAndClose(t *testing.T) {
	s := connectedSession()

	request := uplink(models.NewMessageElement("UM20", models.LevelArg(350)))
	warnings := s.StampApplication(request, SideStation, "STATION1")
	assert.Empty(t, warnings)
	require.Len(t, s.Dialogues, 1)
	assert.Equal(t, models.DialogueOpen, s.Dialogues[0].State)
	assert.Equal(t, models.RespWU, s.Dialogues[0].ResponseAttr)
	assert.Equal(t, request.MIN, s.Dialogues[0].InitiatorMIN)

	wilco := reply(request.MIN, models.NewMessageElement("DM0"))
	warnings = s.StampApplication(wilco, SideAircraft, "TEST123")
	assert.Empty(t, warnings)
	assert.Equal(t, models.DialogueClosed, s.Dialogues[0].State)
}

func TestStandbyLeavesDialogueOpen(t *testing.T) {
	s := connectedSession()

	request := uplink(models.NewMessageElement("UM20", models.LevelArg(350)))
	s.StampApplication(request, SideStation, "STATION1")

	standby := reply(request.MIN, models.NewMessageElement("DM2"))
	warnings := s.StampApplication(standby, SideAircraft, "TEST123")
	assert.Empty(t, warnings)
	assert.Equal(t, models.DialogueOpen, s.Dialogues[0].State)

	wilco := reply(request.MIN, models.NewMessageElement("DM0"))
	s.StampApplication(wilco, SideAircraft, "TEST123")
	assert.Equal(t, models.DialogueClosed, s.Dialogues[0].State)
}

func TestDanglingMRNWarnsButContinues(t *testing.T) {
	s := connectedSession()

	orphan := reply(9, models.NewMessageElement("DM0"))
	warnings := s.StampApplication(orphan, SideAircraft, "TEST123")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "mrn 9")
	assert.Equal(t, uint8(0), orphan.MIN)
}

func TestNoResponseMessagesOpenNoDialogue(t *testing.T) {
	s := connectedSession()

	// DM28 LEAVING [level] has response attribute N.
	msg := uplink(models.NewMessageElement("DM28", models.LevelArg(350)))
	s.StampApplication(msg, SideAircraft, "TEST123")
	assert.Empty(t, s.Dialogues)
}

func TestClosedDialogueGarbageCollection(t *testing.T) {
	s := connectedSession()

	for i := 0; i < 20; i++ {
		request := uplink(models.NewMessageElement("UM20", models.LevelArg(350)))
		s.StampApplication(request, SideStation, "STATION1")
		response := reply(request.MIN, models.NewMessageElement("DM0"))
		s.StampApplication(response, SideAircraft, "TEST123")
	}

	closed := 0
	for _, d := range s.Dialogues {
		require.Equal(t, models.DialogueClosed, d.State, fmt.Sprintf("dialogue %d", d.InitiatorMIN))
		closed++
	}
	assert.Equal(t, maxClosedDialogues, closed)
}

func TestGCNeverCollectsOpenDialogues(t *testing.T) {
	s := connectedSession()

	// One dialogue stays open throughout.
	open := uplink(models.NewMessageElement("UM148", models.LevelArg(390)))
	s.StampApplication(open, SideStation, "STATION1")
	openMIN := open.MIN

	for i := 0; i < 20; i++ {
		request := uplink(models.NewMessageElement("UM20", models.LevelArg(350)))
		s.StampApplication(request, SideStation, "STATION1")
		response := reply(request.MIN, models.NewMessageElement("DM0"))
		s.StampApplication(response, SideAircraft, "TEST123")
	}

	require.NotNil(t, s.OpenDialogue(openMIN, "TEST123"))
}
