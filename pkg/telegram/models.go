package telegram

import (
	"encoding/json"
	"strconv"

	"github.com/go-telegram/bot/models"
)

const platformTelegram = "telegram"

// Inbound is the part of a webhook update the command router works with.
type Inbound struct {
	UpdateID int64
	ChatID   int64
	Sender   string // stable sender identity: from.id, chat.id fallback
	Username string // display name for the message mirror
	Text     string
	Raw      json.RawMessage // original update payload, kept for the audit log
}

// newInbound extracts an Inbound from an update. Edited messages are treated
// like new ones. Reports false for updates without a message.
func newInbound(update *models.Update) (*Inbound, bool) {
	if update == nil {
		return nil, false
	}

	msg := update.Message
	if msg == nil {
		msg = update.EditedMessage
	}
	if msg == nil {
		return nil, false
	}

	in := &Inbound{
		UpdateID: update.ID,
		ChatID:   msg.Chat.ID,
		Text:     msg.Text,
	}

	if raw, err := json.Marshal(update); err == nil {
		in.Raw = raw
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	switch from := msg.From; {
	case from != nil && from.ID != 0:
		in.Sender = strconv.FormatInt(from.ID, 10)
	case msg.Chat.ID != 0:
		in.Sender = chatID
	default:
		in.Sender = "unknown"
	}

	if from := msg.From; from != nil && from.Username != "" {
		in.Username = from.Username
	} else if from != nil && from.FirstName != "" {
		in.Username = from.FirstName
	} else {
		in.Username = chatID
	}

	return in, true
}
