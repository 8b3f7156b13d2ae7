package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"ishop/internal/notify"
)

// ReminderAction discriminates the two message kinds on the reminder
// queue.
type ReminderAction string

const (
	ActionSchedule ReminderAction = "schedule"
	ActionCancel   ReminderAction = "cancel"
)

// ReminderMessage carries one schedule or cancel request to the
// reminder worker. Schedule messages are lightweight: the worker fetches
// current item state from the database at fire time rather than trusting
// a stale snapshot.
type ReminderMessage struct {
	Action           ReminderAction  `json:"action"`
	Tag              string          `json:"tag,omitempty"`
	Tags             []string        `json:"tags,omitempty"`
	FireAt           *time.Time      `json:"fire_at,omitempty"`
	FireAfterSeconds int64           `json:"fire_after_seconds,omitempty"`
	Payload          *notify.Payload `json:"payload,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
}

// NewScheduleMessage builds a schedule request for one tag.
func NewScheduleMessage(tag string, fire notify.FireSpec, payload notify.Payload) *ReminderMessage {
	msg := &ReminderMessage{
		Action:    ActionSchedule,
		Tag:       tag,
		Payload:   &payload,
		Timestamp: time.Now(),
	}
	if fire.Relative() {
		msg.FireAfterSeconds = int64(fire.After / time.Second)
	} else {
		at := fire.At
		msg.FireAt = &at
	}
	return msg
}

// NewCancelMessage builds a cancel request for one or more tags.
func NewCancelMessage(tags ...string) *ReminderMessage {
	return &ReminderMessage{
		Action:    ActionCancel,
		Tags:      tags,
		Timestamp: time.Now(),
	}
}

// FireSpec reconstructs the fire spec a schedule message carries.
func (m *ReminderMessage) FireSpec() notify.FireSpec {
	if m.FireAt != nil {
		return notify.FireAt(*m.FireAt)
	}
	return notify.FireAfter(time.Duration(m.FireAfterSeconds) * time.Second)
}

// Validate rejects messages the worker could not act on.
func (m *ReminderMessage) Validate() error {
	switch m.Action {
	case ActionSchedule:
		if m.Tag == "" {
			return errors.New("schedule message missing tag")
		}
		if m.Payload == nil {
			return errors.New("schedule message missing payload")
		}
	case ActionCancel:
		if len(m.Tags) == 0 {
			return errors.New("cancel message missing tags")
		}
	default:
		return errors.New("unknown reminder action")
	}
	return nil
}

// ToJSON converts the message to JSON bytes.
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderMessageFromJSON creates a message from JSON bytes.
func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
