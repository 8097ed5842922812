package amqp

import (
	"encoding/json"
	"time"
)

// ChangeMessage announces that an identity's collection changed in some
// instance. It carries no record data; consumers re-read the store and
// re-push snapshots.
type ChangeMessage struct {
	Identity   string    `json:"identity"`
	Collection string    `json:"collection"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(identity, collection string) *ChangeMessage {
	return &ChangeMessage{
		Identity:   identity,
		Collection: collection,
		Timestamp:  time.Now().UTC(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
