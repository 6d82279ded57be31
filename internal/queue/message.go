package queue

import "encoding/json"

// CurrentVersion is stamped on every message this build produces.
const CurrentVersion = 1

// Message asks a worker to run a rebuild batch for one owner. DocumentID
// names the upload that triggered it; the batch still covers every pending
// document the owner has.
type Message struct {
	OwnerID    string `json:"ownerId"`
	DocumentID string `json:"documentId,omitempty"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
