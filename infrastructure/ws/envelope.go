// Package ws is the WebSocket boundary of the relay. It speaks JSON
// envelopes carrying exactly the boundary events of the coordination core
// and maps socket lifecycle onto connect/disconnect.
package ws

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

// Inbound event types.
const (
	TypeRegister      = "register"
	TypeChooseGroup   = "choose_group"
	TypeGetRecipients = "get_recipients"
	TypeEncrypted     = "encrypted"
	TypeText          = "text"
)

// Outbound event types.
const (
	TypeNotice     = "notice"
	TypePeerKey    = "peer_key"
	TypeRecipients = "recipients"
)

// Envelope frames every message in both directions.
type Envelope struct {
	Type string          `json:"type" validate:"required"`
	Data json.RawMessage `json:"data,omitempty"`
}

// RegisterRequest binds a self-asserted identity to the connection.
// An empty name is legal; the core coerces it to the placeholder.
type RegisterRequest struct {
	Name      string `json:"name" validate:"max=64"`
	PublicKey string `json:"public_key" validate:"max=8192"`
}

// ChooseGroupRequest is the connect-time group instruction:
// "none", "create-group|<name>" or "join-group|<key>".
type ChooseGroupRequest struct {
	Instruction string `json:"instruction" validate:"required,max=256"`
}

// EncryptedRequest fans out opaque ciphertexts by recipient display name.
// Ciphertext size is unbounded by contract with the client layer.
type EncryptedRequest struct {
	Payload map[string]string `json:"payload" validate:"required,min=1"`
}

// TextRequest is a raw chat line, possibly a command.
type TextRequest struct {
	Content string `json:"content" validate:"required"`
}

// NoticePayload is the body of an outbound notice, plain or relayed
// ciphertext.
type NoticePayload struct {
	Text      string `json:"text,omitempty"`
	Encrypted bool   `json:"encrypted,omitempty"`
	Message   string `json:"message,omitempty"`
	Sender    string `json:"sender,omitempty"`
}

// PeerKeyPayload announces one peer's public key.
type PeerKeyPayload struct {
	User      string `json:"user"`
	PublicKey string `json:"public_key"`
}

// RecipientsPayload answers a get_recipients request.
type RecipientsPayload struct {
	Users []string `json:"users"`
}

var validate = validator.New()

// decode unmarshals an envelope body into dst and validates it.
func decode[T any](data json.RawMessage, dst *T) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}
