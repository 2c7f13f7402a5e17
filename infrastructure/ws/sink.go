package ws

import (
	"encoding/json"
	"fmt"

	"github.com/RuuizOr/CiberseguridadEquipo2/domain/event"
	"github.com/RuuizOr/CiberseguridadEquipo2/errors"
)

// ConnSink buffers outbound events for one connection. Consume never
// blocks: a full buffer means the peer is too slow and the coordinator
// treats the failure as an implicit disconnect.
type ConnSink struct {
	out chan []byte
}

func NewConnSink(bufferSize int) *ConnSink {
	return &ConnSink{out: make(chan []byte, bufferSize)}
}

// Out is drained by the connection's write pump.
func (s *ConnSink) Out() <-chan []byte {
	return s.out
}

func (s *ConnSink) Consume(e event.Event) error {
	frame, err := marshalEvent(e)
	if err != nil {
		return err
	}
	select {
	case s.out <- frame:
		return nil
	default:
		return errors.ErrSlowConsumer
	}
}

// marshalEvent maps a core event onto its wire envelope. Relayed
// ciphertext travels as a notice with the encrypted flag set.
func marshalEvent(e event.Event) ([]byte, error) {
	var envType string
	var payload any

	switch ev := e.(type) {
	case event.Notice:
		envType = TypeNotice
		payload = NoticePayload{Text: ev.Text}
	case event.EncryptedMessage:
		envType = TypeNotice
		payload = NoticePayload{Encrypted: true, Message: ev.Message, Sender: ev.Sender}
	case event.PeerKey:
		envType = TypePeerKey
		payload = PeerKeyPayload{User: ev.User, PublicKey: ev.PublicKey}
	case event.Recipients:
		envType = TypeRecipients
		payload = RecipientsPayload{Users: ev.Users}
	default:
		return nil, fmt.Errorf("unmapped event kind %q", e.Kind())
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: envType, Data: data})
}
