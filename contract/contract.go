//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"github.com/RuuizOr/CiberseguridadEquipo2/domain"
	"github.com/RuuizOr/CiberseguridadEquipo2/domain/event"
)

// EventSink delivers one event to one connection. Implementations must not
// block: a sink that cannot accept the event returns an error, which the
// coordinator treats as an implicit disconnect.
type EventSink interface {
	Consume(e event.Event) error
}

// GroupStore is the durable record of groups ever created. All calls are
// best-effort: a failing store must never abort an in-memory operation.
type GroupStore interface {
	// ReserveKey reports whether key is free among recorded groups.
	ReserveKey(key string) bool
	RecordGroup(key, name string) error
	RecordMember(key, displayName string) error
}

// IRelayService is the boundary the transport layer drives. One method per
// inbound connection event.
type IRelayService interface {
	Connect(id domain.ConnID, sink EventSink)
	RegisterIdentity(id domain.ConnID, displayName, publicKey string)
	ChooseGroup(id domain.ConnID, instruction string)
	HandleText(id domain.ConnID, text string)
	Recipients(id domain.ConnID) []string
	RelayEncrypted(id domain.ConnID, payload map[string]string)
	Disconnect(id domain.ConnID)
}
