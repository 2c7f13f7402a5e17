package runtime

import (
	"github.com/samber/lo"

	"github.com/RuuizOr/CiberseguridadEquipo2/domain"
	"github.com/RuuizOr/CiberseguridadEquipo2/domain/event"
)

// KeyExchange distributes public keys between peers and resolves recipients
// for the blind encrypted relay. It never reads or validates ciphertext.
type KeyExchange struct {
	registry  *Registry
	directory *Directory
}

func NewKeyExchange(registry *Registry, directory *Directory) *KeyExchange {
	return &KeyExchange{registry: registry, directory: directory}
}

// AnnounceRegistration performs the all-pairs exchange run on identity
// registration: the newcomer's key goes to every other connection, and
// every existing connection's key goes to the newcomer. Quadratic in
// connection count, which is fine at registration frequency.
func (k *KeyExchange) AnnounceRegistration(id domain.ConnID) []Delivery {
	conn, ok := k.registry.Lookup(id)
	if !ok {
		return nil
	}
	newcomer := event.PeerKey{User: conn.Name, PublicKey: conn.PublicKey}

	var deliveries []Delivery
	for snap := range k.registry.All() {
		if snap.ID == id {
			continue
		}
		deliveries = append(deliveries,
			Delivery{To: snap.ID, Event: newcomer},
			Delivery{To: id, Event: event.PeerKey{User: snap.Name, PublicKey: snap.PublicKey}},
		)
	}
	return deliveries
}

// AnnounceJoin repeats the bidirectional exchange between a joining
// connection and the existing members of its new group.
func (k *KeyExchange) AnnounceJoin(id domain.ConnID, groupKey string) []Delivery {
	conn, ok := k.registry.Lookup(id)
	if !ok {
		return nil
	}
	members, err := k.directory.MembersOf(groupKey)
	if err != nil {
		return nil
	}
	joiner := event.PeerKey{User: conn.Name, PublicKey: conn.PublicKey}

	var deliveries []Delivery
	for _, member := range members {
		if member == id {
			continue
		}
		peer, ok := k.registry.Lookup(member)
		if !ok {
			continue
		}
		deliveries = append(deliveries,
			Delivery{To: member, Event: joiner},
			Delivery{To: id, Event: event.PeerKey{User: peer.Name, PublicKey: peer.PublicKey}},
		)
	}
	return deliveries
}

// Recipients lists the display names eligible to receive encrypted messages
// from this connection: fellow group members when grouped, every globally
// scoped connection otherwise, self excluded in both cases.
func (k *KeyExchange) Recipients(id domain.ConnID) []string {
	conn, ok := k.registry.Lookup(id)
	if !ok {
		return nil
	}

	if conn.Grouped() {
		members, err := k.directory.MembersOf(conn.GroupKey)
		if err != nil {
			return nil
		}
		peers := lo.Without(members, id)
		return lo.Map(peers, func(member domain.ConnID, _ int) string {
			return k.registry.LookupName(member)
		})
	}

	var names []string
	for snap := range k.registry.All() {
		if snap.ID != id && snap.GroupKey == "" {
			names = append(names, snap.Name)
		}
	}
	return names
}

// RelayEncrypted forwards each ciphertext to the single connection its
// recipient name resolves to. Unresolved names are skipped silently:
// names go stale between the client's key-list fetch and its send, and the
// relay is fire-and-forget by contract.
func (k *KeyExchange) RelayEncrypted(sender domain.ConnID, payload map[string]string) []Delivery {
	senderName := k.registry.LookupName(sender)

	var deliveries []Delivery
	for recipientName, ciphertext := range payload {
		peer, ok := k.registry.ResolveName(recipientName)
		if !ok {
			continue
		}
		deliveries = append(deliveries, Delivery{
			To:    peer.ID,
			Event: event.EncryptedMessage{Message: ciphertext, Sender: senderName},
		})
	}
	return deliveries
}
