// Package event defines the outbound events a connection can receive.
// Events are immutable values; the transport layer decides their wire shape.
package event

// Event is anything the relay can push to a single connection.
type Event interface {
	Kind() string
}

// Notice is an informational or chat text line.
type Notice struct {
	Text string
}

func (Notice) Kind() string { return "notice" }

// EncryptedMessage carries an opaque ciphertext relayed blind from a peer.
// The server never inspects Message.
type EncryptedMessage struct {
	Message string
	Sender  string
}

func (EncryptedMessage) Kind() string { return "encrypted" }

// PeerKey announces another connection's public key.
type PeerKey struct {
	User      string
	PublicKey string
}

func (PeerKey) Kind() string { return "peer_key" }

// Recipients lists the display names currently eligible to receive
// encrypted messages from the requesting connection.
type Recipients struct {
	Users []string
}

func (Recipients) Kind() string { return "recipients" }
