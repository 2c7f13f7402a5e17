// Package domain contains core concepts of the relay.
// This file defines the per-session Connection identity.
// No runtime, network, or UI logic should be added here.
package domain

// ConnID identifies one active network session. A new one is minted on
// every connection upgrade and never reused.
type ConnID string

const (
	// DefaultDisplayName replaces a missing or empty display name.
	DefaultDisplayName = "Anonymous"

	// DefaultGroupName replaces a missing or empty requested group name.
	DefaultGroupName = "Group"
)

// Connection binds a declared identity to one network session.
// GroupKey is a weak reference into the group directory; empty means the
// connection chats in the global room.
type Connection struct {
	ID        ConnID
	Name      string
	PublicKey string
	GroupKey  string
}

// Grouped reports whether the connection currently belongs to a group.
func (c *Connection) Grouped() bool {
	return c.GroupKey != ""
}
