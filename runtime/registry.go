// Package runtime hosts the coordination core: session registry, group
// directory, routing and key exchange, serialized behind one Coordinator.
package runtime

import (
	"iter"
	"sort"
	"strings"

	"github.com/RuuizOr/CiberseguridadEquipo2/domain"
)

// ConnectionSnapshot is a point-in-time copy of one connection's identity.
type ConnectionSnapshot struct {
	ID        domain.ConnID
	Name      string
	PublicKey string
	GroupKey  string
}

// Registry tracks which connections exist and their declared identity and
// public key. It is not safe for concurrent use on its own; the Coordinator
// serializes every call.
type Registry struct {
	conns      map[domain.ConnID]*domain.Connection
	keysByName map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		conns:      make(map[domain.ConnID]*domain.Connection),
		keysByName: make(map[string]string),
	}
}

// Register creates or overwrites the connection's identity record and resets
// its scope to the global room. An empty display name is coerced to the
// default placeholder.
//
// Public key records are keyed by display name: a second connection
// registering the same name overwrites the first's record
// (last-registration-wins, kept from the original behavior).
func (r *Registry) Register(id domain.ConnID, displayName, publicKey string) *domain.Connection {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = domain.DefaultDisplayName
	}
	conn := &domain.Connection{ID: id, Name: name, PublicKey: publicKey}
	r.conns[id] = conn
	r.keysByName[name] = publicKey
	return conn
}

// Lookup returns the live connection record, if any.
func (r *Registry) Lookup(id domain.ConnID) (*domain.Connection, bool) {
	conn, ok := r.conns[id]
	return conn, ok
}

// LookupName never fails: unknown connections resolve to the placeholder.
func (r *Registry) LookupName(id domain.ConnID) string {
	if conn, ok := r.conns[id]; ok {
		return conn.Name
	}
	return domain.DefaultDisplayName
}

// ResolveName returns some connection currently registered under name.
// Which one wins among duplicate names is unspecified.
func (r *Registry) ResolveName(name string) (*domain.Connection, bool) {
	for _, conn := range r.conns {
		if conn.Name == name {
			return conn, true
		}
	}
	return nil, false
}

// Unregister removes the identity record and the public key record held
// under its display name. It returns the removed display name (the
// placeholder if the connection never registered) for downstream notices.
func (r *Registry) Unregister(id domain.ConnID) string {
	conn, ok := r.conns[id]
	if !ok {
		return domain.DefaultDisplayName
	}
	delete(r.conns, id)
	delete(r.keysByName, conn.Name)
	return conn.Name
}

// All returns a lazy, restartable sequence over a snapshot of every
// connection taken at call time. No ordering is guaranteed beyond being
// stable within one snapshot.
func (r *Registry) All() iter.Seq[ConnectionSnapshot] {
	snapshots := make([]ConnectionSnapshot, 0, len(r.conns))
	for _, conn := range r.conns {
		snapshots = append(snapshots, ConnectionSnapshot{
			ID:        conn.ID,
			Name:      conn.Name,
			PublicKey: conn.PublicKey,
			GroupKey:  conn.GroupKey,
		})
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].ID < snapshots[j].ID })
	return func(yield func(ConnectionSnapshot) bool) {
		for _, s := range snapshots {
			if !yield(s) {
				return
			}
		}
	}
}

func (r *Registry) Len() int {
	return len(r.conns)
}
