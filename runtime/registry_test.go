package runtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/RuuizOr/CiberseguridadEquipo2/domain"
)

func TestRegistry_Register_Defaults_Empty_Name(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := domain.ConnID(uuid.NewString())

	// When a connection registers with a blank name
	conn := registry.Register(id, "   ", "pk")

	// Then the placeholder name is used and scope is global
	req.Equal(domain.DefaultDisplayName, conn.Name)
	req.False(conn.Grouped())
	req.Equal(domain.DefaultDisplayName, registry.LookupName(id))
}

func TestRegistry_LookupName_Unknown_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Then lookup never fails
	req.Equal(domain.DefaultDisplayName, registry.LookupName(domain.ConnID(uuid.NewString())))
}

func TestRegistry_Register_Overwrites_Key_Record_By_Name(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := domain.ConnID(uuid.NewString())
	second := domain.ConnID(uuid.NewString())

	// Given two connections registered under the same display name
	registry.Register(first, "Alice", "key-one")
	registry.Register(second, "Alice", "key-two")

	// Then the name-keyed record holds the last registration
	req.Equal("key-two", registry.keysByName["Alice"])
	req.Equal(2, registry.Len())
}

func TestRegistry_Unregister_Returns_Name_And_Drops_Key_Record(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := domain.ConnID(uuid.NewString())
	registry.Register(id, "Alice", "pk")

	// When the connection unregisters
	name := registry.Unregister(id)

	// Then the identity and its key record are gone
	req.Equal("Alice", name)
	req.Zero(registry.Len())
	req.Empty(registry.keysByName)

	// And unregistering an unknown connection yields the placeholder
	req.Equal(domain.DefaultDisplayName, registry.Unregister(id))
}

func TestRegistry_All_Is_A_Restartable_Snapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	a := domain.ConnID(uuid.NewString())
	b := domain.ConnID(uuid.NewString())
	registry.Register(a, "Alice", "pka")
	registry.Register(b, "Bob", "pkb")

	seq := registry.All()

	// When the registry mutates after the snapshot was taken
	registry.Unregister(b)

	// Then the sequence still yields the call-time state, on every restart
	for range 2 {
		var names []string
		for snap := range seq {
			names = append(names, snap.Name)
		}
		req.ElementsMatch([]string{"Alice", "Bob"}, names)
	}
}

func TestRegistry_ResolveName_Finds_A_Registered_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := domain.ConnID(uuid.NewString())
	registry.Register(id, "Alice", "pk")

	conn, ok := registry.ResolveName("Alice")
	req.True(ok)
	req.Equal(id, conn.ID)

	_, ok = registry.ResolveName("Nobody")
	req.False(ok)
}
