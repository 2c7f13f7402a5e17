package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGroupKey_Shape(t *testing.T) {
	req := require.New(t)

	for range 100 {
		key := NewGroupKey()
		req.Len(key, GroupKeyLength)
		for _, c := range key {
			req.True(strings.ContainsRune(GroupKeyAlphabet, c), "unexpected character %q in key %s", c, key)
		}
	}
}

func TestGroup_Membership(t *testing.T) {
	req := require.New(t)

	// Given a fresh group, the creator is already a member
	g := NewGroup("ABC123", "Study", ConnID("alice"))
	req.True(g.Has(ConnID("alice")))
	req.Equal(1, g.Size())

	// When a second member joins and the creator leaves
	g.Add(ConnID("bob"))
	g.Remove(ConnID("alice"))

	// Then membership reflects both changes
	req.False(g.Has(ConnID("alice")))
	req.Equal([]ConnID{"bob"}, g.MemberIDs())
	req.False(g.Empty())

	g.Remove(ConnID("bob"))
	req.True(g.Empty())
}

func TestGroup_MemberIDs_Sorted(t *testing.T) {
	req := require.New(t)

	g := NewGroup("ABC123", "Study", ConnID("charlie"))
	g.Add(ConnID("alice"))
	g.Add(ConnID("bob"))

	req.Equal([]ConnID{"alice", "bob", "charlie"}, g.MemberIDs())
}
