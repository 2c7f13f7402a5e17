// Package domain contains core concepts of the relay.
// This file defines Group membership and key generation rules.
package domain

import (
	"math/rand/v2"
	"sort"
)

const (
	// GroupKeyAlphabet is the character set group keys are drawn from.
	GroupKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// GroupKeyLength is the fixed length of every generated group key.
	GroupKeyLength = 6
)

// Group is an ephemeral named room. A Group must never exist with an
// empty member set; the directory deletes it when the last member leaves.
type Group struct {
	Key     string
	Name    string
	members map[ConnID]struct{}
}

func NewGroup(key, name string, creator ConnID) *Group {
	return &Group{
		Key:     key,
		Name:    name,
		members: map[ConnID]struct{}{creator: {}},
	}
}

func (g *Group) Add(id ConnID) {
	g.members[id] = struct{}{}
}

func (g *Group) Remove(id ConnID) {
	delete(g.members, id)
}

func (g *Group) Has(id ConnID) bool {
	_, ok := g.members[id]
	return ok
}

func (g *Group) Size() int {
	return len(g.members)
}

func (g *Group) Empty() bool {
	return len(g.members) == 0
}

// MemberIDs returns a sorted snapshot of the member set.
func (g *Group) MemberIDs() []ConnID {
	ids := make([]ConnID, 0, len(g.members))
	for id := range g.members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NewGroupKey draws a fresh candidate key. Keys are invite codes, not
// secrets; uniqueness against live and recorded groups is the caller's job.
func NewGroupKey() string {
	b := make([]byte, GroupKeyLength)
	for i := range b {
		b[i] = GroupKeyAlphabet[rand.IntN(len(GroupKeyAlphabet))]
	}
	return string(b)
}
