package runtime

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/RuuizOr/CiberseguridadEquipo2/contract"
	"github.com/RuuizOr/CiberseguridadEquipo2/domain"
	"github.com/RuuizOr/CiberseguridadEquipo2/errors"
)

// GroupInfo is one row of a directory listing.
type GroupInfo struct {
	Key         string
	Name        string
	MemberCount int
}

// LeaveResult carries what downstream notices need after a member leaves.
type LeaveResult struct {
	GroupName string
	Remaining []domain.ConnID
}

// Directory owns group lifecycle and membership. Like the Registry it is
// unsynchronized; the Coordinator is its single entry point.
//
// The store is optional. Every store call is fire-and-forget: the in-memory
// group stays authoritative for the process lifetime even when persisting
// fails.
type Directory struct {
	registry *Registry
	groups   map[string]*domain.Group
	store    contract.GroupStore
	log      *slog.Logger

	// newKey is swapped out by tests to force collisions.
	newKey func() string
}

func NewDirectory(registry *Registry, store contract.GroupStore, log *slog.Logger) *Directory {
	return &Directory{
		registry: registry,
		groups:   make(map[string]*domain.Group),
		store:    store,
		log:      log,
		newKey:   domain.NewGroupKey,
	}
}

// Create generates a unique key, creates the group with the creator as sole
// member, and moves the creator's scope into it. The requested name is
// trimmed; empty falls back to the default placeholder.
func (d *Directory) Create(requestedName string, creator domain.ConnID) (key, name string) {
	name = strings.TrimSpace(requestedName)
	if name == "" {
		name = domain.DefaultGroupName
	}

	key = d.newKey()
	for d.taken(key) {
		key = d.newKey()
	}

	d.groups[key] = domain.NewGroup(key, name, creator)
	if conn, ok := d.registry.Lookup(creator); ok {
		conn.GroupKey = key
	}

	if d.store != nil {
		if err := d.store.RecordGroup(key, name); err != nil {
			d.log.Warn("Persisting group record failed, in-memory group stays active",
				"key", key, "error", err)
		}
		if err := d.store.RecordMember(key, d.registry.LookupName(creator)); err != nil {
			d.log.Warn("Persisting member record failed", "key", key, "error", err)
		}
	}
	return key, name
}

// taken reports whether key already names an active group or, when a store
// is configured, a historical one.
func (d *Directory) taken(key string) bool {
	if _, active := d.groups[key]; active {
		return true
	}
	return d.store != nil && !d.store.ReserveKey(key)
}

// Join adds the connection to the keyed group and updates its scope.
// The caller's scope is left untouched on failure; resetting it is a
// connect-time concern, not the directory's.
func (d *Directory) Join(key string, id domain.ConnID) (string, error) {
	group, ok := d.groups[key]
	if !ok {
		return "", errors.ErrUnknownGroupKey
	}
	group.Add(id)
	if conn, ok := d.registry.Lookup(id); ok {
		conn.GroupKey = key
	}
	if d.store != nil {
		if err := d.store.RecordMember(key, d.registry.LookupName(id)); err != nil {
			d.log.Warn("Persisting member record failed", "key", key, "error", err)
		}
	}
	return group.Name, nil
}

// Leave removes the connection from its current group, resets its scope to
// global, and deletes the group if the member set emptied.
func (d *Directory) Leave(id domain.ConnID) (LeaveResult, error) {
	conn, ok := d.registry.Lookup(id)
	if !ok || !conn.Grouped() {
		return LeaveResult{}, errors.ErrNotInGroup
	}
	group, ok := d.groups[conn.GroupKey]
	if !ok || !group.Has(id) {
		conn.GroupKey = ""
		return LeaveResult{}, errors.ErrNotInGroup
	}

	group.Remove(id)
	conn.GroupKey = ""
	if group.Empty() {
		delete(d.groups, group.Key)
	}
	return LeaveResult{GroupName: group.Name, Remaining: group.MemberIDs()}, nil
}

// Evict performs the disconnect variant of Leave: same cleanup, but no
// error and no confirmation owed to the now-gone connection.
func (d *Directory) Evict(id domain.ConnID) (LeaveResult, bool) {
	res, err := d.Leave(id)
	if err != nil {
		return LeaveResult{}, false
	}
	return res, true
}

// MembersOf returns a snapshot of the keyed group's member set.
func (d *Directory) MembersOf(key string) ([]domain.ConnID, error) {
	group, ok := d.groups[key]
	if !ok {
		return nil, errors.ErrUnknownGroupKey
	}
	return group.MemberIDs(), nil
}

// Lookup returns the live group for key, if any.
func (d *Directory) Lookup(key string) (*domain.Group, bool) {
	group, ok := d.groups[key]
	return group, ok
}

// ListActive snapshots every active group, ordered by key so one response
// is internally consistent.
func (d *Directory) ListActive() []GroupInfo {
	infos := lo.MapToSlice(d.groups, func(key string, g *domain.Group) GroupInfo {
		return GroupInfo{Key: key, Name: g.Name, MemberCount: g.Size()}
	})
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}
