package runtime

import (
	"fmt"
	"strings"

	"github.com/RuuizOr/CiberseguridadEquipo2/domain"
	"github.com/RuuizOr/CiberseguridadEquipo2/domain/event"
	stderrors "errors"

	"github.com/RuuizOr/CiberseguridadEquipo2/errors"
)

// ScopeGlobal is the scope of every connection not currently in a group.
const ScopeGlobal = "global"

// Command tokens understood inside text messages and connect-time group
// instructions.
const (
	commandSentinel  = "/"
	tokenNone        = "none"
	tokenCreateGroup = "create-group"
	tokenJoinGroup   = "join-group"
	tokenLeaveGroup  = "leave-group"
	tokenListGroups  = "list-groups"
)

// Delivery is one outbound event addressed to one connection.
type Delivery struct {
	To    domain.ConnID
	Event event.Event
}

// Router decides the recipient set for every inbound text message and
// connect-time group instruction. It mutates directory state through the
// Directory and emits Deliveries for the Coordinator to dispatch.
type Router struct {
	registry  *Registry
	directory *Directory

	// echoGroup controls whether a group sender receives its own message.
	// Default true for UI consistency; the global room always echoes.
	echoGroup bool
}

func NewRouter(registry *Registry, directory *Directory, echoGroup bool) *Router {
	return &Router{registry: registry, directory: directory, echoGroup: echoGroup}
}

// ResolveScope returns ScopeGlobal or the connection's current group key.
func (r *Router) ResolveScope(id domain.ConnID) string {
	if conn, ok := r.registry.Lookup(id); ok && conn.Grouped() {
		return conn.GroupKey
	}
	return ScopeGlobal
}

// ChooseGroup applies a connect-time group instruction: "none",
// "create-group|<name>" or "join-group|<key>". Anything unrecognized counts
// as "none". Unlike the hot join command, a failed join here resets the
// caller's scope to global.
func (r *Router) ChooseGroup(id domain.ConnID, instruction string) []Delivery {
	instr := strings.TrimSpace(instruction)
	token, arg, _ := strings.Cut(instr, "|")

	switch token {
	case tokenCreateGroup:
		return r.createGroup(id, arg)
	case tokenJoinGroup:
		deliveries, err := r.joinGroup(id, arg)
		if err != nil {
			if conn, ok := r.registry.Lookup(id); ok {
				conn.GroupKey = ""
			}
			return []Delivery{{To: id, Event: event.Notice{
				Text: fmt.Sprintf("Invalid key: %s. You are in the global chat.", strings.TrimSpace(arg)),
			}}}
		}
		return deliveries
	default:
		// tokenNone and anything else: stay global.
		if conn, ok := r.registry.Lookup(id); ok {
			conn.GroupKey = ""
		}
		return nil
	}
}

// HandleText routes one raw text line: a command when it starts with the
// sentinel, otherwise plain chat delivered per the sender's scope.
func (r *Router) HandleText(id domain.ConnID, text string) []Delivery {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, commandSentinel) {
		return r.dispatchCommand(id, strings.TrimPrefix(trimmed, commandSentinel))
	}
	return r.routeChat(id, trimmed)
}

func (r *Router) dispatchCommand(id domain.ConnID, cmd string) []Delivery {
	token, arg, _ := strings.Cut(cmd, "|")

	switch token {
	case tokenCreateGroup:
		return r.createGroup(id, arg)
	case tokenJoinGroup:
		deliveries, err := r.joinGroup(id, arg)
		if err != nil {
			return []Delivery{{To: id, Event: event.Notice{
				Text: fmt.Sprintf("Invalid key: %s", strings.TrimSpace(arg)),
			}}}
		}
		return deliveries
	case tokenLeaveGroup:
		return r.leaveGroup(id)
	case tokenListGroups:
		return []Delivery{{To: id, Event: event.Notice{Text: r.listGroups()}}}
	default:
		// Never broadcast: one notice to the sender only.
		return []Delivery{{To: id, Event: event.Notice{Text: "Command not recognized."}}}
	}
}

func (r *Router) createGroup(id domain.ConnID, requestedName string) []Delivery {
	key, name := r.directory.Create(requestedName, id)
	sender := r.registry.LookupName(id)

	deliveries := []Delivery{{To: id, Event: event.Notice{
		Text: fmt.Sprintf("Group created: %s | Key: %s", name, key),
	}}}
	announcement := event.Notice{
		Text: fmt.Sprintf("%s created the group '%s'. Key: %s", sender, name, key),
	}
	for snap := range r.registry.All() {
		if snap.ID != id {
			deliveries = append(deliveries, Delivery{To: snap.ID, Event: announcement})
		}
	}
	return deliveries
}

func (r *Router) joinGroup(id domain.ConnID, rawKey string) ([]Delivery, error) {
	key := strings.ToUpper(strings.TrimSpace(rawKey))
	name, err := r.directory.Join(key, id)
	if err != nil {
		return nil, err
	}
	sender := r.registry.LookupName(id)

	deliveries := []Delivery{{To: id, Event: event.Notice{
		Text: fmt.Sprintf("Joined group: %s | Key: %s", name, key),
	}}}
	members, _ := r.directory.MembersOf(key)
	joined := event.Notice{Text: fmt.Sprintf("%s joined the group '%s'", sender, name)}
	for _, member := range members {
		if member != id {
			deliveries = append(deliveries, Delivery{To: member, Event: joined})
		}
	}
	return deliveries, nil
}

func (r *Router) leaveGroup(id domain.ConnID) []Delivery {
	res, err := r.directory.Leave(id)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotInGroup) {
			return []Delivery{{To: id, Event: event.Notice{Text: "You are not in a group."}}}
		}
		return []Delivery{{To: id, Event: event.Notice{Text: err.Error()}}}
	}
	sender := r.registry.LookupName(id)

	deliveries := []Delivery{{To: id, Event: event.Notice{
		Text: fmt.Sprintf("You left the group '%s'", res.GroupName),
	}}}
	left := event.Notice{Text: fmt.Sprintf("%s left the group '%s'", sender, res.GroupName)}
	for _, member := range res.Remaining {
		deliveries = append(deliveries, Delivery{To: member, Event: left})
	}
	return deliveries
}

func (r *Router) listGroups() string {
	infos := r.directory.ListActive()
	if len(infos) == 0 {
		return "No active groups."
	}
	var b strings.Builder
	b.WriteString("Active groups:")
	for _, info := range infos {
		fmt.Fprintf(&b, "\n- %s (Key: %s) Members: %d", info.Name, info.Key, info.MemberCount)
	}
	return b.String()
}

func (r *Router) routeChat(id domain.ConnID, text string) []Delivery {
	sender := r.registry.LookupName(id)
	scope := r.ResolveScope(id)

	if scope == ScopeGlobal {
		notice := event.Notice{Text: fmt.Sprintf("%s: %s", sender, text)}
		return r.BroadcastToGlobal(notice)
	}

	notice := event.Notice{Text: fmt.Sprintf("%s (group): %s", sender, text)}
	var exclude domain.ConnID
	if !r.echoGroup {
		exclude = id
	}
	return r.BroadcastToGroup(scope, notice, exclude)
}

// BroadcastToGlobal targets every globally scoped connection, the sender
// included.
func (r *Router) BroadcastToGlobal(ev event.Event) []Delivery {
	var deliveries []Delivery
	for snap := range r.registry.All() {
		if snap.GroupKey == "" {
			deliveries = append(deliveries, Delivery{To: snap.ID, Event: ev})
		}
	}
	return deliveries
}

// BroadcastToGroup targets the current members of the keyed group,
// skipping exclude when set.
func (r *Router) BroadcastToGroup(key string, ev event.Event, exclude domain.ConnID) []Delivery {
	members, err := r.directory.MembersOf(key)
	if err != nil {
		return nil
	}
	var deliveries []Delivery
	for _, member := range members {
		if exclude != "" && member == exclude {
			continue
		}
		deliveries = append(deliveries, Delivery{To: member, Event: ev})
	}
	return deliveries
}
