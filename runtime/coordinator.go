package runtime

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/RuuizOr/CiberseguridadEquipo2/contract"
	"github.com/RuuizOr/CiberseguridadEquipo2/domain"
	"github.com/RuuizOr/CiberseguridadEquipo2/domain/event"
)

// Coordinator is the single serialization point of the relay. Every mutation
// of the shared registry, directory and key table runs under its mutex, so
// no interleaving can observe a partially applied change (a group deleted
// mid-broadcast, a half-removed connection).
//
// Dispatch never blocks: sinks reject instead of waiting, and a rejected or
// failed delivery is treated as an implicit disconnect of that connection.
type Coordinator struct {
	mu        sync.Mutex
	log       *slog.Logger
	registry  *Registry
	directory *Directory
	router    *Router
	keys      *KeyExchange
	sinks     map[domain.ConnID]contract.EventSink
}

func NewCoordinator(log *slog.Logger, store contract.GroupStore, echoGroup bool) *Coordinator {
	registry := NewRegistry()
	directory := NewDirectory(registry, store, log)
	return &Coordinator{
		log:       log,
		registry:  registry,
		directory: directory,
		router:    NewRouter(registry, directory, echoGroup),
		keys:      NewKeyExchange(registry, directory),
		sinks:     make(map[domain.ConnID]contract.EventSink),
	}
}

// Connect attaches the connection's sink and greets it. Identity only
// exists after RegisterIdentity.
func (c *Coordinator) Connect(id domain.ConnID, sink contract.EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks[id] = sink
	c.dispatchLocked([]Delivery{{To: id, Event: event.Notice{Text: "Connected to the server."}}})
}

// RegisterIdentity binds (or rebinds) a display name and public key to the
// connection, announces the newcomer globally, and runs the all-pairs key
// exchange.
func (c *Coordinator) RegisterIdentity(id domain.ConnID, displayName, publicKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var deliveries []Delivery

	// Re-registration while grouped: pull the connection out of its group
	// first so a global scope never coexists with a live membership.
	if conn, ok := c.registry.Lookup(id); ok && conn.Grouped() {
		if res, evicted := c.directory.Evict(id); evicted {
			left := event.Notice{Text: fmt.Sprintf("%s left the group '%s'", conn.Name, res.GroupName)}
			for _, member := range res.Remaining {
				deliveries = append(deliveries, Delivery{To: member, Event: left})
			}
		}
	}

	conn := c.registry.Register(id, displayName, publicKey)

	joined := event.Notice{Text: fmt.Sprintf("%s joined the global chat.", conn.Name)}
	for snap := range c.registry.All() {
		deliveries = append(deliveries, Delivery{To: snap.ID, Event: joined})
	}
	deliveries = append(deliveries, c.keys.AnnounceRegistration(id)...)
	c.dispatchLocked(deliveries)
}

// ChooseGroup applies the connect-time group instruction.
func (c *Coordinator) ChooseGroup(id domain.ConnID, instruction string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatchLocked(c.withJoinExchange(id, func() []Delivery {
		return c.router.ChooseGroup(id, instruction)
	}))
}

// HandleText routes one raw text line (command or chat).
func (c *Coordinator) HandleText(id domain.ConnID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatchLocked(c.withJoinExchange(id, func() []Delivery {
		return c.router.HandleText(id, text)
	}))
}

// withJoinExchange runs fn and, when it moved the connection into a new
// group, appends the member key exchange for that group.
func (c *Coordinator) withJoinExchange(id domain.ConnID, fn func() []Delivery) []Delivery {
	before := ""
	if conn, ok := c.registry.Lookup(id); ok {
		before = conn.GroupKey
	}
	deliveries := fn()
	if conn, ok := c.registry.Lookup(id); ok && conn.Grouped() && conn.GroupKey != before {
		deliveries = append(deliveries, c.keys.AnnounceJoin(id, conn.GroupKey)...)
	}
	return deliveries
}

// Recipients lists peer display names eligible for encrypted messages.
func (c *Coordinator) Recipients(id domain.ConnID) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys.Recipients(id)
}

// RelayEncrypted forwards opaque ciphertexts to their resolved recipients.
func (c *Coordinator) RelayEncrypted(id domain.ConnID, payload map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatchLocked(c.keys.RelayEncrypted(id, payload))
}

// Disconnect tears the connection down across all stores in one atomic
// step and notifies its group and the global room.
func (c *Coordinator) Disconnect(id domain.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sinks[id]; !ok {
		return
	}
	c.dispatchLocked(c.teardownLocked(id))
}

// ResolveScope reports the connection's current scope.
func (c *Coordinator) ResolveScope(id domain.ConnID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.router.ResolveScope(id)
}

// MembersOf snapshots the keyed group's member set.
func (c *Coordinator) MembersOf(key string) ([]domain.ConnID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.directory.MembersOf(key)
}

// ListActive snapshots all active groups.
func (c *Coordinator) ListActive() []GroupInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.directory.ListActive()
}

// teardownLocked invalidates the connection in the sink table, the group
// directory and the registry, returning the notices owed to survivors.
// The torn-down connection itself gets nothing; it is already gone.
func (c *Coordinator) teardownLocked(id domain.ConnID) []Delivery {
	delete(c.sinks, id)

	var deliveries []Delivery
	res, evicted := c.directory.Evict(id)
	name := c.registry.Unregister(id)

	if evicted {
		left := event.Notice{Text: fmt.Sprintf("%s left the group '%s'", name, res.GroupName)}
		for _, member := range res.Remaining {
			deliveries = append(deliveries, Delivery{To: member, Event: left})
		}
	}

	gone := event.Notice{Text: fmt.Sprintf("Disconnected: %s", name)}
	for snap := range c.registry.All() {
		deliveries = append(deliveries, Delivery{To: snap.ID, Event: gone})
	}
	return deliveries
}

// dispatchLocked delivers best-effort and escalates failed deliveries to
// implicit disconnects, draining any cascade they cause.
func (c *Coordinator) dispatchLocked(deliveries []Delivery) {
	dead := c.sendAll(deliveries)
	for len(dead) > 0 {
		id := dead[0]
		dead = dead[1:]
		if _, ok := c.sinks[id]; !ok {
			continue
		}
		dead = append(dead, c.sendAll(c.teardownLocked(id))...)
	}
}

func (c *Coordinator) sendAll(deliveries []Delivery) []domain.ConnID {
	var dead []domain.ConnID
	for _, d := range deliveries {
		sink, ok := c.sinks[d.To]
		if !ok {
			continue
		}
		if err := sink.Consume(d.Event); err != nil {
			c.log.Warn("Delivery failed, dropping connection", "conn_id", d.To, "error", err)
			dead = append(dead, d.To)
		}
	}
	return dead
}
