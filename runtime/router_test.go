package runtime

import (
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/RuuizOr/CiberseguridadEquipo2/domain"
	"github.com/RuuizOr/CiberseguridadEquipo2/domain/event"
)

func newTestRouter(echoGroup bool) (*Registry, *Directory, *Router) {
	registry := NewRegistry()
	directory := NewDirectory(registry, nil, discardLogger())
	return registry, directory, NewRouter(registry, directory, echoGroup)
}

func recipientsOf(deliveries []Delivery) []domain.ConnID {
	return lo.Map(deliveries, func(d Delivery, _ int) domain.ConnID { return d.To })
}

func noticeTexts(deliveries []Delivery) []string {
	var texts []string
	for _, d := range deliveries {
		if n, ok := d.Event.(event.Notice); ok {
			texts = append(texts, n.Text)
		}
	}
	return texts
}

func TestRouter_ResolveScope(t *testing.T) {
	req := require.New(t)
	registry, directory, router := newTestRouter(true)
	alice := connect(registry, "Alice")
	bob := connect(registry, "Bob")
	key, _ := directory.Create("Study", alice)

	req.Equal(key, router.ResolveScope(alice))
	req.Equal(ScopeGlobal, router.ResolveScope(bob))
	req.Equal(ScopeGlobal, router.ResolveScope(domain.ConnID("ghost")))
}

func TestRouter_Global_Chat_Echoes_To_All_Global_Connections(t *testing.T) {
	req := require.New(t)
	registry, directory, router := newTestRouter(true)
	alice := connect(registry, "Alice")
	bob := connect(registry, "Bob")
	grouped := connect(registry, "Grouped")
	directory.Create("Side", grouped)

	// When Alice chats in the global room
	deliveries := router.HandleText(alice, "hi all")

	// Then global connections get it, sender included, grouped ones do not
	req.ElementsMatch([]domain.ConnID{alice, bob}, recipientsOf(deliveries))
	req.Equal("Alice: hi all", deliveries[0].Event.(event.Notice).Text)
}

func TestRouter_Group_Chat_Echo_Policy(t *testing.T) {
	req := require.New(t)

	// With echo enabled the sender receives its own message
	registry, directory, router := newTestRouter(true)
	alice := connect(registry, "Alice")
	bob := connect(registry, "Bob")
	key, _ := directory.Create("Study", alice)
	_, err := directory.Join(key, bob)
	req.NoError(err)

	deliveries := router.HandleText(alice, "hi group")
	req.ElementsMatch([]domain.ConnID{alice, bob}, recipientsOf(deliveries))
	req.Equal("Alice (group): hi group", deliveries[0].Event.(event.Notice).Text)

	// With echo disabled the sender is excluded
	registry, directory, router = newTestRouter(false)
	alice = connect(registry, "Alice")
	bob = connect(registry, "Bob")
	key, _ = directory.Create("Study", alice)
	_, err = directory.Join(key, bob)
	req.NoError(err)

	deliveries = router.HandleText(alice, "hi group")
	req.Equal([]domain.ConnID{bob}, recipientsOf(deliveries))
}

func TestRouter_Unknown_Command_Notifies_Sender_Only(t *testing.T) {
	req := require.New(t)
	registry, _, router := newTestRouter(true)
	alice := connect(registry, "Alice")
	connect(registry, "Bob")

	deliveries := router.HandleText(alice, "/frobnicate")

	req.Equal([]domain.ConnID{alice}, recipientsOf(deliveries))
	req.Equal([]string{"Command not recognized."}, noticeTexts(deliveries))
}

func TestRouter_Create_Group_Command_Announces_To_Everyone_Else(t *testing.T) {
	req := require.New(t)
	registry, directory, router := newTestRouter(true)
	alice := connect(registry, "Alice")
	bob := connect(registry, "Bob")

	deliveries := router.HandleText(alice, "/create-group|Study")

	// Then Alice gets the key and Bob gets the announcement
	req.Len(deliveries, 2)
	req.Equal(alice, deliveries[0].To)
	req.Contains(deliveries[0].Event.(event.Notice).Text, "Group created: Study | Key: ")
	req.Equal(bob, deliveries[1].To)
	req.Contains(deliveries[1].Event.(event.Notice).Text, "Alice created the group 'Study'")

	req.Len(directory.ListActive(), 1)
}

func TestRouter_Hot_Join_Failure_Keeps_Current_Scope(t *testing.T) {
	req := require.New(t)
	registry, directory, router := newTestRouter(true)
	alice := connect(registry, "Alice")
	key, _ := directory.Create("Study", alice)

	// When a grouped sender hot-joins a bogus key
	deliveries := router.HandleText(alice, "/join-group|ZZZZZZ")

	// Then one notice goes back and the sender stays in its group
	req.Equal([]domain.ConnID{alice}, recipientsOf(deliveries))
	req.Equal([]string{"Invalid key: ZZZZZZ"}, noticeTexts(deliveries))
	req.Equal(key, router.ResolveScope(alice))
}

func TestRouter_Join_Command_Notifies_Existing_Members(t *testing.T) {
	req := require.New(t)
	registry, directory, router := newTestRouter(true)
	alice := connect(registry, "Alice")
	bob := connect(registry, "Bob")
	key, _ := directory.Create("Study", alice)

	// Keys are drawn uppercase, the command may arrive lowercase
	deliveries := router.HandleText(bob, "/join-group|"+strings.ToLower(key))

	req.Equal(bob, deliveries[0].To)
	req.Contains(deliveries[0].Event.(event.Notice).Text, "Joined group: Study")
	req.Equal(alice, deliveries[1].To)
	req.Contains(deliveries[1].Event.(event.Notice).Text, "Bob joined the group 'Study'")
}

func TestRouter_Leave_Command(t *testing.T) {
	req := require.New(t)
	registry, directory, router := newTestRouter(true)
	alice := connect(registry, "Alice")
	bob := connect(registry, "Bob")
	key, _ := directory.Create("Study", alice)
	_, err := directory.Join(key, bob)
	req.NoError(err)

	deliveries := router.HandleText(alice, "/leave-group")

	req.Equal([]domain.ConnID{alice, bob}, recipientsOf(deliveries))
	req.Equal("You left the group 'Study'", deliveries[0].Event.(event.Notice).Text)
	req.Equal("Alice left the group 'Study'", deliveries[1].Event.(event.Notice).Text)

	// And leaving again is a user-facing notice, not a crash
	deliveries = router.HandleText(alice, "/leave-group")
	req.Equal([]string{"You are not in a group."}, noticeTexts(deliveries))
}

func TestRouter_List_Groups_Command(t *testing.T) {
	req := require.New(t)
	registry, directory, router := newTestRouter(true)
	alice := connect(registry, "Alice")

	deliveries := router.HandleText(alice, "/list-groups")
	req.Equal([]string{"No active groups."}, noticeTexts(deliveries))

	key, _ := directory.Create("Study", alice)
	deliveries = router.HandleText(alice, "/list-groups")
	req.Len(deliveries, 1)
	text := deliveries[0].Event.(event.Notice).Text
	req.Contains(text, "Active groups:")
	req.Contains(text, "Study (Key: "+key+") Members: 1")
}

func TestRouter_ChooseGroup_Join_Failure_Resets_To_Global(t *testing.T) {
	req := require.New(t)
	registry, _, router := newTestRouter(true)
	carol := connect(registry, "Carol")

	// When the connect-time instruction targets a nonexistent key
	deliveries := router.ChooseGroup(carol, "join-group|ZZZZZZ")

	// Then one notice and a global scope
	req.Equal([]domain.ConnID{carol}, recipientsOf(deliveries))
	req.Equal([]string{"Invalid key: ZZZZZZ. You are in the global chat."}, noticeTexts(deliveries))
	req.Equal(ScopeGlobal, router.ResolveScope(carol))
}

func TestRouter_ChooseGroup_None_And_Garbage_Stay_Global(t *testing.T) {
	req := require.New(t)
	registry, _, router := newTestRouter(true)
	carol := connect(registry, "Carol")

	req.Empty(router.ChooseGroup(carol, "none"))
	req.Empty(router.ChooseGroup(carol, "whatever"))
	req.Equal(ScopeGlobal, router.ResolveScope(carol))
}

func TestRouter_ChooseGroup_Create(t *testing.T) {
	req := require.New(t)
	registry, directory, router := newTestRouter(true)
	alice := connect(registry, "Alice")

	deliveries := router.ChooseGroup(alice, "create-group|Study")

	req.NotEmpty(deliveries)
	infos := directory.ListActive()
	req.Len(infos, 1)
	req.Equal(infos[0].Key, router.ResolveScope(alice))
}
