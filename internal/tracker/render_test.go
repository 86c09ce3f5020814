package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/ap-itemlog/internal/rules"
	"github.com/wfunc/ap-itemlog/internal/world"
)

// fakeLocations 内存可检查性表
type fakeLocations struct {
	rows map[[2]string]bool
}

func newFakeLocations() *fakeLocations {
	return &fakeLocations{rows: make(map[[2]string]bool)}
}

func (s *fakeLocations) Lookup(_ context.Context, game, location string) (bool, bool, error) {
	v, ok := s.rows[[2]string{game, location}]
	return v, ok, nil
}

func (s *fakeLocations) Ensure(_ context.Context, game, location string) error {
	if _, ok := s.rows[[2]string{game, location}]; !ok {
		s.rows[[2]string{game, location}] = false
	}
	return nil
}

func (s *fakeLocations) MarkCheckable(_ context.Context, game, location string) error {
	s.rows[[2]string{game, location}] = true
	return nil
}

func newRenderWorld(t *testing.T) (*world.World, *Renderer) {
	t.Helper()
	registry := rules.NewRegistry()
	w := world.New(newFakeLocations(), registry.AlwaysCheckable)
	return w, NewRenderer(registry)
}

func TestRenderItemSent_Normal(t *testing.T) {
	w, r := newRenderWorld(t)
	alice := w.RegisterPlayer("Alice", "Celeste")
	bob := w.RegisterPlayer("Bob", "Celeste")

	item := &world.Item{Sender: "Alice", Receiver: "Bob", Name: "Small Key", Location: "Chest 1"}
	msg := r.ItemSent(item, alice, bob, false)
	assert.Equal(t, "Alice sent **Small Key** to **Bob** (Chest 1)", msg)
}

func TestRenderItemSent_Hinted(t *testing.T) {
	w, r := newRenderWorld(t)
	alice := w.RegisterPlayer("Alice", "Celeste")
	bob := w.RegisterPlayer("Bob", "Celeste")

	item := &world.Item{Sender: "Alice", Receiver: "Bob", Name: "Small Key", Location: "Chest 1"}
	msg := r.ItemSent(item, alice, bob, true)
	assert.Equal(t, "Alice found **Bob's hinted Small Key** (Chest 1)", msg)
}

func TestRenderItemSent_SelfFound(t *testing.T) {
	w, r := newRenderWorld(t)
	alice := w.RegisterPlayer("Alice", "Celeste")

	item := &world.Item{Sender: "Alice", Receiver: "Alice", Name: "Strawberry", Location: "Summit"}
	assert.Equal(t, "**Alice** found **their own Strawberry** (Summit)", r.ItemSent(item, alice, alice, false))
	assert.Equal(t, "**Alice** found **their own hinted Strawberry** (Summit)", r.ItemSent(item, alice, alice, true))
}

func TestRenderItemSent_DimsFinishedReceiver(t *testing.T) {
	w, r := newRenderWorld(t)
	alice := w.RegisterPlayer("Alice", "Celeste")
	bob := w.RegisterPlayer("Bob", "Celeste")
	bob.Goaled = true

	item := &world.Item{Sender: "Alice", Receiver: "Bob", Name: "Small Key", Location: "Chest 1"}
	msg := r.ItemSent(item, alice, bob, false)
	assert.Equal(t, "-# Alice sent **Small Key** to **Bob** (Chest 1)", msg)
}

func TestRenderHint(t *testing.T) {
	_, r := newRenderWorld(t)

	item := &world.Item{Sender: "Alice", Receiver: "Bob", Name: "Small Key", Location: "Chest 1"}
	msg := r.Hint(item)
	assert.Equal(t, "**[Hint]** **Bob's Small Key** is at Chest 1 in Alice's World.", msg)
}

func TestRenderGoal(t *testing.T) {
	_, r := newRenderWorld(t)
	assert.Equal(t, "**Alice has finished!**", r.Goal("Alice"))
}

func TestRenderRelease_CountsAndDropsFiller(t *testing.T) {
	w, r := newRenderWorld(t)
	w.RegisterPlayer("Alice", "Celeste")
	w.RegisterPlayer("Bob", "Celeste")

	entry := &ReleaseEntry{
		Sender: "Alice",
		Items:  make(map[string][]*world.Item),
	}
	entry.add("Bob", &world.Item{Name: "Small Key", Classification: world.Progression})
	entry.add("Bob", &world.Item{Name: "Small Key", Classification: world.Progression})
	entry.add("Bob", &world.Item{Name: "Compass", Classification: world.Useful})
	entry.add("Bob", &world.Item{Name: "Twenty Rupees", Classification: world.Filler})

	msg := r.Release(entry, w.Game())
	assert.Equal(t,
		"**Alice** has released their remaining items.\n**Bob** receives: Small Key (x2), Compass",
		msg)
}

func TestRenderRelease_FoldsCurrency(t *testing.T) {
	w, r := newRenderWorld(t)
	w.RegisterPlayer("Alice", "Celeste")
	w.RegisterPlayer("Fox", "TUNIC")

	entry := &ReleaseEntry{
		Sender: "Alice",
		Items:  make(map[string][]*world.Item),
	}
	entry.add("Fox", &world.Item{Name: "Money x32", Classification: world.Currency})
	entry.add("Fox", &world.Item{Name: "Money x16", Classification: world.Currency})
	entry.add("Fox", &world.Item{Name: "Magic Dagger", Classification: world.Useful})

	msg := r.Release(entry, w.Game())
	assert.Equal(t,
		"**Alice** has released their remaining items.\n**Fox** receives: Magic Dagger, 48 Money",
		msg)
}

func TestRenderRelease_SkipsFinishedReceiver(t *testing.T) {
	w, r := newRenderWorld(t)
	w.RegisterPlayer("Alice", "Celeste")
	bob := w.RegisterPlayer("Bob", "Celeste")
	w.RegisterPlayer("Carol", "Celeste")
	bob.Released = true

	entry := &ReleaseEntry{
		Sender: "Alice",
		Items:  make(map[string][]*world.Item),
	}
	entry.add("Bob", &world.Item{Name: "Small Key", Classification: world.Progression})
	entry.add("Carol", &world.Item{Name: "Compass", Classification: world.Useful})

	msg := r.Release(entry, w.Game())
	assert.Equal(t,
		"**Alice** has released their remaining items.\n**Carol** receives: Compass",
		msg)
}

func TestRenderRelease_AllFillerYieldsHeaderOnly(t *testing.T) {
	w, r := newRenderWorld(t)
	w.RegisterPlayer("Alice", "Celeste")
	w.RegisterPlayer("Bob", "Celeste")

	entry := &ReleaseEntry{
		Sender: "Alice",
		Items:  make(map[string][]*world.Item),
	}
	entry.add("Bob", &world.Item{Name: "Twenty Rupees", Classification: world.Filler})

	assert.Equal(t, "**Alice** has released their remaining items.", r.Release(entry, w.Game()))
}

func TestRenderMilestones(t *testing.T) {
	w, r := newRenderWorld(t)
	alice := w.RegisterPlayer("Alice", "Celeste")
	alice.Collected = 150
	alice.Total = 200

	assert.Equal(t, "**Alice** has checked 75% of their locations! (150/200)", r.PlayerMilestone(alice, 75))

	game := w.Game()
	game.Collected = 500
	game.Total = 1000
	assert.Equal(t, "**The multiworld is 50% complete!** (500/1000)", r.GameMilestone(game, 50))
}

func TestRenderChat(t *testing.T) {
	_, r := newRenderWorld(t)
	assert.Equal(t, "Alice: good luck everyone", r.Chat("Alice", "good luck everyone"))
}

func TestRenderItemSent_AppliesGameRules(t *testing.T) {
	w, r := newRenderWorld(t)
	alice := w.RegisterPlayer("Alice", "Celeste")
	mario := w.RegisterPlayer("Mario", "Super Mario World")
	mario.Settings = world.Settings{}
	mario.Settings.Set("Goal", "Yoshi Egg Hunt")
	mario.Settings.Set("Max Number of Yoshi Eggs", 40)
	mario.Settings.Set("Required Percentage of Yoshi Eggs", 100)

	item := &world.Item{Sender: "Alice", Receiver: "Mario", Name: "Yoshi Egg", Location: "Chest 1", Count: 1}
	_, err := w.ApplyItemSent(context.Background(), time.Now(), "Alice", "Yoshi Egg", "Mario", "Chest 1")
	require.NoError(t, err)

	msg := r.ItemSent(item, alice, mario, false)
	assert.Contains(t, msg, "Yoshi Egg (1/40)")
}
