package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPlayers = []string{"Alice", "Bob", "Dr. Strange to", "Carol"}

func TestParse_ItemSent(t *testing.T) {
	p := New()

	event, err := p.Parse("[2024-01-01 00:00:00,000]: (Team #1) Alice sent Small Key to Bob (Chest 1)", testPlayers)
	require.NoError(t, err)
	require.IsType(t, ItemSent{}, event)

	sent := event.(ItemSent)
	assert.Equal(t, "Alice", sent.Sender)
	assert.Equal(t, "Small Key", sent.Item)
	assert.Equal(t, "Bob", sent.Receiver)
	assert.Equal(t, "Chest 1", sent.Location)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), sent.At)
}

func TestParse_ItemSent_AmbiguousNames(t *testing.T) {
	p := New()

	// 物品名里带" to "：接收方按已知玩家名取最长后缀匹配
	event, err := p.Parse("[2024-01-01 00:00:00,000]: (Team #1) Alice sent Ticket to Ride to Bob (Shop 2)", testPlayers)
	require.NoError(t, err)
	require.IsType(t, ItemSent{}, event)

	sent := event.(ItemSent)
	assert.Equal(t, "Ticket to Ride", sent.Item)
	assert.Equal(t, "Bob", sent.Receiver)

	// 玩家名本身带" to"结尾
	event, err = p.Parse("[2024-01-01 00:00:00,000]: (Team #1) Alice sent Gem to Dr. Strange to (Vault)", testPlayers)
	require.NoError(t, err)
	require.IsType(t, ItemSent{}, event)

	sent = event.(ItemSent)
	assert.Equal(t, "Gem", sent.Item)
	assert.Equal(t, "Dr. Strange to", sent.Receiver)
}

func TestParse_ItemSent_LocationWithParens(t *testing.T) {
	p := New()

	event, err := p.Parse("[2024-01-01 00:00:00,000]: (Team #1) Alice sent Shotgun to Bob (Hangar (E1M1) - Shotgun)", testPlayers)
	require.NoError(t, err)
	require.IsType(t, ItemSent{}, event)

	sent := event.(ItemSent)
	assert.Equal(t, "Hangar (E1M1) - Shotgun", sent.Location)
}

func TestParse_Hint(t *testing.T) {
	p := New()

	event, err := p.Parse("[2024-01-01 00:00:00,000]: Notice (Team #1): [Hint]: Bob's Small Key is at Chest 1 in Alice's World.", testPlayers)
	require.NoError(t, err)
	require.IsType(t, Hinted{}, event)

	hint := event.(Hinted)
	assert.Equal(t, "Bob", hint.Receiver)
	assert.Equal(t, "Small Key", hint.Item)
	assert.Equal(t, "Chest 1", hint.Location)
	assert.Equal(t, "Alice", hint.Sender)
	assert.Empty(t, hint.Entrance)
	assert.False(t, hint.Found())
}

func TestParse_Hint_FoundAndEntrance(t *testing.T) {
	p := New()

	event, err := p.Parse("[2024-01-01 00:00:00,000]: Notice (Team #1): [Hint]: Bob's Small Key is at Chest 1 in Alice's World. (found)", testPlayers)
	require.NoError(t, err)
	require.IsType(t, Hinted{}, event)
	assert.True(t, event.(Hinted).Found())

	event, err = p.Parse("[2024-01-01 00:00:00,000]: Notice (Team #1): [Hint]: Bob's Hookshot is at Spirit Temple in Alice's World at Desert Colossus.", testPlayers)
	require.NoError(t, err)
	require.IsType(t, Hinted{}, event)

	hint := event.(Hinted)
	assert.Equal(t, "Spirit Temple", hint.Location)
	assert.Equal(t, "Desert Colossus", hint.Entrance)

	event, err = p.Parse("[2024-01-01 00:00:00,000]: Notice (Team #1): [Hint]: Bob's Sword is at Armory in Alice's World. (priority)", testPlayers)
	require.NoError(t, err)
	require.IsType(t, Hinted{}, event)
	assert.True(t, event.(Hinted).Priority())
}

func TestParse_GoalAndRelease(t *testing.T) {
	p := New()

	event, err := p.Parse("[2024-01-01 00:00:00,000]: Notice (all): Alice (Team #1) has completed their goal.", testPlayers)
	require.NoError(t, err)
	require.IsType(t, Goaled{}, event)
	assert.Equal(t, "Alice", event.(Goaled).Sender)

	event, err = p.Parse("[2024-01-01 00:00:00,000]: Notice (all): Alice (Team #1) has released all remaining items from their world.", testPlayers)
	require.NoError(t, err)
	require.IsType(t, Released{}, event)
	assert.Equal(t, "Alice", event.(Released).Sender)
}

func TestParse_JoinAndPart(t *testing.T) {
	p := New()

	event, err := p.Parse("[2024-01-01 00:00:00,000]: Notice (all): Carol (Team #1) playing TUNIC has joined. Client(0.4.4), ['AP'].", testPlayers)
	require.NoError(t, err)
	require.IsType(t, Joined{}, event)

	joined := event.(Joined)
	assert.Equal(t, "Carol", joined.Player)
	assert.Equal(t, "playing", joined.Verb)
	assert.Equal(t, "TUNIC", joined.Game)
	assert.Equal(t, "0.4.4", joined.ClientVersion)
	assert.Equal(t, []string{"AP"}, joined.Tags)

	event, err = p.Parse("[2024-01-01 00:00:00,000]: Notice (all): Carol (Team #1) has left the game. Client(0.4.4).", testPlayers)
	require.NoError(t, err)
	require.IsType(t, Parted{}, event)
	assert.Equal(t, "Carol", event.(Parted).Player)
}

func TestParse_RoomEvents(t *testing.T) {
	p := New()

	event, err := p.Parse("[2024-01-01 00:00:00,000]: Hosting game at archipelago.gg:38281", testPlayers)
	require.NoError(t, err)
	require.IsType(t, RoomSpinup{}, event)
	assert.Equal(t, "archipelago.gg:38281", event.(RoomSpinup).Address)

	event, err = p.Parse("[2024-01-01 00:00:00,000]: Shutting down due to inactivity.", testPlayers)
	require.NoError(t, err)
	require.IsType(t, RoomShutdown{}, event)
}

func TestParse_Chat(t *testing.T) {
	p := New()

	event, err := p.Parse("[2024-01-01 00:00:00,000]: Alice: gg everyone", testPlayers)
	require.NoError(t, err)
	require.IsType(t, Chat{}, event)

	chat := event.(Chat)
	assert.Equal(t, "Alice", chat.Sender)
	assert.Equal(t, "gg everyone", chat.Text)

	// 未知说话人不识别为聊天
	event, err = p.Parse("[2024-01-01 00:00:00,000]: Mallory: hi", testPlayers)
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestParse_Discards(t *testing.T) {
	p := New()

	// 无时间戳
	event, err := p.Parse("random garbage", testPlayers)
	require.NoError(t, err)
	assert.Nil(t, event)

	// 时间戳损坏
	event, err = p.Parse("[not a timestamp]: (Team #1) Alice sent Small Key to Bob (Chest 1)", testPlayers)
	require.NoError(t, err)
	assert.Nil(t, event)

	// 形状未知
	event, err = p.Parse("[2024-01-01 00:00:00,000]: something entirely different", testPlayers)
	require.NoError(t, err)
	assert.Nil(t, event)

	// 空行
	event, err = p.Parse("", testPlayers)
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestParseSpoiler(t *testing.T) {
	p := New()

	text := `Archipelago Version 0.4.4  -  Seed: 74830917364512
Multiworld: 2 players
Player 1: Alice
  Game:           TUNIC
  Hexagon Quest:  Yes
  Chapter 5 Cost: 25
Player 2: Bob
  Game:           Ocarina of Time
  Triforce Hunt:  No
Locations:

Chest 1 (Alice): Small Key (Bob)
Spirit Temple (Bob): Hookshot (Alice)

Starting Items:

Sword (Alice)

Entrances:

Overworld -> Dungeon
`

	doc := p.ParseSpoiler(text)

	assert.Equal(t, "74830917364512", doc.Seed)
	assert.Equal(t, "0.4.4", doc.Version)

	aliceSettings := doc.PlayerSettings["Alice"]
	require.NotNil(t, aliceSettings)
	game, ok := aliceSettings.String("Game")
	require.True(t, ok)
	assert.Equal(t, "TUNIC", game)
	hexQuest, ok := aliceSettings.Bool("Hexagon Quest")
	require.True(t, ok)
	assert.True(t, hexQuest)
	cost, ok := aliceSettings.Int("Chapter 5 Cost")
	require.True(t, ok)
	assert.Equal(t, 25, cost)

	require.Len(t, doc.Locations, 2)
	assert.Equal(t, SpoilerLocation{
		Location: "Chest 1",
		Sender:   "Alice",
		Item:     "Small Key",
		Receiver: "Bob",
	}, doc.Locations[0])

	require.Len(t, doc.StartingItems, 1)
	assert.Equal(t, SpoilerStartingItem{Item: "Sword", Receiver: "Alice"}, doc.StartingItems[0])

	// Entrances小节被跳过
	for _, loc := range doc.Locations {
		assert.NotContains(t, loc.Location, "->")
	}
}

func TestParseSpoiler_MalformedSections(t *testing.T) {
	p := New()

	// 缺失小节与畸形行都不致命
	doc := p.ParseSpoiler("Locations:\nthis line matches nothing useful\n")
	assert.Empty(t, doc.Locations)
	assert.Empty(t, doc.StartingItems)
}
