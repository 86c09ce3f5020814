package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationRepo_MarkCheckable(t *testing.T) {
	db := TestDB(t)
	repo := NewLocationRepository(db)
	ctx := context.Background()

	// 默认行不可检查
	require.NoError(t, repo.Ensure(ctx, "OoT", "Queen Gohma"))

	checkable, found, err := repo.Lookup(ctx, "OoT", "Queen Gohma")
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, checkable)

	// 标记可检查
	require.NoError(t, repo.MarkCheckable(ctx, "OoT", "Queen Gohma"))

	checkable, _, err = repo.Lookup(ctx, "OoT", "Queen Gohma")
	require.NoError(t, err)
	assert.True(t, checkable)

	// MarkCheckable对不存在的行直接创建
	require.NoError(t, repo.MarkCheckable(ctx, "OoT", "Kokiri Sword Chest"))

	checkable, found, err = repo.Lookup(ctx, "OoT", "Kokiri Sword Chest")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, checkable)

	// Ensure不会把已标记的行降级
	require.NoError(t, repo.Ensure(ctx, "OoT", "Queen Gohma"))

	checkable, _, err = repo.Lookup(ctx, "OoT", "Queen Gohma")
	require.NoError(t, err)
	assert.True(t, checkable)
}

func TestLocationRepo_Override(t *testing.T) {
	db := TestDB(t)
	repo := NewLocationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.MarkCheckable(ctx, "DOOM 1993", "Hangar (E1M1) - Shotgun"))
	require.NoError(t, repo.MarkCheckable(ctx, "DOOM 1993", "Hangar (E1M1) - Exit"))
	require.NoError(t, repo.Ensure(ctx, "DOOM 1993", "Nuclear Plant (E1M2) - Chainsaw"))

	// 管理端可以用通配符降级
	affected, err := repo.Override(ctx, "DOOM 1993", "Hangar%", false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	checkable, _, err := repo.Lookup(ctx, "DOOM 1993", "Hangar (E1M1) - Shotgun")
	require.NoError(t, err)
	assert.False(t, checkable)
}

func TestLocationRepo_MapByGame(t *testing.T) {
	db := TestDB(t)
	repo := NewLocationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.MarkCheckable(ctx, "TUNIC", "Overworld - Chest Near Well"))
	require.NoError(t, repo.Ensure(ctx, "TUNIC", "Fortress Arena - Siege Engine"))
	require.NoError(t, repo.MarkCheckable(ctx, "SMW", "Yoshi's Island 1 - Exit"))

	m, err := repo.MapByGame(ctx, "TUNIC")
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.True(t, m["Overworld - Chest Near Well"])
	assert.False(t, m["Fortress Arena - Siege Engine"])
}
