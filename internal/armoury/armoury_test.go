package armoury_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/omnissiah/internal/armoury"
	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
)

func lasgun() weapon.Instance {
	return weapon.NewInstance(weapon.Weapon{
		Name:       "Lasgun",
		Class:      weapon.ClassBasic,
		Type:       weapon.TypeLas,
		Range:      100,
		RoF:        weapon.RateOfFire{Single: true, Semi: 3},
		DamageDice: 1, DamageBonus: 3,
		DamageType: weapon.DamageEnergy,
		Clip:       60,
		Specials:   []string{"Reliable"},
	}, weapon.CraftsmanshipGood)
}

func newService(t *testing.T) *armoury.Service {
	return armoury.NewService(armoury.NewMemoryStore(), zaptest.NewLogger(t))
}

func TestService_AddListGetDelete(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	id, err := svc.Add(ctx, "user-1", lasgun())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	recs, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, id, recs[0].ID)
	assert.Equal(t, "user-1", recs[0].Owner)
	assert.Equal(t, weapon.CraftsmanshipGood, recs[0].Weapon.Craftsmanship)
	assert.Equal(t, []string{"Reliable"}, recs[0].Weapon.Specials)

	rec, err := svc.Get(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Equal(t, "Lasgun", rec.Weapon.Name)

	_, err = svc.Get(ctx, "user-2", id)
	assert.ErrorIs(t, err, armoury.ErrNotFound)

	ok, err := svc.Delete(ctx, "user-2", id)
	require.NoError(t, err)
	assert.False(t, ok, "other owners cannot delete")

	ok, err = svc.Delete(ctx, "user-1", id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Delete(ctx, "user-1", id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Add(ctx, "  ", lasgun())
	assert.ErrorIs(t, err, armoury.ErrInvalidOwner)

	w := lasgun()
	w.Clip = 0
	_, err = svc.Add(ctx, "user-1", w)
	assert.ErrorIs(t, err, weapon.ErrInvalid)

	_, err = svc.List(ctx, "")
	assert.ErrorIs(t, err, armoury.ErrInvalidOwner)
}

func TestService_AddDefaultsCraftsmanship(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	w := lasgun()
	w.Craftsmanship = ""
	id, err := svc.Add(ctx, "user-1", w)
	require.NoError(t, err)
	rec, err := svc.Get(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Equal(t, weapon.CraftsmanshipCommon, rec.Weapon.Craftsmanship)
}

func TestService_Find(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	id, err := svc.Add(ctx, "user-1", lasgun())
	require.NoError(t, err)

	rec, err := svc.Find(ctx, "user-1", "lasgun")
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)

	rec, err = svc.Find(ctx, "user-1", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)

	_, err = svc.Find(ctx, "user-1", "plasma gun")
	assert.ErrorIs(t, err, armoury.ErrNotFound)

	_, err = svc.Add(ctx, "user-1", lasgun())
	require.NoError(t, err)
	_, err = svc.Find(ctx, "user-1", "Lasgun")
	assert.ErrorIs(t, err, armoury.ErrAmbiguous)
}

func TestMemoryStore_ListIsACopy(t *testing.T) {
	ctx := context.Background()
	store := armoury.NewMemoryStore()
	_, err := store.Add(ctx, "u", lasgun())
	require.NoError(t, err)

	recs, _ := store.List(ctx, "u")
	recs[0].Weapon.Name = "mutated"
	again, _ := store.List(ctx, "u")
	assert.Equal(t, "Lasgun", again[0].Weapon.Name)
}

func TestMemoryStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store := armoury.NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Add(ctx, "u", lasgun())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	recs, err := store.List(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, recs, 50)
}

func TestMemoryStore_AddDeleteProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		store := armoury.NewMemoryStore()
		n := rapid.IntRange(1, 10).Draw(rt, "n")
		var ids []uuid.UUID
		for i := 0; i < n; i++ {
			id, err := store.Add(ctx, "u", lasgun())
			require.NoError(rt, err)
			ids = append(ids, id)
		}
		victim := rapid.IntRange(0, n-1).Draw(rt, "victim")
		ok, err := store.Delete(ctx, "u", ids[victim])
		require.NoError(rt, err)
		assert.True(rt, ok)

		recs, err := store.List(ctx, "u")
		require.NoError(rt, err)
		require.Len(rt, recs, n-1)
		for _, r := range recs {
			assert.NotEqual(rt, ids[victim], r.ID)
		}
	})
}
