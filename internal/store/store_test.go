package store

import (
	"testing"

	errorsmod "cosmossdk.io/errors"
	storetypes "cosmossdk.io/store/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestBranchCommitsOnlyOnWrite(t *testing.T) {
	root := NewMemory()
	item := NewItem[record]("config")

	discarded := root.Branch()
	require.NoError(t, item.Save(discarded.KV(), record{Name: "dropped"}))
	_, ok, err := item.MayLoad(root.KV())
	require.NoError(t, err)
	assert.False(t, ok)

	kept := root.Branch()
	require.NoError(t, item.Save(kept.KV(), record{Name: "kept", Count: 2}))
	kept.Write()

	got, err := item.Load(root.KV())
	require.NoError(t, err)
	assert.Equal(t, record{Name: "kept", Count: 2}, got)
}

func TestItemLoadMissing(t *testing.T) {
	root := NewMemory()
	_, err := NewItem[record]("missing").Load(root.KV())
	require.ErrorIs(t, err, ErrNotFound)

	v, err := NewItem[uint64]("counter").Update(root.KV(), func(n uint64) (uint64, error) { return n + 1, nil })
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)
}

func TestMapRangeOrderAndBounds(t *testing.T) {
	root := NewMemory()
	m := NewMap[record]("batches")
	other := NewMap[record]("batches_by_user")
	kv := root.KV()

	for _, id := range []uint64{3, 1, 2, 10} {
		require.NoError(t, m.Save(kv, U64(id), record{Count: int(id)}))
	}
	require.NoError(t, other.Save(kv, U64(4), record{Count: 4}))

	asc, err := m.Collect(kv, nil, nil, nil, Ascending, 0)
	require.NoError(t, err)
	require.Len(t, asc, 4)
	assert.Equal(t, []int{1, 2, 3, 10}, counts(asc))

	desc, err := m.Collect(kv, nil, nil, U64(10), Descending, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, counts(desc))

	after, err := m.Collect(kv, nil, After(U64(2)), nil, Ascending, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 10}, counts(after))

	id, err := ParseU64(asc[3].Key)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), id)
}

func TestCompositeKeys(t *testing.T) {
	root := NewMemory()
	m := NewMap[record]("requests")
	kv := root.KV()

	require.NoError(t, m.Save(kv, Join(Str("alice"), U64(1)), record{Count: 1}))
	require.NoError(t, m.Save(kv, Join(Str("alice"), U64(2)), record{Count: 2}))
	require.NoError(t, m.Save(kv, Join(Str("alicia"), U64(1)), record{Count: 9}))

	alice, err := m.Collect(kv, Str("alice"), nil, nil, Ascending, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, counts(alice))

	user, rest, err := ParseStr(Join(Str("alicia"), U64(1)))
	require.NoError(t, err)
	assert.Equal(t, "alicia", user)
	assert.Len(t, rest, 8)
}

func counts(entries []Entry[record]) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value.Count)
	}
	return out
}

func TestErrorsRegisterOutsideDependencyCodespaces(t *testing.T) {
	assert.Equal(t, Codespace, ErrNotFound.Codespace())
	assert.NotEqual(t, storetypes.ErrInvalidProof.Codespace(), ErrNotFound.Codespace())

	err := errorsmod.Wrap(ErrCodec, "bad bytes")
	assert.True(t, errorsmod.IsOf(err, ErrCodec))
	assert.False(t, errorsmod.IsOf(err, storetypes.ErrInvalidProof))
}
