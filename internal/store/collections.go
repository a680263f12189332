package store

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/store/prefix"
	storetypes "cosmossdk.io/store/types"
)

const Codespace = "lstvault_store"

var (
	ErrNotFound = errorsmod.Register(Codespace, 2, "record not found")
	ErrCodec    = errorsmod.Register(Codespace, 3, "codec failure")
)

func encode(v any) ([]byte, error) {
	bz, err := json.Marshal(v)
	if err != nil {
		return nil, errorsmod.Wrap(ErrCodec, err.Error())
	}
	return bz, nil
}

func decode[T any](bz []byte) (T, error) {
	var v T
	if err := json.Unmarshal(bz, &v); err != nil {
		return v, errorsmod.Wrap(ErrCodec, err.Error())
	}
	return v, nil
}

// Item is a single typed record.
type Item[T any] struct {
	key []byte
}

func NewItem[T any](name string) Item[T] {
	return Item[T]{key: Namespace(name)}
}

func (i Item[T]) MayLoad(kv storetypes.KVStore) (T, bool, error) {
	bz := kv.Get(i.key)
	if bz == nil {
		var zero T
		return zero, false, nil
	}
	v, err := decode[T](bz)
	return v, err == nil, err
}

func (i Item[T]) Load(kv storetypes.KVStore) (T, error) {
	v, ok, err := i.MayLoad(kv)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, errorsmod.Wrapf(ErrNotFound, "item %x", i.key)
	}
	return v, nil
}

func (i Item[T]) Save(kv storetypes.KVStore, v T) error {
	bz, err := encode(v)
	if err != nil {
		return err
	}
	kv.Set(i.key, bz)
	return nil
}

func (i Item[T]) Remove(kv storetypes.KVStore) { kv.Delete(i.key) }

// Update loads the record (zero when missing), applies fn and saves the result.
func (i Item[T]) Update(kv storetypes.KVStore, fn func(T) (T, error)) (T, error) {
	v, _, err := i.MayLoad(kv)
	if err != nil {
		return v, err
	}
	if v, err = fn(v); err != nil {
		return v, err
	}
	return v, i.Save(kv, v)
}

// Order selects the iteration direction of a Range.
type Order int

const (
	Ascending Order = iota
	Descending
)

// Map is a typed collection under one namespace, keyed by encoded byte keys.
type Map[V any] struct {
	prefix []byte
}

func NewMap[V any](name string) Map[V] {
	return Map[V]{prefix: Namespace(name)}
}

func (m Map[V]) fullKey(key []byte) []byte { return Join(m.prefix, key) }

func (m Map[V]) MayLoad(kv storetypes.KVStore, key []byte) (V, bool, error) {
	bz := kv.Get(m.fullKey(key))
	if bz == nil {
		var zero V
		return zero, false, nil
	}
	v, err := decode[V](bz)
	return v, err == nil, err
}

func (m Map[V]) Load(kv storetypes.KVStore, key []byte) (V, error) {
	v, ok, err := m.MayLoad(kv, key)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, errorsmod.Wrapf(ErrNotFound, "key %x", key)
	}
	return v, nil
}

func (m Map[V]) Has(kv storetypes.KVStore, key []byte) bool {
	return kv.Has(m.fullKey(key))
}

func (m Map[V]) Save(kv storetypes.KVStore, key []byte, v V) error {
	bz, err := encode(v)
	if err != nil {
		return err
	}
	kv.Set(m.fullKey(key), bz)
	return nil
}

func (m Map[V]) Remove(kv storetypes.KVStore, key []byte) { kv.Delete(m.fullKey(key)) }

// Range iterates the entries whose key starts with sub. start is inclusive and end exclusive,
// both relative to sub; nil leaves a side open. Keys passed to fn are relative to sub.
func (m Map[V]) Range(
	kv storetypes.KVStore,
	sub, start, end []byte,
	order Order,
	fn func(key []byte, v V) (stop bool, err error),
) error {
	scoped := prefix.NewStore(kv, m.fullKey(sub))

	var it storetypes.Iterator
	if order == Descending {
		it = scoped.ReverseIterator(start, end)
	} else {
		it = scoped.Iterator(start, end)
	}
	defer it.Close()

	for ; it.Valid(); it.Next() {
		v, err := decode[V](it.Value())
		if err != nil {
			return err
		}
		key := append([]byte(nil), it.Key()...)
		stop, err := fn(key, v)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

// Collect gathers up to limit entries of a Range. A zero limit means unbounded.
func (m Map[V]) Collect(kv storetypes.KVStore, sub, start, end []byte, order Order, limit int) ([]Entry[V], error) {
	var out []Entry[V]
	err := m.Range(kv, sub, start, end, order, func(key []byte, v V) (bool, error) {
		out = append(out, Entry[V]{Key: key, Value: v})
		return limit > 0 && len(out) >= limit, nil
	})
	return out, err
}

// Entry pairs a relative key with its value.
type Entry[V any] struct {
	Key   []byte
	Value V
}

// After returns the smallest key strictly greater than every key with prefix key,
// which turns an exclusive start_after bound into an inclusive iterator start.
func After(key []byte) []byte {
	return storetypes.PrefixEndBytes(key)
}
