// Package storage provides the ticket store boundary and its
// implementations.
//
// The store keeps each ticket as a field map under the key ticket:{id} and
// allocates ids from an atomic counter at the key ticket:id. Two
// implementations are provided: a Redis-backed store for deployments and an
// in-process sharded store for tests and single-node use.
//
// Basic usage:
//
//	store := storage.NewMemory()
//	id, err := store.NextID(ctx)
//	err = store.SetFields(ctx, id, fields)
//
// All implementations are safe for concurrent use from arbitrarily many
// sessions; coordination is delegated to Redis's atomic primitives or to
// per-shard locks.
package storage
