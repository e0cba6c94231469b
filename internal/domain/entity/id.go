package entity

import "strconv"

// ID is the primary key of an entity of type T.
// The zero value is the unassigned state: the entity has not been persisted yet,
// or an optional reference is not set. Assigned keys are always positive.
type ID[T any] struct {
	value int64
}

// AssignID wraps a key handed out by the storage layer.
// Non-positive keys yield an unassigned ID.
// Only persistence adapters should call this; callers never fabricate keys.
func AssignID[T any](v int64) ID[T] {
	if v <= 0 {
		return ID[T]{}
	}
	return ID[T]{value: v}
}

// Value returns the raw key and whether it is assigned.
func (id ID[T]) Value() (int64, bool) {
	return id.value, id.value > 0
}

// IsAssigned reports whether the key refers to a persisted row.
func (id ID[T]) IsAssigned() bool {
	return id.value > 0
}

// Int64 returns the raw key, or 0 when unassigned.
func (id ID[T]) Int64() int64 {
	return id.value
}

func (id ID[T]) String() string {
	if !id.IsAssigned() {
		return "unassigned"
	}
	return strconv.FormatInt(id.value, 10)
}
