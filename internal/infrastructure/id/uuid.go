package id

import "github.com/google/uuid"

// UUIDGenerator issues random (version 4) UUIDs in canonical string form.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
