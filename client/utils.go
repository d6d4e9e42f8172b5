package client

import (
	"github.com/google/uuid"
)

// NewClientID returns a random (version 4) UUID suitable as client
// identifier.
func NewClientID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
