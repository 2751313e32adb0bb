// Package models holds the records kept by the reference server.
package models

import (
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
)

// Account is a registered account. Verifier is the SHA-256 of the client
// side account key; the password never reaches the server.
type Account struct {
	UID       uuid.UUID
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
	Profile   *Profile
}

// Profile is what an account published about itself. Name is opaque to the
// server.
type Profile struct {
	Name       []byte
	Version    string
	Commitment zkgroup.ProfileKeyCommitment
}
