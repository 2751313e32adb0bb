package models

import "github.com/google/uuid"

// Address identifies a contact. A contact is only usable as a group member
// once its UID is known; Phone is a fallback handle that the recipient
// store may resolve.
type Address struct {
	UID   uuid.UUID
	Phone string
}

func (a Address) HasUID() bool {
	return a.UID != uuid.Nil
}

func (a Address) String() string {
	if a.HasUID() {
		return a.UID.String()
	}
	return a.Phone
}
