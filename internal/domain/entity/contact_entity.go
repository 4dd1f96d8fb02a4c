package entity

import (
	"time"
)

// Contact is an owned address-book entry. Email and phone are unique across
// the table; Birthday only matters as (month, day) for recurrence queries.
type Contact struct {
	ID             int64
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Birthday       time.Time
	AdditionalData string
	OwnerID        int64
}
