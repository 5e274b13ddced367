package models

import "github.com/google/uuid"

// assignID fills a zero primary key so rows are addressable before the insert
// round-trips, which lets a transaction link children to a parent it just created.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
