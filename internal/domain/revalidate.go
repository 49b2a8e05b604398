package domain

import "time"

// RevalidateEvent tells every instance and browser that a cached path is stale.
type RevalidateEvent struct {
	Type   string    `json:"type"`
	Path   string    `json:"path"`
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

const RevalidateEventType = "revalidate"
