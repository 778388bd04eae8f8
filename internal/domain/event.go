package domain

import "time"

// Event is a scheduled therapy session. It owns the RoomID that voice
// participants rendezvous on; the coordinator itself never reads this record.
type Event struct {
	ID        string    `json:"id"`
	RoomID    RoomID    `json:"roomId"`
	OwnerID   UserID    `json:"ownerId"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"startsAt"`
	CreatedAt time.Time `json:"createdAt"`
}
