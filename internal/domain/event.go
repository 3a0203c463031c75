package domain

type EventType string

const (
	EventOverlayCreated EventType = "OVERLAY_CREATED"
	EventOverlayUpdated EventType = "OVERLAY_UPDATED"
	EventOverlayRemoved EventType = "OVERLAY_REMOVED"
)

// Event announces that the overlay list changed.
type Event struct {
	Type      EventType `json:"type"`
	OverlayID string    `json:"overlay_id"`
}
