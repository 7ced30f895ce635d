package chat

import "time"

// Status describes whether a session is waiting on the completion endpoint.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSending Status = "sending"
)

// Snapshot is a read-only copy of a session handed to presentation layers.
type Snapshot struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Status    Status    `json:"status"`
	Turns     []Turn    `json:"turns"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Latest returns the newest turn, if any.
func (s Snapshot) Latest() (Turn, bool) {
	if len(s.Turns) == 0 {
		return Turn{}, false
	}
	return s.Turns[len(s.Turns)-1], true
}
