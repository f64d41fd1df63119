package progress

import "time"

// Event is one progress update on a job. Progress is 0-100 and
// non-decreasing over a job's lifetime; Stage is a free-form label.
type Event struct {
	JobID     string    `json:"job_id"`
	VideoID   string    `json:"video_id,omitempty"`
	Progress  int       `json:"progress"`
	Stage     string    `json:"stage"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher fans a progress event out to whoever is listening on a
// channel. Delivery is best effort: a publisher error must never fail the
// job that produced the event, so implementations log and move on.
type Publisher interface {
	Publish(channel string, ev Event) error
	Close()
}

// UserChannel is the per-user subject progress events are published on.
func UserChannel(userID string) string {
	return "user." + userID
}

// Noop is the publisher used when no broker is configured.
type Noop struct{}

func (Noop) Publish(string, Event) error { return nil }
func (Noop) Close()                      {}
