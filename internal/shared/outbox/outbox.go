package outbox

// Row lifecycle shared by every outbox implementation. Rows are written
// Pending inside the same transaction as the state change; the worker relay
// flips them to Published after the bus accepts the event.
const (
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusFailed    = "failed"
)

// Message is the persisted outbox row the relay reads and publishes.
type Message struct {
	ID         string
	EventType  string
	Payload    []byte
	Status     string
	RetryCount int
}
