package core

// Conn is a live connection as seen by the core layer. The transport owns
// the socket; the core only routes events into the buffered channel.
type Conn struct {
	ID     string
	Events chan Event
}

// NewConn constructs a connection handle with an initialized event channel.
func NewConn(id string) *Conn {
	return &Conn{
		ID:     id,
		Events: make(chan Event, 16),
	}
}
