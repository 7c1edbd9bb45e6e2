// pkg/stream/interface.go
package stream

import "context"

// Connector describes the low-level exchange WebSocket connector.
type Connector interface {
	Stream(ctx context.Context) (<-chan RawFrame, error)
	Close() error
}

// RawFrame represents a classified WebSocket frame.
type RawFrame struct {
	Data []byte // JSON frame payload
	Type string // e.g. depth, ticker
}
