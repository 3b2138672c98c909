package marketdata

import (
	"fmt"
	"sync"
)

// FrameHandler processes frames of one type from the feed
type FrameHandler interface {
	// HandleFrame processes a single decoded frame
	HandleFrame(frame *Frame) error

	// GetFrameType returns the frame type this handler consumes
	GetFrameType() string
}

// Dispatcher routes incoming frames to registered handlers by frame type
type Dispatcher struct {
	handlers map[string]FrameHandler
	mu       sync.RWMutex
}

// NewDispatcher creates a new Dispatcher instance
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]FrameHandler),
	}
}

// Register registers a handler for its frame type
func (d *Dispatcher) Register(handler FrameHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[handler.GetFrameType()] = handler
	fmt.Printf("📦 Registered frame handler: %s\n", handler.GetFrameType())
}

// Unregister removes the handler for a frame type
func (d *Dispatcher) Unregister(frameType string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.handlers, frameType)
}

// GetHandler returns the handler for a frame type
func (d *Dispatcher) GetHandler(frameType string) (FrameHandler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	handler, exists := d.handlers[frameType]
	return handler, exists
}

// Dispatch routes a frame to its handler. Heartbeat frames only refresh
// the connection and are dropped here.
func (d *Dispatcher) Dispatch(frame *Frame) error {
	if frame == nil {
		return fmt.Errorf("cannot dispatch nil frame")
	}

	if frame.Type == FrameTypeHeartbeat {
		return nil
	}

	handler, exists := d.GetHandler(frame.Type)
	if !exists {
		return fmt.Errorf("no handler for frame type '%s'", frame.Type)
	}

	return handler.HandleFrame(frame)
}

// ListHandlers returns the registered frame types
func (d *Dispatcher) ListHandlers() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}
