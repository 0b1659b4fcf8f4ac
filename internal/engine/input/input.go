// Package input turns SDL2 events into viewer events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies a viewer event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX float32 // Relative motion or wheel scroll
	DeltaY float32
	Button uint8
}

// Input handles all input processing.
type Input struct {
	events []Event
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events and converts them to viewer events.
// Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		ev, ok := Translate(event)
		if !ok {
			continue
		}
		i.events = append(i.events, ev)
		if ev.Type == EventQuit {
			return true
		}
	}

	return false
}

// Translate converts one SDL event. Key repeats and unhandled event kinds
// are dropped.
func Translate(event sdl.Event) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED || e.Event == sdl.WINDOWEVENT_RESIZED {
			return Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			}, true
		}

	case *sdl.KeyboardEvent:
		if e.Repeat != 0 {
			return Event{}, false
		}
		if e.Type == sdl.KEYDOWN {
			return Event{Type: EventKeyDown, Key: e.Keysym.Scancode}, true
		} else if e.Type == sdl.KEYUP {
			return Event{Type: EventKeyUp, Key: e.Keysym.Scancode}, true
		}

	case *sdl.MouseMotionEvent:
		return Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DeltaX: float32(e.XRel),
			DeltaY: float32(e.YRel),
		}, true

	case *sdl.MouseButtonEvent:
		t := EventMouseUp
		if e.Type == sdl.MOUSEBUTTONDOWN {
			t = EventMouseDown
		}
		return Event{
			Type:   t,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			Button: e.Button,
		}, true

	case *sdl.MouseWheelEvent:
		return Event{
			Type:   EventMouseWheel,
			DeltaX: float32(e.X),
			DeltaY: float32(e.Y),
		}, true
	}
	return Event{}, false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// KeyState reports whether a key is currently held.
func KeyState(scancode sdl.Scancode) bool {
	state := sdl.GetKeyboardState()
	return int(scancode) < len(state) && state[scancode] != 0
}
