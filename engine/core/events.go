package core

import (
	"sync"
	"sync/atomic"
)

// System internal event codes. Application should use codes beyond 255.
type EventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01
	// Keyboard key pressed. Data is *KeyEvent.
	EVENT_CODE_KEY_PRESSED EventCode = 0x02
	// Keyboard key released. Data is *KeyEvent.
	EVENT_CODE_KEY_RELEASED EventCode = 0x03
	// Framebuffer resized by the OS. Data is *SystemEvent.
	EVENT_CODE_RESIZED EventCode = 0x08

	MAX_EVENT_CODE EventCode = 0xFF
)

type EventContext struct {
	Type EventCode
	Data interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

type FnOnEvent func(context EventContext)

type eventSystemState struct {
	mu         sync.RWMutex
	registered map[EventCode][]FnOnEvent
}

// EventFire may run on any goroutine, so the state is swapped atomically.
var eventState atomic.Pointer[eventSystemState]

func EventSystemInitialize() bool {
	return eventState.CompareAndSwap(nil, &eventSystemState{
		registered: make(map[EventCode][]FnOnEvent),
	})
}

func EventSystemShutdown() {
	eventState.Store(nil)
}

// EventRegister adds a listener for code. Listeners are invoked in
// registration order on the goroutine that fires the event.
func EventRegister(code EventCode, onEvent FnOnEvent) bool {
	state := eventState.Load()
	if state == nil || onEvent == nil {
		return false
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	state.registered[code] = append(state.registered[code], onEvent)
	return true
}

// EventFire dispatches synchronously. Returns false when nothing listens on the code.
func EventFire(context EventContext) bool {
	state := eventState.Load()
	if state == nil {
		return false
	}
	state.mu.RLock()
	listeners := state.registered[context.Type]
	state.mu.RUnlock()

	if len(listeners) == 0 {
		return false
	}
	for _, l := range listeners {
		l(context)
	}
	return true
}
