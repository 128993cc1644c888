package memory

import (
	"reflect"
	"sync"

	"github.com/aescanero/dagflow/pkg/domain"
	"go.uber.org/zap"
)

// EventManager is a synchronous in-process event fabric.
//
// Notify invokes every listener registered for the event's kind in
// registration order, on the caller's goroutine. A listener that panics is
// logged and skipped; the remaining listeners still run and nothing
// propagates to the notifier.
type EventManager struct {
	logger *zap.Logger

	mu        sync.RWMutex
	listeners map[domain.EventKind][]domain.Listener
}

// NewEventManager creates an empty event fabric.
func NewEventManager(logger *zap.Logger) *EventManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventManager{
		logger:    logger,
		listeners: make(map[domain.EventKind][]domain.Listener),
	}
}

// Register subscribes l to events of the given kind. Registering the
// identical listener twice for the same kind is a no-op.
func (m *EventManager) Register(kind domain.EventKind, l domain.Listener) {
	if l == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.listeners[kind] {
		if sameListener(existing, l) {
			return
		}
	}
	m.listeners[kind] = append(m.listeners[kind], l)
}

// Unregister removes l from the given kind. Unknown listeners are ignored.
func (m *EventManager) Unregister(kind domain.EventKind, l domain.Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.listeners[kind]
	for i, existing := range current {
		if sameListener(existing, l) {
			m.listeners[kind] = append(current[:i:i], current[i+1:]...)
			return
		}
	}
}

// Notify delivers e to every listener registered for e.Kind.
func (m *EventManager) Notify(e domain.Event) {
	m.mu.RLock()
	targets := make([]domain.Listener, len(m.listeners[e.Kind]))
	copy(targets, m.listeners[e.Kind])
	m.mu.RUnlock()

	for _, l := range targets {
		m.dispatch(l, e)
	}
}

// dispatch isolates a single listener call so an observer fault cannot
// reach the orchestration path.
func (m *EventManager) dispatch(l domain.Listener, e domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("event listener panicked",
				zap.String("kind", string(e.Kind)),
				zap.Any("panic", r))
		}
	}()

	l.HandleEvent(e)
}

// sameListener reports listener identity. Interface equality covers
// comparable listener types; function-backed listeners (which are not
// comparable) are identified by code pointer.
func sameListener(a, b domain.Listener) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
