package kura

import "reflect"

// MaxEventTypes defines the maximum number of unique event types that can be
// registered in an EventBus.
const MaxEventTypes = 64

// EventBus is the observer list of a Store. Handlers subscribe to an event
// type and are called synchronously, in subscription order, at the point a
// mutation has completed.
//
// Publish is allocation free. When nothing is subscribed it returns after a
// single counter check, so mutations pay nothing for an unused bus.
type EventBus struct {
	eventTypeMap    map[reflect.Type]uint8
	handlers        [MaxEventTypes][]handlerSlot
	nextHandle      uint64
	subscriptions   int
	nextEventTypeID uint8
}

type handlerSlot struct {
	fn     any
	handle uint64
}

// Subscription identifies a subscribed handler. Unsubscribe removes it.
type Subscription struct {
	bus    *EventBus
	handle uint64
	typeID uint8
}

// Subscribe registers a handler function to be called when an event of type
// `T` is published. Handlers are stored in the order they are subscribed.
func Subscribe[T any](bus *EventBus, handler func(T)) Subscription {
	id := bus.getEventTypeID(reflect.TypeFor[T]())
	bus.nextHandle++
	hs := bus.handlers[id]
	// copy on write: a Publish in progress keeps iterating its own snapshot
	next := make([]handlerSlot, len(hs), len(hs)+1)
	copy(next, hs)
	bus.handlers[id] = append(next, handlerSlot{fn: handler, handle: bus.nextHandle})
	bus.subscriptions++
	return Subscription{bus: bus, handle: bus.nextHandle, typeID: id}
}

// Unsubscribe removes the handler. It returns false if the handler was
// already removed.
func (s Subscription) Unsubscribe() bool {
	if s.bus == nil {
		return false
	}
	hs := s.bus.handlers[s.typeID]
	for i, h := range hs {
		if h.handle != s.handle {
			continue
		}
		next := make([]handlerSlot, 0, len(hs)-1)
		next = append(next, hs[:i]...)
		next = append(next, hs[i+1:]...)
		s.bus.handlers[s.typeID] = next
		s.bus.subscriptions--
		return true
	}
	return false
}

// Publish broadcasts an event of type `T` to all registered handlers for that
// type. The handlers are called synchronously in the order they were subscribed.
func Publish[T any](bus *EventBus, event T) {
	if bus.subscriptions == 0 {
		return
	}
	if id, ok := bus.eventTypeMap[reflect.TypeFor[T]()]; ok {
		for _, h := range bus.handlers[id] {
			h.fn.(func(T))(event)
		}
	}
}

// getEventTypeID retrieves or assigns an ID for the event type.
func (bus *EventBus) getEventTypeID(t reflect.Type) uint8 {
	if bus.eventTypeMap == nil {
		bus.eventTypeMap = make(map[reflect.Type]uint8)
	}
	if id, ok := bus.eventTypeMap[t]; ok {
		return id
	}
	if int(bus.nextEventTypeID) >= MaxEventTypes {
		panic("kura: too many event types")
	}
	id := bus.nextEventTypeID
	bus.nextEventTypeID++
	bus.eventTypeMap[t] = id
	return id
}
