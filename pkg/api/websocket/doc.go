// Package websocket streams engine lifecycle events to connected clients.
//
// The handler subscribes to the event fabric on connect and forwards every
// event as a JSON message. Slow clients never block the engine: events are
// buffered per connection and dropped when the buffer is full.
package websocket
