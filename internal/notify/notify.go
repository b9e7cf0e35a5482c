package notify

// Sink receives named events for a session and pushes them to every observer
// subscribed to that session id. Delivery is fire-and-forget from the
// engine's perspective: the engine never blocks on it and never retries.
type Sink interface {
	Publish(sessionID, event string, payload any)
}

// NopSink discards every event. Used by tests and tools that run the engine
// without connected observers.
type NopSink struct{}

func (NopSink) Publish(string, string, any) {}
