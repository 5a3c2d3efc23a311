package event

// Handler Each kind of event has his own handler
// Based on the Chain of responsibility pattern
type Handler interface {
	Handle(event Event)
}

// Recorder keeps the figures handlers extract from technical events.
type Recorder interface {
	IncrWorkerRestarts()
	IncrSessionsEvicted()
	RecordChannel(name string, length, capacity int)
	RecordProcess(cpu float64, rss uint64, goroutines int)
}
