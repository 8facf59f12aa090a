package track

// what changed in a store
type EventKind string

const (
	EventLoaded   EventKind = "loaded"
	EventParsed   EventKind = "parsed"
	EventReplaced EventKind = "replaced"
	EventEdited   EventKind = "edited"
	EventReset    EventKind = "reset"
)

// delivered to subscribers after every mutation; Slot is empty for resets
type Event struct {
	Slot    Slot
	Kind    EventKind
	Version uint64
	Len     int
}

// Subscribe registers fn for mutation events and returns a function that
// removes it. fn runs on the mutating goroutine, outside the store lock,
// so it may call back into the store.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) emit(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
