package oauth

import "sync"

// session holds the outcome of one flow. The first resolve wins; later
// attempts from a racing callback, timeout or interrupt are dropped.
type session struct {
	once    sync.Once
	outcome chan CallbackOutcome
}

func newSession() *session {
	return &session{outcome: make(chan CallbackOutcome, 1)}
}

// resolve records o if the session is still open and reports whether it did.
func (s *session) resolve(o CallbackOutcome) bool {
	won := false
	s.once.Do(func() {
		won = true
		s.outcome <- o
	})
	return won
}

// result returns the recorded outcome, or one with Kind OutcomeNone if the
// session was never resolved. It must only be called once the listener has
// stopped.
func (s *session) result() CallbackOutcome {
	select {
	case o := <-s.outcome:
		return o
	default:
		return CallbackOutcome{Kind: OutcomeNone}
	}
}
