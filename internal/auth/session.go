package auth

// State is the lock state of a session.
type State int

const (
	Locked State = iota
	Unlocked
)

func (s State) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

// Session starts Locked, becomes Unlocked on a correct secret and returns
// to Locked only through Lock.
type Session struct {
	gate  *Gate
	state State
	role  string
	actor string
}

// NewSession returns a locked session guarded by g.
func NewSession(g *Gate) *Session {
	return &Session{gate: g}
}

// Unlock checks supplied against the gate. On failure the session stays
// in its current state.
func (s *Session) Unlock(supplied, actor string) error {
	role, err := s.gate.Check(supplied)
	if err != nil {
		return err
	}
	s.state = Unlocked
	s.role = role
	s.actor = actor
	return nil
}

// Lock ends the session.
func (s *Session) Lock() {
	s.state = Locked
	s.role = ""
	s.actor = ""
}

func (s *Session) State() State   { return s.state }
func (s *Session) Unlocked() bool { return s.state == Unlocked }
func (s *Session) Role() string   { return s.role }
func (s *Session) Actor() string  { return s.actor }
