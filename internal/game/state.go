package game

import "errors"

var (
	ErrBadDeck    = errors.New("deck must be a non-empty even number of cards")
	ErrNotWaiting = errors.New("game already started")
	ErrNotPlaying = errors.New("game is not in progress")
)

// State is the authoritative match state of one room. Every broadcast carries
// the whole struct as a snapshot, never a diff, so field names here are the
// wire names.
type State struct {
	Deck      []Card          `json:"cards"`
	Revealed  []int           `json:"revealedIndices"`
	Matched   map[string]bool `json:"matchedValues"`
	MatchedBy map[string]int  `json:"matchedByValue"`
	Turn      int             `json:"currentTurnPlayerIndex"`
	Status    Status          `json:"status"`
}

func NewState() State {
	return State{
		Deck:      []Card{},
		Revealed:  []int{},
		Matched:   map[string]bool{},
		MatchedBy: map[string]int{},
		Status:    StatusWaiting,
	}
}

// Start installs the host-supplied deck as-is and moves to playing. The deck
// arrangement is trusted; only its shape is checked so completion arithmetic
// cannot wedge.
func (s *State) Start(deck []Card) error {
	if s.Status != StatusWaiting {
		return ErrNotWaiting
	}
	if len(deck) == 0 || len(deck)%2 != 0 {
		return ErrBadDeck
	}
	s.Deck = deck
	s.Revealed = []int{}
	s.Matched = map[string]bool{}
	s.MatchedBy = map[string]int{}
	s.Turn = 0
	s.Status = StatusPlaying
	return nil
}

// Reset tears the match down to waiting. All collections are cleared so no
// playing-phase state survives into the lobby phase.
func (s *State) Reset() {
	s.Deck = []Card{}
	s.Revealed = []int{}
	s.Matched = map[string]bool{}
	s.MatchedBy = map[string]int{}
	s.Turn = 0
	s.Status = StatusWaiting
}

// CanFlip reports whether idx is currently flippable: in range, face-down,
// not already matched, and no resolution pending.
func (s *State) CanFlip(idx int) bool {
	if s.Status != StatusPlaying {
		return false
	}
	if idx < 0 || idx >= len(s.Deck) {
		return false
	}
	if len(s.Revealed) >= 2 {
		return false
	}
	for _, r := range s.Revealed {
		if r == idx {
			return false
		}
	}
	return !s.Matched[s.Deck[idx].Value]
}

// Flip turns idx face up. Callers check CanFlip first; Flip errors only on
// phase misuse.
func (s *State) Flip(idx int) error {
	if s.Status != StatusPlaying {
		return ErrNotPlaying
	}
	s.Revealed = append(s.Revealed, idx)
	return nil
}

// ResolutionPending reports whether two cards are face up awaiting Resolve.
func (s *State) ResolutionPending() bool {
	return s.Status == StatusPlaying && len(s.Revealed) == 2
}

// Resolve decides match/no-match for the two revealed cards. On a match the
// current player keeps the turn and the pair is recorded against them; on a
// miss the turn advances by one modulo playerCount. Returns the outcome and
// false when no resolution was pending.
func (s *State) Resolve(playerCount int) (Outcome, bool) {
	if !s.ResolutionPending() {
		return Outcome{}, false
	}
	a, b := s.Deck[s.Revealed[0]], s.Deck[s.Revealed[1]]
	s.Revealed = []int{}

	out := Outcome{ByPlayer: s.Turn}
	if a.Value == b.Value {
		out.Matched = true
		out.Value = a.Value
		s.Matched[a.Value] = true
		s.MatchedBy[a.Value] = s.Turn
		if len(s.Matched)*2 == len(s.Deck) {
			s.Status = StatusFinished
			out.Finished = true
		}
		return out, true
	}
	if playerCount > 0 {
		s.Turn = (s.Turn + 1) % playerCount
	}
	return out, true
}
