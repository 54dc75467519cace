package game

import "encoding/json"

// Status is the phase of a match.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Card is one entry of the deck. The engine only compares Value; Display is
// whatever theme payload the host's client supplied and is passed through
// untouched.
type Card struct {
	Value   string          `json:"value"`
	Display json.RawMessage `json:"display,omitempty"`
}

// Outcome is the result of resolving two revealed cards.
type Outcome struct {
	Matched  bool   `json:"matched"`
	Value    string `json:"value,omitempty"`
	ByPlayer int    `json:"byPlayer"`
	Finished bool   `json:"finished"`
}
