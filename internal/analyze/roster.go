// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

// Roster is the ordered list of model identifiers and the position of the
// one currently in use. It only moves forward. Analyze takes a Roster and
// returns the possibly advanced one; callers pass that value to the next
// call so a model that ran out of quota is never retried within a run.
type Roster struct {
	models []string
	pos    int
}

// NewRoster starts a roster at its first model.
func NewRoster(models []string) Roster {
	return Roster{models: append([]string(nil), models...)}
}

// Current returns the model in use, or false when the roster is exhausted.
func (r Roster) Current() (string, bool) {
	if r.Exhausted() {
		return "", false
	}
	return r.models[r.pos], true
}

// Advance returns the roster moved to the next model.
func (r Roster) Advance() Roster {
	if !r.Exhausted() {
		r.pos++
	}
	return r
}

// Exhausted reports whether every model has been given up on.
func (r Roster) Exhausted() bool {
	return r.pos >= len(r.models)
}

// Remaining returns how many models, including the current one, are left.
func (r Roster) Remaining() int {
	return len(r.models) - r.pos
}
