package restaurant

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrNoCandidates is returned when a pick is attempted over an empty list.
var ErrNoCandidates = errors.New("no candidates to pick from")

// Picker selects one candidate uniformly at random. Each entry has equal
// probability; a duplicated name carries double weight.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker creates a new picker.
func NewPicker() *Picker {
	return &Picker{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Pick returns one of the candidates. Callers must short-circuit on an empty
// search result before reaching the picker.
func (p *Picker) Pick(candidates []Candidate) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, ErrNoCandidates
	}

	p.mu.Lock()
	i := p.rng.Intn(len(candidates))
	p.mu.Unlock()

	return candidates[i], nil
}
