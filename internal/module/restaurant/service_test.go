package restaurant

import (
	"context"
	"testing"

	"github.com/dinnerpicker/server/internal/module/spin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGate struct {
	allowed   bool
	remaining int
	consumed  int
}

func (g *fakeGate) CanUse(context.Context, string) (*spin.QuotaStatus, error) {
	return &spin.QuotaStatus{Allowed: g.allowed, Remaining: g.remaining}, nil
}

func (g *fakeGate) Consume(context.Context, string) (int, error) {
	if g.remaining <= 0 {
		return 0, spin.ErrNoSpinsRemaining
	}
	g.remaining--
	g.consumed++
	return g.remaining, nil
}

type fakeFinder struct {
	candidates []Candidate
	calls      int
}

func (f *fakeFinder) Find(context.Context, Location, float64, string) []Candidate {
	f.calls++
	return f.candidates
}

type fakeEnricher struct {
	details *Details
	err     error
}

func (f *fakeEnricher) Enrich(context.Context, string) (*Details, error) {
	return f.details, f.err
}

func newFlowService(gate *fakeGate, finder *fakeFinder) *Service {
	return NewService(gate, finder, NewPicker(), &fakeEnricher{}, zap.NewNop(), nil)
}

func TestService_Pick_Success(t *testing.T) {
	gate := &fakeGate{allowed: true, remaining: 3}
	finder := &fakeFinder{candidates: []Candidate{{Name: "A"}, {Name: "B"}}}
	svc := newFlowService(gate, finder)

	result, err := svc.Pick(context.Background(), "u1", Location{Latitude: 40, Longitude: -74}, 5, "Italian")
	require.NoError(t, err)
	assert.Contains(t, []string{"A", "B"}, result.Restaurant.Name)
	assert.Equal(t, 2, result.SpinsRemaining)
	assert.Equal(t, 1, gate.consumed)
}

func TestService_Pick_QuotaExhaustedBeforeSearch(t *testing.T) {
	gate := &fakeGate{allowed: false, remaining: 0}
	finder := &fakeFinder{candidates: []Candidate{{Name: "A"}}}
	svc := newFlowService(gate, finder)

	_, err := svc.Pick(context.Background(), "u1", Location{}, 5, "")
	assert.ErrorIs(t, err, spin.ErrNoSpinsRemaining)
	assert.Zero(t, finder.calls, "search must not run for an exhausted user")
	assert.Zero(t, gate.consumed)
}

// An empty search result costs nothing: consumption is charged only after a
// successful pick.
func TestService_Pick_NoResultsSpendsNoSpin(t *testing.T) {
	gate := &fakeGate{allowed: true, remaining: 3}
	finder := &fakeFinder{}
	svc := newFlowService(gate, finder)

	_, err := svc.Pick(context.Background(), "u1", Location{Latitude: 40, Longitude: -74}, 5, "Italian")
	assert.ErrorIs(t, err, ErrNoRestaurantsFound)
	assert.Equal(t, 1, finder.calls)
	assert.Zero(t, gate.consumed)
	assert.Equal(t, 3, gate.remaining)
}

// Two requests can both pass the quota check before either consumes; the
// loser of the race surfaces quota exhaustion from the consume step.
func TestService_Pick_ConsumeRace(t *testing.T) {
	gate := &fakeGate{allowed: true, remaining: 0}
	finder := &fakeFinder{candidates: []Candidate{{Name: "A"}}}
	svc := newFlowService(gate, finder)

	_, err := svc.Pick(context.Background(), "u1", Location{}, 5, "")
	assert.ErrorIs(t, err, spin.ErrNoSpinsRemaining)
}

func TestService_Details_Delegates(t *testing.T) {
	enricher := &fakeEnricher{details: &Details{Address: "somewhere"}}
	svc := NewService(&fakeGate{}, &fakeFinder{}, NewPicker(), enricher, zap.NewNop(), nil)

	details, err := svc.Details(context.Background(), "Trattoria Roma")
	require.NoError(t, err)
	assert.Equal(t, "somewhere", details.Address)
}
