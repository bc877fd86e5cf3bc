package counter

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner    = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	stranger = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

const (
	fixtureInitial = 10
	fixtureMin     = 5
	fixtureMax     = 100000
)

func newFixture(t *testing.T) *Counter {
	t.Helper()
	c, err := New(owner, fixtureInitial, fixtureMin, fixtureMax)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func subscribe(t *testing.T, c *Counter) <-chan Event {
	t.Helper()
	ch := make(chan Event, 16)
	sub := c.Subscribe(ch)
	t.Cleanup(sub.Unsubscribe)
	return ch
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v", ev.Kind)
	default:
	}
}

func TestNew_RejectsInvalidRanges(t *testing.T) {
	tests := []struct {
		name             string
		initial, min, max int64
	}{
		{"initial below min", 4, 5, 10},
		{"initial above max", 11, 5, 10},
		{"min equals max", 5, 5, 5},
		{"min above max", 5, 1000000, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(owner, tt.initial, tt.min, tt.max)
			require.ErrorIs(t, err, ErrConstruction)

			var ctorErr *ConstructionError
			require.ErrorAs(t, err, &ctorErr)
			assert.Equal(t, tt.initial, ctorErr.InitialValue)
			assert.Equal(t, tt.min, ctorErr.Min)
			assert.Equal(t, tt.max, ctorErr.Max)
		})
	}
}

func TestNew_AcceptsBoundaries(t *testing.T) {
	for _, initial := range []int64{5, 10} {
		c, err := New(owner, initial, 5, 10)
		require.NoError(t, err)
		assert.Equal(t, initial, c.Value())
	}
}

func TestScenarioA_SetCounterOutOfRange(t *testing.T) {
	c := newFixture(t)
	events := subscribe(t, c)

	err := c.SetCounter(owner, 3)

	var rangeErr *OutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, OutOfRangeError{Min: 5, Max: 100000, Value: 3}, *rangeErr)
	assert.Equal(t, int64(fixtureInitial), c.Value())
	assertNoEvent(t, events)
}

func TestScenarioB_IncrementZero(t *testing.T) {
	c := newFixture(t)

	err := c.Increment(owner, 0)

	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "increment has to be positive", err.Error())
	assert.Equal(t, int64(fixtureInitial), c.Value())
}

func TestScenarioC_EvenDecrementHasNoReason(t *testing.T) {
	c := newFixture(t)

	err := c.Decrement(owner, 2)

	require.ErrorIs(t, err, ErrUnspecifiedFailure)
	data, ok := RevertData(err)
	require.True(t, ok)
	assert.Empty(t, data)
	assert.Equal(t, int64(fixtureInitial), c.Value())
}

func TestScenarioD_ResetCounterEmits(t *testing.T) {
	c := newFixture(t)
	events := subscribe(t, c)

	require.NoError(t, c.ResetCounter(owner))

	ev := nextEvent(t, events)
	assert.Equal(t, EventResetCounter, ev.Kind)
	assert.Equal(t, int64(fixtureInitial), c.Value())
}

func TestScenarioE_SetCounterEmitsAndReads(t *testing.T) {
	c := newFixture(t)
	events := subscribe(t, c)

	require.NoError(t, c.SetCounter(owner, 20))

	ev := nextEvent(t, events)
	assert.Equal(t, Event{Kind: EventSetCounter, NewValue: 20}, ev)
	assert.Equal(t, int64(20), c.Value())
}

func TestScenarioF_IncrementEmitsAmount(t *testing.T) {
	c := newFixture(t)
	events := subscribe(t, c)

	require.NoError(t, c.Increment(owner, 10))

	ev := nextEvent(t, events)
	assert.Equal(t, EventIncrement, ev.Kind)
	assert.Equal(t, int64(10), ev.Amount)
}

func TestDecrement(t *testing.T) {
	c := newFixture(t)
	events := subscribe(t, c)

	require.NoError(t, c.Decrement(owner, 5))
	assert.Equal(t, Event{Kind: EventDecrement, Amount: 5, NewValue: 5}, nextEvent(t, events))

	err := c.Decrement(owner, 1)
	var rangeErr *OutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, int64(4), rangeErr.Value)
	assert.Equal(t, int64(5), c.Value())

	err = c.Decrement(owner, -3)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "decrement has to be positive", err.Error())
}

func TestIncrement_PastMax(t *testing.T) {
	c := newFixture(t)

	err := c.Increment(owner, fixtureMax)

	var rangeErr *OutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, int64(fixtureMax+fixtureInitial), rangeErr.Value)
	assert.Equal(t, int64(fixtureInitial), c.Value())
}

func TestIncrement_Overflow(t *testing.T) {
	c, err := New(owner, math.MaxInt64-1, 0, math.MaxInt64)
	require.NoError(t, err)

	require.ErrorIs(t, c.Increment(owner, 5), ErrOutOfRange)
	require.NoError(t, c.Increment(owner, 1))
	assert.Equal(t, int64(math.MaxInt64), c.Value())
}

func TestSetCounter_Boundaries(t *testing.T) {
	c := newFixture(t)

	for _, v := range []int64{fixtureMin, fixtureMax} {
		require.NoError(t, c.SetCounter(owner, v))
		assert.Equal(t, v, c.Value())
	}

	var rangeErr *OutOfRangeError
	require.ErrorAs(t, c.SetCounter(owner, fixtureMax+1), &rangeErr)
	assert.Equal(t, OutOfRangeError{Min: fixtureMin, Max: fixtureMax, Value: fixtureMax + 1}, *rangeErr)

	require.ErrorAs(t, c.SetCounter(owner, fixtureMin-1), &rangeErr)
	assert.Equal(t, OutOfRangeError{Min: fixtureMin, Max: fixtureMax, Value: fixtureMin - 1}, *rangeErr)
}

func TestResetCounter_Idempotent(t *testing.T) {
	c := newFixture(t)
	require.NoError(t, c.SetCounter(owner, 777))

	require.NoError(t, c.ResetCounter(owner))
	first := c.Value()
	require.NoError(t, c.ResetCounter(owner))

	assert.Equal(t, first, c.Value())
	assert.Equal(t, int64(fixtureInitial), c.Value())
}

func TestMutations_RequireOwner(t *testing.T) {
	c := newFixture(t)
	events := subscribe(t, c)

	ops := map[string]func() error{
		"increment": func() error { return c.Increment(stranger, 1) },
		"decrement": func() error { return c.Decrement(stranger, 1) },
		"set":       func() error { return c.SetCounter(stranger, 20) },
		"reset":     func() error { return c.ResetCounter(stranger) },
	}
	for name, op := range ops {
		err := op()
		if !errors.Is(err, ErrNotOwner) {
			t.Fatalf("%s: expected ErrNotOwner, got %v", name, err)
		}
	}
	assert.Equal(t, int64(fixtureInitial), c.Value())
	assertNoEvent(t, events)
}

func TestRestore(t *testing.T) {
	c := newFixture(t)
	require.NoError(t, c.SetCounter(owner, 42))

	restored, err := Restore(c.State())
	require.NoError(t, err)
	assert.Equal(t, c.State(), restored.State())

	_, err = Restore(State{Owner: owner, Value: 1, Min: 5, Max: 10, InitialValue: 5})
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestConcurrentIncrements_StayInRange(t *testing.T) {
	c, err := New(owner, 0, 0, 500)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int64
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if c.Increment(owner, 1) == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(500), succeeded)
	assert.Equal(t, int64(500), c.Value())
}

func TestEventsArriveInOperationOrder(t *testing.T) {
	c := newFixture(t)
	events := subscribe(t, c)

	require.NoError(t, c.Increment(owner, 1))
	require.NoError(t, c.Decrement(owner, 3))
	require.NoError(t, c.SetCounter(owner, 50))
	require.NoError(t, c.ResetCounter(owner))

	want := []Event{
		{Kind: EventIncrement, Amount: 1, NewValue: 11},
		{Kind: EventDecrement, Amount: 3, NewValue: 8},
		{Kind: EventSetCounter, NewValue: 50},
		{Kind: EventResetCounter, NewValue: 10},
	}
	for _, w := range want {
		assert.Equal(t, w, nextEvent(t, events))
	}
}
