// Package counter implements the bounded counter state machine.
//
// A Counter holds a value that always stays within the closed range [min, max]
// fixed at construction. Every mutating operation is gated on the owner passed
// to New and either applies completely or leaves the state untouched.
package counter

import (
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// State is a point-in-time copy of a Counter.
type State struct {
	Owner        common.Address `json:"owner"`
	Value        int64          `json:"value"`
	Min          int64          `json:"min"`
	Max          int64          `json:"max"`
	InitialValue int64          `json:"initialValue"`
}

// Counter is safe for concurrent use. Operations are serialized, so observers
// see each one complete before the next starts.
type Counter struct {
	// opMu serializes mutating operations including event delivery.
	opMu sync.Mutex

	mu      sync.RWMutex
	owner   common.Address
	value   int64
	min     int64
	max     int64
	initial int64

	feed  event.Feed
	scope event.SubscriptionScope
}

// New creates a counter with value initialValue bounded by [min, max].
func New(owner common.Address, initialValue, min, max int64) (*Counter, error) {
	if min >= max || initialValue < min || initialValue > max {
		return nil, &ConstructionError{InitialValue: initialValue, Min: min, Max: max}
	}
	return &Counter{
		owner:   owner,
		value:   initialValue,
		min:     min,
		max:     max,
		initial: initialValue,
	}, nil
}

// Restore rebuilds a counter from a State, re-checking the bound invariant.
func Restore(s State) (*Counter, error) {
	c, err := New(s.Owner, s.InitialValue, s.Min, s.Max)
	if err != nil {
		return nil, err
	}
	if s.Value < s.Min || s.Value > s.Max {
		return nil, &OutOfRangeError{Min: s.Min, Max: s.Max, Value: s.Value}
	}
	c.value = s.Value
	return c, nil
}

// Increment adds amount to the value.
func (c *Counter) Increment(caller common.Address, amount int64) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.checkOwner(caller); err != nil {
		return err
	}
	if amount <= 0 {
		return &InvalidArgumentError{Reason: "increment has to be positive"}
	}

	c.mu.Lock()
	next, ok := checkedAdd(c.value, amount)
	if !ok || next > c.max {
		err := &OutOfRangeError{Min: c.min, Max: c.max, Value: next}
		c.mu.Unlock()
		return err
	}
	c.value = next
	newValue := c.value
	c.mu.Unlock()

	c.feed.Send(Event{Kind: EventIncrement, Amount: amount, NewValue: newValue})
	return nil
}

// Decrement subtracts amount from the value. Only odd amounts are accepted;
// an even amount fails with ErrUnspecifiedFailure, which carries no reason.
func (c *Counter) Decrement(caller common.Address, amount int64) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.checkOwner(caller); err != nil {
		return err
	}
	if amount <= 0 {
		return &InvalidArgumentError{Reason: "decrement has to be positive"}
	}
	if amount%2 == 0 {
		return ErrUnspecifiedFailure
	}

	c.mu.Lock()
	next, ok := checkedAdd(c.value, -amount)
	if !ok || next < c.min {
		err := &OutOfRangeError{Min: c.min, Max: c.max, Value: next}
		c.mu.Unlock()
		return err
	}
	c.value = next
	newValue := c.value
	c.mu.Unlock()

	c.feed.Send(Event{Kind: EventDecrement, Amount: amount, NewValue: newValue})
	return nil
}

// SetCounter assigns newValue directly.
func (c *Counter) SetCounter(caller common.Address, newValue int64) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.checkOwner(caller); err != nil {
		return err
	}

	c.mu.Lock()
	if newValue < c.min || newValue > c.max {
		err := &OutOfRangeError{Min: c.min, Max: c.max, Value: newValue}
		c.mu.Unlock()
		return err
	}
	c.value = newValue
	c.mu.Unlock()

	c.feed.Send(Event{Kind: EventSetCounter, NewValue: newValue})
	return nil
}

// ResetCounter restores the value passed at construction.
func (c *Counter) ResetCounter(caller common.Address) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.checkOwner(caller); err != nil {
		return err
	}

	c.mu.Lock()
	c.value = c.initial
	newValue := c.value
	c.mu.Unlock()

	c.feed.Send(Event{Kind: EventResetCounter, NewValue: newValue})
	return nil
}

// Value returns the current value.
func (c *Counter) Value() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Min returns the lower bound.
func (c *Counter) Min() int64 { return c.min }

// Max returns the upper bound.
func (c *Counter) Max() int64 { return c.max }

// InitialValue returns the value passed at construction.
func (c *Counter) InitialValue() int64 { return c.initial }

// Owner returns the only address allowed to mutate the counter.
func (c *Counter) Owner() common.Address { return c.owner }

// State returns a copy of the counter state.
func (c *Counter) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{
		Owner:        c.owner,
		Value:        c.value,
		Min:          c.min,
		Max:          c.max,
		InitialValue: c.initial,
	}
}

// Subscribe registers ch for events of successful operations. Events are sent
// synchronously while the operation still holds the counter, so a subscriber
// must not call mutating methods from the goroutine draining ch.
func (c *Counter) Subscribe(ch chan<- Event) event.Subscription {
	return c.scope.Track(c.feed.Subscribe(ch))
}

// Close ends all subscriptions.
func (c *Counter) Close() {
	c.scope.Close()
}

func (c *Counter) checkOwner(caller common.Address) error {
	if caller != c.owner {
		return &NotOwnerError{Caller: caller, Owner: c.owner}
	}
	return nil
}

// checkedAdd returns a+b, saturated at the int64 limits when it overflows.
func checkedAdd(a, b int64) (int64, bool) {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64, false
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64, false
	}
	return a + b, true
}
