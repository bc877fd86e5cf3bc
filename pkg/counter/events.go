package counter

// EventKind names a counter notification.
type EventKind uint8

const (
	EventIncrement EventKind = iota + 1
	EventDecrement
	EventSetCounter
	EventResetCounter
)

func (k EventKind) String() string {
	switch k {
	case EventIncrement:
		return "Increment"
	case EventDecrement:
		return "Decrement"
	case EventSetCounter:
		return "SetCounter"
	case EventResetCounter:
		return "ResetCounter"
	default:
		return "Unknown"
	}
}

// Event is emitted after every successful mutating operation.
// Amount is only meaningful for Increment and Decrement.
type Event struct {
	Kind     EventKind
	Amount   int64
	NewValue int64
}
