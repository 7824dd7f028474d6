package order

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// validTransitions is the only place the lifecycle is defined. The first entry
// of each list is the forward step on the fulfilment chain.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {}, // terminal state
	StatusCancelled:  {}, // terminal state
}

var labels = map[Status]string{
	StatusPending:    "Pending",
	StatusConfirmed:  "Confirmed",
	StatusProcessing: "Processing",
	StatusShipped:    "Shipped",
	StatusDelivered:  "Delivered",
	StatusCancelled:  "Cancelled",
}

// AllStatuses lists every status in lifecycle order
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusConfirmed,
		StatusProcessing,
		StatusShipped,
		StatusDelivered,
		StatusCancelled,
	}
}

// ParseStatus accepts a status name in any letter case
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// Label is the human-readable name shown for a status
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return "Unknown"
}

func (s Status) IsTerminal() bool {
	return s.Valid() && len(validTransitions[s]) == 0
}

// NextStatus returns the successor of s on the fulfilment chain
func NextStatus(s Status) (Status, bool) {
	allowed := validTransitions[s]
	if len(allowed) == 0 || allowed[0] == StatusCancelled {
		return "", false
	}
	return allowed[0], true
}

// CanTransition reports whether an order in from may move to to
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func transitionError(from, to Status) error {
	switch {
	case from == StatusCancelled:
		return ErrOrderCancelled
	case from == StatusDelivered:
		return ErrOrderDelivered
	case from == StatusShipped && to == StatusCancelled:
		return ErrOrderShipped
	default:
		return fmt.Errorf("%w: cannot move from %s to %s", ErrIllegalTransition, from, to)
	}
}
