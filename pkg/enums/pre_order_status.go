package enums

import "fmt"

// PreOrderStatus tracks the lifecycle of a deferred purchase for an
// out-of-stock title. delivered and cancelled are terminal.
type PreOrderStatus string

const (
	PreOrderStatusPending   PreOrderStatus = "pending"
	PreOrderStatusConfirmed PreOrderStatus = "confirmed"
	PreOrderStatusAvailable PreOrderStatus = "available"
	PreOrderStatusShipped   PreOrderStatus = "shipped"
	PreOrderStatusDelivered PreOrderStatus = "delivered"
	PreOrderStatusCancelled PreOrderStatus = "cancelled"
)

var validPreOrderStatuses = []PreOrderStatus{
	PreOrderStatusPending,
	PreOrderStatusConfirmed,
	PreOrderStatusAvailable,
	PreOrderStatusShipped,
	PreOrderStatusDelivered,
	PreOrderStatusCancelled,
}

var preOrderTransitions = map[PreOrderStatus][]PreOrderStatus{
	PreOrderStatusPending:   {PreOrderStatusConfirmed, PreOrderStatusCancelled},
	PreOrderStatusConfirmed: {PreOrderStatusAvailable, PreOrderStatusCancelled},
	PreOrderStatusAvailable: {PreOrderStatusShipped, PreOrderStatusCancelled},
	PreOrderStatusShipped:   {PreOrderStatusDelivered, PreOrderStatusCancelled},
}

// String implements fmt.Stringer.
func (p PreOrderStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PreOrderStatus.
func (p PreOrderStatus) IsValid() bool {
	for _, candidate := range validPreOrderStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (p PreOrderStatus) IsTerminal() bool {
	return p == PreOrderStatusDelivered || p == PreOrderStatusCancelled
}

// CanTransitionTo reports whether the transition is allowed by the state machine.
func (p PreOrderStatus) CanTransitionTo(next PreOrderStatus) bool {
	for _, candidate := range preOrderTransitions[p] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParsePreOrderStatus converts raw input into a PreOrderStatus.
func ParsePreOrderStatus(value string) (PreOrderStatus, error) {
	for _, candidate := range validPreOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pre-order status %q", value)
}
