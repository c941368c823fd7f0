package services

const (
	StatusCart       = "cart"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

type StateKind int

const (
	StateCart StateKind = iota
	StateProcessing
	StateFulfillment
	StateCancelled
)

func (k StateKind) String() string {
	switch k {
	case StateCart:
		return "cart"
	case StateProcessing:
		return "processing"
	case StateCancelled:
		return "cancelled"
	default:
		return "fulfillment"
	}
}

// OrderState is the lifecycle view of a persisted status name. Any name other than
// cart, processing and cancelled is a fulfillment step such as shipped or delivered.
type OrderState struct {
	Kind StateKind
	Name string
}

func ParseState(name string) OrderState {
	switch name {
	case StatusCart:
		return OrderState{Kind: StateCart, Name: name}
	case StatusProcessing:
		return OrderState{Kind: StateProcessing, Name: name}
	case StatusCancelled:
		return OrderState{Kind: StateCancelled, Name: name}
	default:
		return OrderState{Kind: StateFulfillment, Name: name}
	}
}

func (s OrderState) IsCart() bool {
	return s.Kind == StateCart
}

func (s OrderState) CanCancel() bool {
	return s.Kind == StateProcessing
}

// CanTransitionTo reports whether a bill may move from s to next outside of checkout.
// cart -> processing happens only through checkout and is rejected here.
func (s OrderState) CanTransitionTo(next OrderState) bool {
	switch s.Kind {
	case StateProcessing:
		return next.Kind == StateFulfillment || next.Kind == StateCancelled
	case StateFulfillment:
		return next.Kind == StateFulfillment && next.Name != s.Name
	default:
		return false
	}
}
