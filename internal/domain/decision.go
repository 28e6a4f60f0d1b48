package domain

// DecisionAction is the outcome of a route guard evaluation.
type DecisionAction string

const (
	// DecisionAllow passes the request through unchanged.
	DecisionAllow DecisionAction = "allow"

	// DecisionRedirect sends the client to the login page.
	DecisionRedirect DecisionAction = "redirect"
)

// Decision is computed per request by the route guard. It is never stored.
type Decision struct {
	Action   DecisionAction
	Location string // Redirect target; empty for allow
}

// Allow is the pass-through decision.
func Allow() Decision {
	return Decision{Action: DecisionAllow}
}

// RedirectTo creates a redirect decision.
func RedirectTo(location string) Decision {
	return Decision{Action: DecisionRedirect, Location: location}
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Action == DecisionAllow
}
