package metrics

import "time"

// Login outcomes
const (
	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid"
	OutcomeUnauthorized = "unauthorized"
	OutcomeUnavailable  = "unavailable"
	OutcomeConflict     = "conflict"
)

// LoginAttempt records the outcome of one login submission.
func LoginAttempt(outcome string) {
	LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

// IdentityCall records how long the identity service took to answer.
func IdentityCall(provider string, duration time.Duration) {
	IdentityCallDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// GuardDecision records a route guard decision on a protected path.
func GuardDecision(decision string) {
	RouteGuardDecisionsTotal.WithLabelValues(decision).Inc()
}

// GalleryUploaded records a gallery upload result ("stored" or "failed").
func GalleryUploaded(status string) {
	GalleryUploadsTotal.WithLabelValues(status).Inc()
}
