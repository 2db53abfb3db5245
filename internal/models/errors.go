package models

import "fmt"

// NotFoundError reports an operation against a record that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InvalidStateError reports an operation that is not valid in the record's
// current lifecycle state, e.g. snoozing a reminder that is already done.
type InvalidStateError struct {
	Resource string
	ID       string
	Reason   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Resource, e.ID, e.Reason)
}

// InvalidTransitionError reports an illegal notification status transition.
// State is left unchanged when it is returned.
type InvalidTransitionError struct {
	From NotificationStatus
	To   NotificationStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid notification transition %s -> %s", e.From, e.To)
}

// InvalidRuleError reports a recurrence rule that fails its invariants.
type InvalidRuleError struct {
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return "invalid recurrence rule: " + e.Reason
}
