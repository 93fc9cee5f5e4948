package core

// transitions lists the legal target states for each source state.
// paid and void have no entry: they are terminal.
var transitions = map[InvoiceStatus][]InvoiceStatus{
	StatusDraft: {StatusSent, StatusPaid, StatusVoid},
	StatusSent:  {StatusSent, StatusPaid, StatusVoid},
}

// ParseStatus validates a status string.
func ParseStatus(s string) (InvoiceStatus, error) {
	switch st := InvoiceStatus(s); st {
	case StatusDraft, StatusSent, StatusPaid, StatusVoid:
		return st, nil
	}
	return "", invalidf("status", "unknown status %q", s)
}

// IsTerminal reports whether no further status change is accepted.
func (s InvoiceStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusVoid
}

// Editable reports whether header and items may still be replaced.
func (s InvoiceStatus) Editable() bool {
	return s == StatusDraft || s == StatusSent
}

// CanTransition reports whether from → to is a legal lifecycle step.
// sent → sent is accepted so an already sent invoice can be sent again.
func CanTransition(from, to InvoiceStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition validates from → to and returns a *TransitionError when illegal.
func Transition(from, to InvoiceStatus) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// Sendable reports whether the invoice may be emailed or printed for the client.
func (s InvoiceStatus) Sendable() bool {
	return s == StatusDraft || s == StatusSent
}
