package station

// CanTransition reports whether an administrator may move a station from one
// verification state to another. Decisions only ever target verified or
// rejected; re-applying the current state is allowed and changes nothing.
func CanTransition(from, to VerificationStatus) bool {
	if !from.Valid() {
		return false
	}
	switch to {
	case VerificationVerified, VerificationRejected:
		return true
	default:
		return false
	}
}

// NextDecision returns the decision offered to an administrator for a
// station already decided: verified flips to rejected and vice versa.
// Pending stations have no single next decision.
func NextDecision(current VerificationStatus) (VerificationStatus, bool) {
	switch current {
	case VerificationVerified:
		return VerificationRejected, true
	case VerificationRejected:
		return VerificationVerified, true
	default:
		return "", false
	}
}

// Decisions lists the statuses an administrator can move a station to.
func Decisions(current VerificationStatus) []VerificationStatus {
	if next, ok := NextDecision(current); ok {
		return []VerificationStatus{next}
	}
	return []VerificationStatus{VerificationVerified, VerificationRejected}
}
