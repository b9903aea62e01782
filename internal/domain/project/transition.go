package project

// MaxURILength bounds proposal and report URIs.
const MaxURILength = 2048

// ValidateURI checks a document pointer. URIs are opaque; only length is checked.
func ValidateURI(field, uri string) error {
	if uri == "" {
		return newError(KindInvalidArgument, "%s required", field)
	}
	if len(uri) > MaxURILength {
		return newError(KindInvalidArgument, "%s exceeds %d bytes", field, MaxURILength)
	}
	return nil
}

// ValidateTransition validates moving a project from one status to another.
// Checks run in a fixed order and the first failure is returned.
func ValidateTransition(from, to Status, reportURI string) error {
	if from.Terminal() {
		return newError(KindInvalidState, "project already finalized")
	}
	if !to.Valid() {
		return newError(KindInvalidArgument, "unknown status %d", uint8(to))
	}
	if to == StatusUpcoming {
		return newError(KindInvalidArgument, "cannot move project back to upcoming")
	}
	if to.Terminal() {
		if reportURI == "" {
			return newError(KindInvalidArgument, "report required")
		}
		if err := ValidateURI("report uri", reportURI); err != nil {
			return err
		}
	}
	return nil
}

// AllowedTransitions lists the statuses reachable from s in one step.
// Ongoing may be re-declared while ongoing.
func AllowedTransitions(s Status) []Status {
	switch s {
	case StatusUpcoming, StatusOngoing:
		return []Status{StatusOngoing, StatusCompleted, StatusCancelled}
	default:
		return nil
	}
}

// advance returns p moved to status to. The report is only recorded for
// terminal statuses.
func (p Project) advance(to Status, reportURI string) Project {
	next := p
	next.Status = to
	if to.Terminal() {
		next.ReportURI = reportURI
	}
	return next
}
