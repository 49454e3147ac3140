package gitlab

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed GitLab call.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindIssueNotFound: the lookup matched no issue in the project.
	KindIssueNotFound
	// KindAmbiguousIssue: the lookup matched more than one issue, which means
	// the project scope is misconfigured.
	KindAmbiguousIssue
	// KindRejected: GitLab answered with an unexpected status.
	KindRejected
	// KindConnectivity: no response was received.
	KindConnectivity
)

func (k ErrorKind) String() string {
	switch k {
	case KindIssueNotFound:
		return "issue not found"
	case KindAmbiguousIssue:
		return "ambiguous issue"
	case KindRejected:
		return "rejected"
	case KindConnectivity:
		return "connection error"
	default:
		return "unknown"
	}
}

// Error is a classified GitLab failure for one issue.
type Error struct {
	Kind       ErrorKind
	IssueID    string
	StatusCode int
	Body       string
	Matches    int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindIssueNotFound:
		return fmt.Sprintf("can't find issue #%s", e.IssueID)
	case KindAmbiguousIssue:
		return fmt.Sprintf("more than one issue (%d) found with iid #%s, check gitlab.project_id", e.Matches, e.IssueID)
	case KindRejected:
		msg := fmt.Sprintf("gitlab rejected request for issue #%s: status %d", e.IssueID, e.StatusCode)
		if e.Body != "" {
			msg += ": " + e.Body
		}
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return msg
	case KindConnectivity:
		return fmt.Sprintf("connection error for issue #%s: %v", e.IssueID, e.Err)
	default:
		return fmt.Sprintf("gitlab error for issue #%s: %v", e.IssueID, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Kind returns the kind of the first *Error in err's chain.
func Kind(err error) ErrorKind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err must abort the whole run. Missing issues are
// skipped and connection errors only end the current day.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch Kind(err) {
	case KindIssueNotFound, KindConnectivity:
		return false
	default:
		return true
	}
}
