package enums

import "fmt"

// AccessRequestStatus tracks the lifecycle of a global chat-access request.
// Unlike scoped permission requests, access requests are never revoked; an
// admin decision is terminal.
type AccessRequestStatus string

const (
	AccessRequestStatusPending  AccessRequestStatus = "pending"
	AccessRequestStatusApproved AccessRequestStatus = "approved"
	AccessRequestStatusRejected AccessRequestStatus = "rejected"
)

var validAccessRequestStatuses = []AccessRequestStatus{
	AccessRequestStatusPending,
	AccessRequestStatusApproved,
	AccessRequestStatusRejected,
}

// String implements fmt.Stringer.
func (a AccessRequestStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AccessRequestStatus.
func (a AccessRequestStatus) IsValid() bool {
	for _, candidate := range validAccessRequestStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsDecision reports whether the value is a terminal admin decision.
func (a AccessRequestStatus) IsDecision() bool {
	return a == AccessRequestStatusApproved || a == AccessRequestStatusRejected
}

// ParseAccessRequestStatus converts raw input into an AccessRequestStatus.
func ParseAccessRequestStatus(value string) (AccessRequestStatus, error) {
	for _, candidate := range validAccessRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid access request status %q", value)
}
