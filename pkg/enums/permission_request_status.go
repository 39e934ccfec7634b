package enums

import "fmt"

// PermissionRequestStatus tracks the lifecycle of a scoped chat-permission request.
type PermissionRequestStatus string

const (
	PermissionRequestStatusPending  PermissionRequestStatus = "pending"
	PermissionRequestStatusApproved PermissionRequestStatus = "approved"
	PermissionRequestStatusRejected PermissionRequestStatus = "rejected"
	PermissionRequestStatusRevoked  PermissionRequestStatus = "revoked"
)

var validPermissionRequestStatuses = []PermissionRequestStatus{
	PermissionRequestStatusPending,
	PermissionRequestStatusApproved,
	PermissionRequestStatusRejected,
	PermissionRequestStatusRevoked,
}

// String implements fmt.Stringer.
func (p PermissionRequestStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PermissionRequestStatus.
func (p PermissionRequestStatus) IsValid() bool {
	for _, candidate := range validPermissionRequestStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermissionRequestStatus converts raw input into a PermissionRequestStatus.
func ParsePermissionRequestStatus(value string) (PermissionRequestStatus, error) {
	for _, candidate := range validPermissionRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission request status %q", value)
}
