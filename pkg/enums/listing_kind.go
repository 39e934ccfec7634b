package enums

import "fmt"

// ListingKind distinguishes the two listing families a conversation can target.
type ListingKind string

const (
	ListingKindJob       ListingKind = "job"
	ListingKindMachinery ListingKind = "machinery"
)

var validListingKinds = []ListingKind{
	ListingKindJob,
	ListingKindMachinery,
}

// String implements fmt.Stringer.
func (l ListingKind) String() string {
	return string(l)
}

// IsValid reports whether the value is a known ListingKind.
func (l ListingKind) IsValid() bool {
	for _, candidate := range validListingKinds {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseListingKind converts raw input into a ListingKind.
func ParseListingKind(value string) (ListingKind, error) {
	for _, candidate := range validListingKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing kind %q", value)
}
