package enums

import "fmt"

// CustomerFilter narrows the customer directory listing.
type CustomerFilter string

const (
	CustomerFilterAll     CustomerFilter = "all"
	CustomerFilterVIP     CustomerFilter = "vip"
	CustomerFilterRegular CustomerFilter = "regular"
	CustomerFilterRecent  CustomerFilter = "recent"
)

var validCustomerFilters = []CustomerFilter{
	CustomerFilterAll,
	CustomerFilterVIP,
	CustomerFilterRegular,
	CustomerFilterRecent,
}

// String implements fmt.Stringer.
func (c CustomerFilter) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CustomerFilter.
func (c CustomerFilter) IsValid() bool {
	for _, candidate := range validCustomerFilters {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCustomerFilter converts raw input into a CustomerFilter. Empty input means all.
func ParseCustomerFilter(value string) (CustomerFilter, error) {
	if value == "" {
		return CustomerFilterAll, nil
	}
	for _, candidate := range validCustomerFilters {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer filter %q", value)
}
