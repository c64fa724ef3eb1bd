package types

import "strings"

// Address is the free-form shipping or billing address captured at checkout.
// The service only enforces a minimum length; formatting is up to the caller.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// String flattens the address into a single comparable line.
func (a Address) String() string {
	parts := make([]string, 0, 6)
	for _, part := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, strings.TrimSpace(part))
		}
	}
	return strings.Join(parts, ", ")
}

// IsZero reports whether every field is empty.
func (a Address) IsZero() bool {
	return a.String() == ""
}
