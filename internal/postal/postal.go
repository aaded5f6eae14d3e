// Package postal splits addresses into labelled components with libpostal.
// Without the libpostal build tag every call returns ErrUnavailable.
package postal

import (
	"errors"
	"strings"
)

// ErrUnavailable is returned when the binary was built without libpostal
var ErrUnavailable = errors.New("postal: built without libpostal support")

// Component is one labelled part of an address, e.g. city or road
type Component struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Labels that identify the administrative area of an address, most specific first
var AreaLabels = []string{"city_district", "suburb", "city", "state_district"}

// Parse splits address into components
func Parse(address string) ([]Component, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}
	return parse(address)
}

// Pick returns the value of the first label present in components
func Pick(components []Component, labels ...string) string {
	for _, label := range labels {
		for _, c := range components {
			if c.Label == label && c.Value != "" {
				return c.Value
			}
		}
	}
	return ""
}
