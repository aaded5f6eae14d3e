//go:build libpostal

package postal

import (
	parser "github.com/openvenues/gopostal/parser"
)

func parse(address string) ([]Component, error) {
	parsed := parser.ParseAddress(address)
	components := make([]Component, 0, len(parsed))
	for _, p := range parsed {
		components = append(components, Component{Label: p.Label, Value: p.Value})
	}
	return components, nil
}
