//go:build !libpostal

package postal

func parse(string) ([]Component, error) {
	return nil, ErrUnavailable
}
