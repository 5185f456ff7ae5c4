package student

import "errors"

var ErrNotFound = errors.New("student not found")

// Student is reference data; its ID is assigned by the school, not by us.
type Student struct {
	ID    string
	NIS   string
	Name  string
	Class string
}
