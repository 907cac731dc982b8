package country

import "errors"

// ErrNotFound is returned when no country matches a lookup or delete
var ErrNotFound = errors.New("country not found")
