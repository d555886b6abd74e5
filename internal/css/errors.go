package css

import "errors"

// ErrUnknownClass indicates a utility string that does not map to any
// known utility within the scope.
var ErrUnknownClass = errors.New("unknown utility class")
