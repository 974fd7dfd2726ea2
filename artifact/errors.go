package artifact

import "fmt"

var (
	// ErrNotFound is returned when a blob with the given name does not exist
	// in the underlying store.
	ErrNotFound = fmt.Errorf("artifact not found")
)
