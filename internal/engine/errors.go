package engine

import "errors"

// Engine sentinel errors. ErrUnknownType signals a configuration defect (a
// caller asked for a type the registry does not declare) and is never the
// result of missing document signal. ErrPartitionViolation signals a grouping
// defect and fails the whole batch rather than reporting corrupt groups.
var (
	ErrUnknownType        = errors.New("unregistered document type")
	ErrPartitionViolation = errors.New("grouping partition violation")
)
