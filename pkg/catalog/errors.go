package catalog

import "errors"

var (
	// ErrQueryFailed wraps a failure reading the scheduled_tasks table.
	ErrQueryFailed = errors.New("catalog: query failed")

	// ErrInvalidDocument wraps a YAML parse failure.
	ErrInvalidDocument = errors.New("catalog: invalid document")
)
