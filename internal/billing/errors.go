// Package billing extracts AWS Lambda cost figures from invocation
// logs and computes the dollar bill for a run, including the "orca"
// variant that additionally bills S3/Redis up/down transfer (spec.md
// §9 supplemental feature, recovered from the log-analysis half of
// the original implementation).
package billing

import "errors"

// ErrLogFormat is returned when a log line is missing one of the four
// required fields.
var ErrLogFormat = errors.New("billing: log line missing a required field")
