package archival

import (
	pkgerrors "github.com/angelmondragon/settlement-archiver/pkg/errors"
)

// Class tells an entry point whether a failed event must stop consumption.
type Class string

const (
	// Fatal failures recur on every redelivery, such as schema drift or a
	// programming error.
	Fatal Class = "fatal"
	// Transient failures come from downstream outages.
	Transient Class = "transient"
)

// Classify maps an error to its class. Errors without a known code are
// fatal.
func Classify(err error) Class {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeRenderFailed, pkgerrors.CodeArchiveRejected, pkgerrors.CodeDependency:
		return Transient
	default:
		return Fatal
	}
}
