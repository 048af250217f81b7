package main

import (
	"errors"

	"github.com/photowall/engine/photowall"
)

// exitCodeFor maps a facade error to the process exit code a calling
// script can branch on.
func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}
	var perr *photowall.Error
	if !errors.As(err, &perr) {
		return exitInternal
	}
	switch perr.Kind {
	case photowall.ErrKindInvalidArgument:
		return exitInvalidArgs
	case photowall.ErrKindBusy:
		return exitLibraryBusy
	case photowall.ErrKindStorageUnavailable:
		return exitStorageUnavailable
	case photowall.ErrKindCancelled, photowall.ErrKindTimeout:
		return exitCancelled
	default:
		return exitInternal
	}
}
