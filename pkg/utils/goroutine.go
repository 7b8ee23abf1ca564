package utils

import (
	"context"
	"log"
	"runtime/debug"

	"golang-ticker-analyzer/pkg/logger"
)

// GoSafe runs fn in a goroutine and recovers panics so one bad task cannot
// take the worker down.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("recovered from panic: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// ShouldContinue reports whether the context is still live, logging the reason
// when it is not.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	if err := ctx.Err(); err != nil {
		log.Debug("context finished, stopping work", logger.ErrorField(err))
		return false
	}
	return true
}
