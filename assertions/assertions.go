package assertions

import (
	"sync/atomic"

	"github.com/antithesishq/antithesis-sdk-go/assert"
)

var enabled atomic.Bool

func SetEnabled(on bool) {
	enabled.Store(on)
}

func Enabled() bool {
	return enabled.Load()
}

func Always(condition bool, message string, details map[string]any) {
	if enabled.Load() {
		assert.Always(condition, message, details)
	}
}

func Sometimes(condition bool, message string, details map[string]any) {
	if enabled.Load() {
		assert.Sometimes(condition, message, details)
	}
}

func Reachable(message string, details map[string]any) {
	if enabled.Load() {
		assert.Reachable(message, details)
	}
}

// Unreachable flags code paths that must never run, such as a mined
// receipt that reports failure without an error.
func Unreachable(message string, details map[string]any) {
	if enabled.Load() {
		assert.Unreachable(message, details)
	}
}
