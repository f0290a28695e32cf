package app

import (
	"strings"

	"github.com/go-errors/errors"

	"spifb/hal"
)

// recoverPanic turns a panic in the frame loop into an error and logs its
// stack line by line.
func recoverPanic(log hal.Logger, err *error) {
	r := recover()
	if r == nil {
		return
	}
	e := errors.Wrap(r, 2)
	hal.Logf(log, "spifb panic: %v", r)
	for _, line := range strings.Split(string(e.Stack()), "\n") {
		if line == "" {
			continue
		}
		hal.Logf(log, "%s", line)
	}
	*err = e
}
