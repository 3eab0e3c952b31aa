package logging

import (
	stderrors "errors"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/changectx/internal/errors"
)

// DebugFailure records a run-ending error at debug level with its category and,
// for typed errors, the detailed form including context and stack trace.
// The one-line message for the user is printed by the caller.
func DebugFailure(log logrus.FieldLogger, err error) {
	if err == nil {
		return
	}

	entry := log.WithError(err).WithField("error_type", errors.GetType(err).String())

	var typed *errors.Error
	if stderrors.As(err, &typed) {
		entry.Debug("run failed\n" + typed.DetailedString())
		return
	}
	entry.Debug("run failed")
}
