package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/erazemk/biotrack/internal/errs"
)

// statusError is a failure with the HTTP status it is reported with.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string { return e.message }

var errVersionMismatch = &statusError{http.StatusConflict, "expected version doesn't match current version"}

func notFound(what, id string) error {
	return &statusError{http.StatusNotFound, fmt.Sprintf("%s not found: %s", what, id)}
}

func badRequest(format string, args ...any) error {
	return &statusError{http.StatusBadRequest, fmt.Sprintf(format, args...)}
}

// writeError reports err. Rule violations detected by the shared shipment
// checks are bad requests carrying the underlying reason.
func writeError(w http.ResponseWriter, err error) {
	var se *statusError
	if errors.As(err, &se) {
		jsonError(w, se.status, se.message)
		return
	}
	if e, ok := errs.As(err); ok && e.Local() {
		msg := e.Message
		if e.Err != nil {
			msg = e.Err.Error()
		}
		jsonError(w, http.StatusBadRequest, msg)
		return
	}
	jsonError(w, http.StatusInternalServerError, "internal error")
}
