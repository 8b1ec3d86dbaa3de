package handlers

import (
	"net/http"

	apperrors "github.com/miminai/mimin/internal/errors"
)

// ErrorResponder writes err as an error envelope response.
type ErrorResponder func(http.ResponseWriter, *http.Request, error)

var httpErrorResponder ErrorResponder = apperrors.RespondWithError

// SetHTTPErrorResponder routes handler errors through the server's central
// error handler. Nil restores the default envelope writer.
func SetHTTPErrorResponder(responder ErrorResponder) {
	if responder == nil {
		responder = apperrors.RespondWithError
	}
	httpErrorResponder = responder
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	httpErrorResponder(w, r, err)
}
