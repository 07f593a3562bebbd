package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainwf "github.com/garyjia/admissions-flow/internal/domain/workflow"
)

// kindInvalidRequest marks requests that could not be decoded
const kindInvalidRequest = "invalid_request"

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error       string `json:"error"`
	Kind        string `json:"kind"`
	CurrentStep string `json:"current_step,omitempty"`
}

var statusByKind = map[domainwf.Kind]int{
	domainwf.KindNotFound:        http.StatusNotFound,
	domainwf.KindUnknownStep:     http.StatusBadRequest,
	domainwf.KindMissingField:    http.StatusBadRequest,
	domainwf.KindInvalidFormat:   http.StatusBadRequest,
	domainwf.KindMustBeFuture:    http.StatusBadRequest,
	domainwf.KindDateMismatch:    http.StatusBadRequest,
	domainwf.KindOutOfOrder:      http.StatusConflict,
	domainwf.KindApplicantClosed: http.StatusConflict,
}

// StatusFor returns the HTTP status of an application error
func StatusFor(err error) int {
	if status, ok := statusByKind[domainwf.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError renders err. Internal errors are logged and their detail hidden.
func (h *Handlers) writeError(c *gin.Context, err error) {
	kind := domainwf.KindOf(err)
	status := StatusFor(err)

	resp := ErrorResponse{Error: err.Error(), Kind: string(kind)}

	var ooo *domainwf.OutOfOrderError
	if errors.As(err, &ooo) {
		resp.CurrentStep = ooo.Current
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"path", c.Request.URL.Path,
			"request_id", c.GetString(requestIDKey),
			"error", err,
		)
		resp.Error = "internal server error"
	}

	c.JSON(status, resp)
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Kind: kindInvalidRequest})
}
