package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
)

const (
	// HeaderFeedSeq carries the change feed sequence of a committed write. Clients compare
	// it with indexed_through from /search to know when the write is searchable.
	HeaderFeedSeq = "X-Feed-Seq"
	HeaderEditID  = "X-Edit-Id"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope is the body of every non-2xx response: {"error":{"message","code"}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func AbortWithError(c *gin.Context, status int, code string, err error) {
	RespondError(c, status, code, err)
	c.Abort()
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondCommitted renders a successful aggregate write. The receipt's sequence goes into
// both the body ("seq") and the X-Feed-Seq header.
func RespondCommitted(c *gin.Context, status int, receipt domainagg.Receipt, payload gin.H) {
	if payload == nil {
		payload = gin.H{}
	}
	payload["seq"] = receipt.Seq
	c.Header(HeaderFeedSeq, strconv.FormatInt(receipt.Seq, 10))
	if receipt.EditID != uuid.Nil {
		c.Header(HeaderEditID, receipt.EditID.String())
	}
	c.JSON(status, payload)
}
