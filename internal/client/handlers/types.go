package handlers

import "github.com/gin-gonic/gin"

// Machine-readable codes carried in every control-plane envelope.
const (
	CodeSyncStarted      string = "SYNC_STARTED"
	CodeBadRequest       string = "BAD_REQUEST"
	CodeNotFound         string = "NOT_FOUND"
	CodeMethodNotAllowed string = "METHOD_NOT_ALLOWED"
	CodeSyncRunning      string = "SYNC_RUNNING"
	CodeInternal         string = "INTERNAL"
)

// Reply acknowledges a request with a status code only.
type Reply struct {
	Code string `json:"code"`
}

// ErrorReply is the envelope for every failed control-plane request.
type ErrorReply struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

// Reject stops the handler chain and writes the error envelope. The
// error is also attached to the context for the access log.
func Reject(c *gin.Context, status int, code string, err error) {
	_ = c.Error(err)
	c.Abort()
	c.PureJSON(status, ErrorReply{
		Code:    code,
		Message: err.Error(),
	})
}
