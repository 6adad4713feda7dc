// Package ws answers Fibonacci requests over a WebSocket connection.
//
// Every text frame carries one JSON request and gets exactly one JSON reply:
//
//	-> {"id":1,"n":10}
//	<- {"id":1,"n":10,"result":55,"text":"Fibonacci (10) = 55"}
package ws

import (
	"net/http"

	"github.com/gopub/errors"
	"github.com/gopub/log"
)

var logger = log.Default()

func SetLogger(l *log.Logger) {
	logger = l
}

type Request struct {
	ID int64  `json:"id,omitempty"`
	N  uint32 `json:"n"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Err converts e into an error carrying e.Code
func (e *Error) Err() error {
	return errors.Format(e.Code, "%s", e.Message)
}

type Reply struct {
	ID     int64   `json:"id,omitempty"`
	N      *uint32 `json:"n,omitempty"`
	Result *uint32 `json:"result,omitempty"`
	Text   string  `json:"text,omitempty"`
	Error  *Error  `json:"error,omitempty"`
}

func newErrorReply(id int64, n *uint32, err error) *Reply {
	code := errors.GetCode(err)
	if code <= 0 {
		code = http.StatusInternalServerError
	}
	return &Reply{
		ID: id,
		N:  n,
		Error: &Error{
			Code:    code,
			Message: err.Error(),
		},
	}
}
