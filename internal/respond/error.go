package respond

import (
	"encoding/json"
	"net/http"

	"github.com/gopub/errors"
	"github.com/gopub/fibonacci/fib"
	"github.com/gopub/fibonacci/httpvalue"
	"github.com/gopub/fibonacci/utility"
)

// errorResult carries the bounds of range errors so JSON clients need not parse messages
type errorResult struct {
	Code    int    `json:"code"`
	Message string `json:"message"`

	Index    *uint32 `json:"index,omitempty"`
	MaxIndex *uint32 `json:"max_index,omitempty"`

	Year          *uint16 `json:"year,omitempty"`
	ReferenceYear *uint16 `json:"reference_year,omitempty"`
}

func newErrorResult(code int, err error) *errorResult {
	r := &errorResult{
		Code:    code,
		Message: err.Error(),
	}
	switch e := err.(type) {
	case *fib.RangeError:
		index, maxIndex := e.Index, fib.MaxIndex
		r.Index, r.MaxIndex = &index, &maxIndex
	case *utility.YearError:
		year, ref := e.Year, utility.ReferenceYear
		r.Year, r.ReferenceYear = &year, &ref
	}
	return r
}

func (r *errorResult) MediaTypes() []string {
	return []string{httpvalue.Plain, httpvalue.JSON}
}

func (r *errorResult) Render(mediaType string) ([]byte, error) {
	if mediaType == httpvalue.JSON {
		return json.Marshal(r)
	}
	return []byte(r.Message), nil
}

// Error renders err with the status it carries, or 500
func Error(h http.Header, err error) *Response {
	code := errors.GetCode(err)
	if !httpvalue.IsValidStatus(code) {
		code = http.StatusInternalServerError
	}
	return Negotiate(h, code, newErrorResult(code, err))
}
