package fibonacci

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gopub/errors"
	"github.com/gopub/types"
)

// Request is a wrapper of http.Request with parsed path and query params
type Request struct {
	request *http.Request
	params  types.M
}

func newRequest(req *http.Request, pathParams map[string]string) *Request {
	params := readValues(req.URL.Query())
	for k, v := range pathParams {
		params[k] = v
	}
	return &Request{
		request: req,
		params:  params,
	}
}

func readValues(values url.Values) types.M {
	m := types.M{}
	for k, v := range values {
		k = strings.ToLower(k)
		if len(v) > 1 {
			m[k] = v
		} else if len(v) == 1 {
			m[k] = v[0]
		}
	}
	return m
}

// Request returns the raw http request
func (r *Request) Request() *http.Request {
	return r.request
}

// Params returns path params merged over query values
func (r *Request) Params() types.M {
	return r.params
}

func (r *Request) Header() http.Header {
	return r.request.Header
}

// Uint parses param name as a base-10 unsigned integer of bitSize bits.
// Leading zeros are decimal, signs and spaces are rejected with 400.
func (r *Request) Uint(name string, bitSize int) (uint64, error) {
	s := r.params.String(name)
	v, err := strconv.ParseUint(s, 10, bitSize)
	if err == nil {
		return v, nil
	}
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return 0, errors.BadRequest("invalid %s %q: expect an integer in [0, %d]", name, s, uint64(1)<<uint(bitSize)-1)
	}
	return 0, errors.BadRequest("invalid %s %q: expect a non-negative integer", name, s)
}
