// Package client calls the Fibonacci HTTP service.
package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/golang/protobuf/proto"
	"github.com/gopub/conv"
	"github.com/gopub/errors"
	"github.com/gopub/fibonacci/httpvalue"
	"github.com/gopub/log"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type timeoutReporter interface {
	Timeout() bool
}

type Client struct {
	client  *http.Client
	baseURL string
	header  http.Header

	RequestLogging bool
}

// New returns a client of the service at baseURL, e.g. http://127.0.0.1:3000. nil hc means http.DefaultClient.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		client:  hc,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		header:  make(http.Header),
	}
}

// Header is added to every request
func (c *Client) Header() http.Header {
	return c.header
}

// Fibonacci asks for the protobuf form of F(n)
func (c *Client) Fibonacci(ctx context.Context, n uint32) (uint32, error) {
	var v wrapperspb.UInt32Value
	if err := c.Get(ctx, indexPath("fibonacci", n), httpvalue.Protobuf, &v); err != nil {
		return 0, err
	}
	return v.GetValue(), nil
}

// FibonacciText returns "Fibonacci (<n>) = <result>"
func (c *Client) FibonacciText(ctx context.Context, n uint32) (string, error) {
	var s string
	err := c.Get(ctx, indexPath("fibonacci", n), httpvalue.Plain, &s)
	return s, err
}

// Age returns "You are <age> years old"
func (c *Client) Age(ctx context.Context, birthYear uint16) (string, error) {
	var s string
	err := c.Get(ctx, indexPath("age", birthYear), httpvalue.Plain, &s)
	return s, err
}

func (c *Client) ValidateEmail(ctx context.Context, address string) (bool, error) {
	var res struct {
		Email string `json:"email"`
		Valid bool   `json:"valid"`
	}
	if err := c.Get(ctx, "email/"+url.PathEscape(address), httpvalue.JSON, &res); err != nil {
		return false, err
	}
	return res.Valid, nil
}

func indexPath(prefix string, i interface{}) string {
	s, err := conv.ToString(i)
	if err != nil {
		log.Panicf("Convert %T to string: %v", i, err)
	}
	return prefix + "/" + s
}

// Get requests baseURL/path accepting the given media type and decodes the body into result
func (c *Client) Get(ctx context.Context, path string, accept string, result interface{}) error {
	endpoint := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrapf(err, "create request %s", endpoint)
	}
	if accept != "" {
		req.Header.Set(httpvalue.Accept, accept)
	}
	return c.Do(req, result)
}

// Do sends req and stores the response data into result
func (c *Client) Do(req *http.Request, result interface{}) error {
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.RequestLogging {
		c.dumpRequest(req)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		if tr, ok := err.(timeoutReporter); ok && tr.Timeout() {
			return errors.Format(http.StatusRequestTimeout, "do request: %v", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.Format(http.StatusRequestTimeout, "do request: %v", err)
		}
		return errors.Format(httpvalue.StatusTransportFailed, "do request: %v", err)
	}
	return DecodeResponse(resp, result)
}

func (c *Client) dumpRequest(req *http.Request) {
	l := log.FromContext(req.Context())
	if l == nil {
		l = log.Default()
	}
	data, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		l.Errorf("DumpRequestOut: %v", err)
		return
	}
	l.Debug(string(data))
}

// DecodeResponse turns a non-2xx status into an error with that status, otherwise it decodes the body by its content type
func DecodeResponse(resp *http.Response, result interface{}) error {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return errors.Wrapf(err, "read body")
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return errors.Format(resp.StatusCode, "%s", msg)
	}
	if result == nil {
		return nil
	}
	ct := httpvalue.GetContentType(resp.Header)
	switch {
	case strings.Contains(ct, httpvalue.JSON):
		if err = json.Unmarshal(body, result); err != nil {
			return errors.Wrapf(err, "unmarshal json")
		}
		return nil
	case strings.Contains(ct, httpvalue.Protobuf):
		m, ok := result.(proto.Message)
		if !ok {
			return errors.Format(http.StatusInternalServerError, "expected proto.Message instead of %T", result)
		}
		if err = proto.Unmarshal(body, m); err != nil {
			return errors.Wrapf(err, "unmarshal protobuf")
		}
		return nil
	case strings.Contains(ct, httpvalue.Plain):
		s, ok := result.(*string)
		if !ok {
			return errors.Format(http.StatusInternalServerError, "expected *string instead of %T", result)
		}
		*s = string(body)
		return nil
	default:
		return errors.Format(http.StatusInternalServerError, "unsupported content type %q", ct)
	}
}
