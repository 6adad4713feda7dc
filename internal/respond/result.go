package respond

import (
	"encoding/json"
	"net/http"

	"github.com/gopub/fibonacci/httpvalue"
)

// Result is computed by a route and rendered on demand
type Result interface {
	// MediaTypes lists the supported media types, the first one is the default
	MediaTypes() []string
	Render(mediaType string) ([]byte, error)
}

// Negotiate renders result as the media type preferred by h's Accept header.
// Render failures become 500.
func Negotiate(h http.Header, status int, result Result) *Response {
	mediaType := httpvalue.Negotiate(h, result.MediaTypes()...)
	body, err := result.Render(mediaType)
	if err != nil {
		logger.Errorf("Render %T as %s: %v", result, mediaType, err)
		return Text(http.StatusInternalServerError, err.Error())
	}
	return newResponse(status, mediaType, body)
}

// Text sends text, or the status text when text is empty
func Text(status int, text string) *Response {
	if text == "" {
		text = http.StatusText(status)
	}
	return newResponse(status, httpvalue.Plain, []byte(text))
}

func Status(status int) *Response {
	return Text(status, "")
}

// JSON marshals v, failing with 500 when v is not marshalable
func JSON(status int, v interface{}) *Response {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("Marshal %T: %v", v, err)
		return Text(http.StatusInternalServerError, err.Error())
	}
	return newResponse(status, httpvalue.JSON, b)
}
