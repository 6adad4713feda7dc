package httpvalue

import (
	"net/http"
	"strings"

	"github.com/gopub/conv"
)

const (
	Accept          = "Accept"
	AcceptEncoding  = "Accept-Encoding"
	ContentType     = "Content-Type"
	ContentEncoding = "Content-Encoding"
	Server          = "Server"
	Upgrade         = "Upgrade"
	RequestID       = "X-Request-Id"
)

// GetContentType returns the media type of h's Content-Type without parameters
func GetContentType(h http.Header) string {
	t := h.Get(ContentType)
	for i, ch := range t {
		if ch == ' ' || ch == ';' {
			t = t[:i]
			break
		}
	}
	return t
}

type acceptItem struct {
	mediaType string
	q         float64
}

func parseAccept(h http.Header) []acceptItem {
	var l []acceptItem
	for _, v := range h.Values(Accept) {
		for _, item := range strings.Split(v, ",") {
			params := strings.Split(item, ";")
			a := acceptItem{
				mediaType: strings.ToLower(strings.TrimSpace(params[0])),
				q:         1,
			}
			if a.mediaType == "" {
				continue
			}
			for _, p := range params[1:] {
				p = strings.TrimSpace(p)
				if !strings.HasPrefix(p, "q=") {
					continue
				}
				if q, err := conv.ToFloat64(p[2:]); err == nil {
					a.q = q
				}
			}
			l = append(l, a)
		}
	}
	return l
}

// match returns the position of the most specific item covering mediaType, or -1
func match(items []acceptItem, mediaType string) int {
	typ := mediaType
	if i := strings.IndexByte(mediaType, '/'); i >= 0 {
		typ = mediaType[:i]
	}
	for _, pattern := range []string{mediaType, typ + "/*", "*/*"} {
		for i, item := range items {
			if item.mediaType == pattern {
				return i
			}
		}
	}
	return -1
}

// Negotiate returns the offer with the highest quality in h's Accept header.
// Ties go to the offer listed first in Accept, then to the first offer.
// offers[0] is the default when Accept is empty or matches no offer.
func Negotiate(h http.Header, offers ...string) string {
	if len(offers) == 0 {
		return ""
	}
	items := parseAccept(h)
	best, bestQ, bestPos := offers[0], 0.0, len(items)
	for _, offer := range offers {
		i := match(items, offer)
		if i < 0 || items[i].q <= 0 {
			continue
		}
		if q := items[i].q; q > bestQ || (q == bestQ && i < bestPos) {
			best, bestQ, bestPos = offer, q, i
		}
	}
	return best
}
