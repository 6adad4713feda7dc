package respond

import (
	"encoding/json"
	"fmt"

	"github.com/golang/protobuf/proto"
	"github.com/gopub/fibonacci/fib"
	"github.com/gopub/fibonacci/httpvalue"
	"github.com/gopub/fibonacci/utility"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Fibonacci is F(N). Protobuf bodies are google.protobuf.UInt32Value.
type Fibonacci struct {
	N      uint32 `json:"n"`
	Result uint32 `json:"result"`
}

func (f *Fibonacci) MediaTypes() []string {
	return []string{httpvalue.Plain, httpvalue.JSON, httpvalue.Protobuf}
}

func (f *Fibonacci) Render(mediaType string) ([]byte, error) {
	switch mediaType {
	case httpvalue.JSON:
		return json.Marshal(f)
	case httpvalue.Protobuf:
		return proto.Marshal(wrapperspb.UInt32(f.Result))
	default:
		return []byte(fib.Text(f.N, f.Result)), nil
	}
}

type Age struct {
	BirthYear uint16 `json:"birth_year"`
	Age       uint16 `json:"age"`
}

func (a *Age) MediaTypes() []string {
	return []string{httpvalue.Plain, httpvalue.JSON}
}

func (a *Age) Render(mediaType string) ([]byte, error) {
	if mediaType == httpvalue.JSON {
		return json.Marshal(a)
	}
	return []byte(utility.AgeMessage(a.Age)), nil
}

// Email answers JSON unless text is preferred
type Email struct {
	Email string `json:"email"`
	Valid bool   `json:"valid"`
}

func (e *Email) MediaTypes() []string {
	return []string{httpvalue.JSON, httpvalue.Plain}
}

func (e *Email) Render(mediaType string) ([]byte, error) {
	if mediaType == httpvalue.Plain {
		if e.Valid {
			return []byte(fmt.Sprintf("%s is a valid email address", e.Email)), nil
		}
		return []byte(fmt.Sprintf("%s is not a valid email address", e.Email)), nil
	}
	return json.Marshal(e)
}
