package fibonacci_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/gopub/fibonacci"
	"github.com/gopub/fibonacci/ctxutil"
	"github.com/gopub/fibonacci/fib"
	"github.com/gopub/fibonacci/httpvalue"
	"github.com/gopub/fibonacci/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func serve(s *fibonacci.Server, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func get(s *fibonacci.Server, target string) *httptest.ResponseRecorder {
	return serve(s, http.MethodGet, target, nil)
}

func TestFibonacci(t *testing.T) {
	s := fibonacci.NewServer(fibonacci.DefaultConfig())

	t.Run("Text", func(t *testing.T) {
		w := get(s, "/fibonacci/10")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Fibonacci (10) = 55", w.Body.String())
		assert.Equal(t, httpvalue.Plain, httpvalue.GetContentType(w.Header()))
	})

	t.Run("BaseCases", func(t *testing.T) {
		assert.Equal(t, "Fibonacci (0) = 0", get(s, "/fibonacci/0").Body.String())
		assert.Equal(t, "Fibonacci (1) = 1", get(s, "/fibonacci/1").Body.String())
		assert.Equal(t, "Fibonacci (5) = 5", get(s, "/fibonacci/5").Body.String())
	})

	t.Run("TrailingSlash", func(t *testing.T) {
		w := get(s, "/fibonacci/10/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Fibonacci (10) = 55", w.Body.String())
	})

	t.Run("JSON", func(t *testing.T) {
		w := serve(s, http.MethodGet, "/fibonacci/10", map[string]string{httpvalue.Accept: httpvalue.JSON})
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"n":10,"result":55}`, w.Body.String())
	})

	t.Run("Protobuf", func(t *testing.T) {
		w := serve(s, http.MethodGet, "/fibonacci/20", map[string]string{httpvalue.Accept: httpvalue.Protobuf})
		require.Equal(t, http.StatusOK, w.Code)
		var v wrapperspb.UInt32Value
		require.NoError(t, proto.Unmarshal(w.Body.Bytes(), &v))
		assert.Equal(t, uint32(6765), v.GetValue())
	})

	t.Run("InvalidIndex", func(t *testing.T) {
		for _, n := range []string{"abc", "-1", "+1", "1.5", "4294967296", "99999999999999999999999"} {
			w := get(s, "/fibonacci/"+n)
			assert.Equal(t, http.StatusBadRequest, w.Code, n)
			assert.Contains(t, w.Body.String(), "invalid n", n)
		}
	})

	t.Run("LeadingZeros", func(t *testing.T) {
		for path, want := range map[string]string{
			"/fibonacci/010": "Fibonacci (10) = 55",
			"/fibonacci/08":  "Fibonacci (8) = 21",
			"/fibonacci/000": "Fibonacci (0) = 0",
		} {
			w := get(s, path)
			require.Equal(t, http.StatusOK, w.Code, path)
			assert.Equal(t, want, w.Body.String(), path)
		}
	})

	t.Run("AcceptOrder", func(t *testing.T) {
		w := serve(s, http.MethodGet, "/fibonacci/10", map[string]string{httpvalue.Accept: "text/plain, application/json"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, httpvalue.Plain, httpvalue.GetContentType(w.Header()))
		assert.Equal(t, "Fibonacci (10) = 55", w.Body.String())

		w = serve(s, http.MethodGet, "/fibonacci/10", map[string]string{httpvalue.Accept: "text/plain;q=0.5, application/json"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"n":10,"result":55}`, w.Body.String())
	})

	t.Run("OutOfRangeJSON", func(t *testing.T) {
		w := serve(s, http.MethodGet, "/fibonacci/48", map[string]string{httpvalue.Accept: httpvalue.JSON})
		require.Equal(t, http.StatusBadRequest, w.Code)
		var res struct {
			Index    uint32 `json:"index"`
			MaxIndex uint32 `json:"max_index"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, uint32(48), res.Index)
		assert.Equal(t, fib.MaxIndex, res.MaxIndex)
	})

	t.Run("MaxIndex", func(t *testing.T) {
		c := fibonacci.DefaultConfig()
		c.Algorithm = fib.Iterative
		w := get(fibonacci.NewServer(c), "/fibonacci/47")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Fibonacci (47) = 2971215073", w.Body.String())
	})

	t.Run("OutOfRange", func(t *testing.T) {
		w := get(s, "/fibonacci/48")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), string(fib.ErrOutOfRange))

		w = get(s, "/fibonacci/4294967295")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MethodNotBound", func(t *testing.T) {
		w := serve(s, http.MethodPost, "/fibonacci/10", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFibonacci_Unchecked(t *testing.T) {
	c := fibonacci.DefaultConfig()
	c.Checked = false
	c.Algorithm = fib.Iterative
	require.NoError(t, c.Validate())
	s := fibonacci.NewServer(c)

	w := get(s, "/fibonacci/48")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Fibonacci (48) = 512559680", w.Body.String())
}

func TestFibonacci_Timeout(t *testing.T) {
	c := fibonacci.DefaultConfig()
	c.RequestTimeout = time.Millisecond
	s := fibonacci.NewServer(c)

	w := get(s, "/fibonacci/38")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestFibonacci_MaxComputations(t *testing.T) {
	c := fibonacci.DefaultConfig()
	c.RequestTimeout = 50 * time.Millisecond
	c.MaxComputations = 1
	require.NoError(t, c.Validate())
	s := fibonacci.NewServer(c)

	// The abandoned recursion keeps the only slot after its request times out
	w := get(s, "/fibonacci/42")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = get(s, "/fibonacci/1")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "too many computations")
}

func TestAge(t *testing.T) {
	s := fibonacci.NewServer(nil)

	w := get(s, "/age/1990")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "You are 35 years old", w.Body.String())

	w = get(s, "/age/2025")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "You are 0 years old", w.Body.String())

	w = get(s, "/age/2026")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), string(utility.ErrInvalidInput))

	w = get(s, "/age/65536")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for path, want := range map[string]string{
		"/age/01990":   "You are 35 years old",
		"/age/0001990": "You are 35 years old",
		"/age/0777":    "You are 1248 years old",
	} {
		w = get(s, path)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, want, w.Body.String(), path)
	}

	w = serve(s, http.MethodGet, "/age/1990", map[string]string{httpvalue.Accept: httpvalue.JSON})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"birth_year":1990,"age":35}`, w.Body.String())
}

func TestEmail(t *testing.T) {
	s := fibonacci.NewServer(nil)
	for address, valid := range map[string]bool{
		"tom@example.com":   true,
		"tom%40example.com": true,
		"tom@example":       false,
		"example.com":       false,
	} {
		w := get(s, "/email/"+address)
		require.Equal(t, http.StatusOK, w.Code, address)
		var res struct {
			Email string `json:"email"`
			Valid bool   `json:"valid"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), address)
		assert.Equal(t, valid, res.Valid, address)
		assert.Equal(t, strings.ReplaceAll(address, "%40", "@"), res.Email)
	}
}

func TestNotFound(t *testing.T) {
	s := fibonacci.NewServer(nil)
	for _, path := range []string{"/", "/fib/10", "/fibonacci", "/fibonacci/1/2"} {
		assert.Equal(t, http.StatusNotFound, get(s, path).Code, path)
	}
}

func TestRequestID(t *testing.T) {
	s := fibonacci.NewServer(nil)

	w := serve(s, http.MethodGet, "/fibonacci/3", map[string]string{httpvalue.RequestID: "req-1"})
	assert.Equal(t, "req-1", w.Header().Get(httpvalue.RequestID))

	w = get(s, "/missing")
	assert.Len(t, w.Header().Get(httpvalue.RequestID), 32)

	s.Get("trace", func(ctx context.Context, req *fibonacci.Request) fibonacci.Responder {
		return fibonacci.Text(http.StatusOK, ctxutil.GetTraceID(ctx))
	})
	w = serve(s, http.MethodGet, "/trace", map[string]string{httpvalue.RequestID: "req-2"})
	assert.Equal(t, "req-2", w.Body.String())

	w = get(s, "/trace")
	assert.Len(t, w.Body.String(), 32)
	assert.Equal(t, w.Header().Get(httpvalue.RequestID), w.Body.String())
}

func TestRecovery(t *testing.T) {
	s := fibonacci.NewServer(nil)
	s.Get("panic", func(ctx context.Context, req *fibonacci.Request) fibonacci.Responder {
		panic("boom")
	})
	w := get(s, "/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCompression(t *testing.T) {
	s := fibonacci.NewServer(nil)
	w := serve(s, http.MethodGet, "/fibonacci/10", map[string]string{httpvalue.AcceptEncoding: "gzip"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get(httpvalue.ContentEncoding))
}

func TestSystemRoutes(t *testing.T) {
	s := fibonacci.NewServer(nil)

	w := get(s, "/_fib/version")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fibonacci.Version, w.Body.String())

	w = get(s, "/_fib/uptime")
	require.Equal(t, http.StatusOK, w.Code)
	_, err := time.ParseDuration(w.Body.String())
	assert.NoError(t, err)

	w = get(s, "/_fib/endpoints")
	require.Equal(t, http.StatusOK, w.Code)
	var endpoints []struct {
		Method      string `json:"method"`
		Path        string `json:"path"`
		Description string `json:"description"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &endpoints))
	paths := map[string]string{}
	for _, e := range endpoints {
		paths[e.Path] = e.Method
	}
	assert.Equal(t, http.MethodGet, paths["/fibonacci/{n}"])
	assert.Equal(t, http.MethodGet, paths["/wasm/fibonacci/{n}"])
	assert.Equal(t, http.MethodGet, paths["/ws/fibonacci"])
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, fibonacci.DefaultConfig().Validate())

	c := fibonacci.DefaultConfig()
	c.RequestTimeout = 0
	assert.Error(t, c.Validate())

	c = fibonacci.DefaultConfig()
	c.WSReadTimeout = -time.Second
	assert.Error(t, c.Validate())

	c = fibonacci.DefaultConfig()
	c.Checked = false
	assert.Error(t, c.Validate())

	c = fibonacci.DefaultConfig()
	c.MaxComputations = 0
	assert.Error(t, c.Validate())
}

func TestLoadConfig(t *testing.T) {
	c, err := fibonacci.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, fibonacci.DefaultConfig(), c)
}
