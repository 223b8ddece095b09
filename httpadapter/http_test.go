package httpadapter_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/runloop-dev/durable-go/httpadapter"
	"github.com/runloop-dev/durable-go/wire"
	"github.com/google/go-cmp/cmp"
)

func TestSerializable(t *testing.T) {
	t.Run("request", func(t *testing.T) {
		req := &httpadapter.Request{
			Method: "GET",
			URL:    "http://example.com",
			Header: http.Header{"X-Foo": []string{"bar"}},
			Body:   []byte("abc"),
		}
		boxed, err := wire.Marshal(req)
		if err != nil {
			t.Fatal(err)
		}
		var req2 *httpadapter.Request
		if err := boxed.Unmarshal(&req2); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(req, req2); diff != "" {
			t.Errorf("invalid request: %v", diff)
		}
	})

	t.Run("response", func(t *testing.T) {
		res := &httpadapter.Response{
			StatusCode: 200,
			Header:     http.Header{"X-Foo": []string{"bar"}},
			Body:       []byte("abc"),
		}
		boxed, err := wire.Marshal(res)
		if err != nil {
			t.Fatal(err)
		}
		var res2 *httpadapter.Response
		if err := boxed.Unmarshal(&res2); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(res, res2); diff != "" {
			t.Errorf("invalid response: %v", diff)
		}
	})
}

func TestStatusCodeStatus(t *testing.T) {
	for _, test := range []struct {
		code int
		want wire.Status
	}{
		// 1xx
		{
			code: http.StatusContinue,
			want: wire.PermanentErrorStatus,
		},

		// 2xx
		{
			code: http.StatusOK,
			want: wire.OKStatus,
		},
		{
			code: http.StatusAccepted,
			want: wire.OKStatus,
		},
		{
			code: http.StatusCreated,
			want: wire.OKStatus,
		},

		// 3xx
		{
			code: http.StatusTemporaryRedirect,
			want: wire.PermanentErrorStatus,
		},
		{
			code: http.StatusPermanentRedirect,
			want: wire.PermanentErrorStatus,
		},

		// 4xx
		{
			code: http.StatusBadRequest,
			want: wire.InvalidArgumentStatus,
		},
		{
			code: http.StatusUnauthorized,
			want: wire.UnauthenticatedStatus,
		},
		{
			code: http.StatusForbidden,
			want: wire.PermissionDeniedStatus,
		},
		{
			code: http.StatusNotFound,
			want: wire.NotFoundStatus,
		},
		{
			code: http.StatusMethodNotAllowed,
			want: wire.PermanentErrorStatus,
		},
		{
			code: http.StatusRequestTimeout,
			want: wire.TimeoutStatus,
		},
		{
			code: http.StatusTooManyRequests,
			want: wire.ThrottledStatus,
		},

		// 5xx
		{
			code: http.StatusInternalServerError,
			want: wire.TemporaryErrorStatus,
		},
		{
			code: http.StatusNotImplemented,
			want: wire.PermanentErrorStatus,
		},
		{
			code: http.StatusBadGateway,
			want: wire.TemporaryErrorStatus,
		},
		{
			code: http.StatusServiceUnavailable,
			want: wire.TemporaryErrorStatus,
		},
		{
			code: http.StatusGatewayTimeout,
			want: wire.TemporaryErrorStatus,
		},

		// invalid
		{
			code: 0,
			want: wire.UnspecifiedStatus,
		},
		{
			code: 9999,
			want: wire.UnspecifiedStatus,
		},
	} {
		t.Run(strconv.Itoa(test.code), func(t *testing.T) {
			res := &httpadapter.Response{StatusCode: test.code}
			got := wire.StatusOf(res)
			if got != test.want {
				t.Errorf("unexpected status for code %d: got %v, want %v", test.code, got, test.want)
			}
		})
	}
}
