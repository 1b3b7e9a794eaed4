package shell

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitHeader(t *testing.T) {
	tests := []struct {
		name     string
		out      string
		wantOK   bool
		wantBody string
	}{
		{name: "lf block", out: "Content-Type: text/plain\n\nbody", wantOK: true, wantBody: "body"},
		{name: "crlf block", out: "Status: 201 Created\r\nX-A: b\r\n\r\nbody", wantOK: true, wantBody: "body"},
		{name: "empty body", out: "Status: 204 No Content\n\n", wantOK: true, wantBody: ""},
		{name: "no blank line", out: "Content-Type: text/plain\nbody"},
		{name: "prose before blank line", out: "hello world\n\nbody"},
		{name: "leading blank line", out: "\n\nbody"},
		{name: "space in name", out: "Not A: header\n\nbody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, body, ok := splitHeader([]byte(tt.out))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}

func TestRequestEnv(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://example.com/api/x?q=1", nil)
	req.URL.Path = "/x"
	req.Header.Set("X-Request.Id", "abc")
	req.Header.Set("Content-Type", "application/json")

	env := map[string]string{}
	for _, kv := range requestEnv("/srv/api.route.sh", req) {
		env[kv[0]] = kv[1]
	}

	assert.Equal(t, "POST", env["REQUEST_METHOD"])
	assert.Equal(t, "/x", env["PATH_INFO"])
	assert.Equal(t, "q=1", env["QUERY_STRING"])
	assert.Equal(t, "http://example.com/api/x?q=1", env["REQUEST_URI"])
	assert.Equal(t, "/srv/api.route.sh", env["SCRIPT_FILENAME"])
	assert.Equal(t, "application/json", env["CONTENT_TYPE"])
	assert.Equal(t, "abc", env["HTTP_X_REQUEST_ID"])
	assert.Equal(t, "example.com", env["HTTP_HOST"])
}
