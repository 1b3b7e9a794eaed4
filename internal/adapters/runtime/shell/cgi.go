package shell

import (
	"bufio"
	"bytes"
	"net/http"
	"net/textproto"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// requestEnv returns the CGI variables describing r, sorted by name.
func requestEnv(id string, r *http.Request) [][2]string {
	requestURI := r.RequestURI
	if requestURI == "" {
		requestURI = r.URL.RequestURI()
	}

	env := [][2]string{
		{"GATEWAY_INTERFACE", "CGI/1.1"},
		{"REQUEST_METHOD", r.Method},
		{"PATH_INFO", r.URL.Path},
		{"QUERY_STRING", r.URL.RawQuery},
		{"REQUEST_URI", requestURI},
		{"SCRIPT_FILENAME", id},
		{"SERVER_PROTOCOL", r.Proto},
		{"REMOTE_ADDR", r.RemoteAddr},
		{"CONTENT_TYPE", r.Header.Get("Content-Type")},
	}
	if r.ContentLength >= 0 {
		env = append(env, [2]string{"CONTENT_LENGTH", strconv.FormatInt(r.ContentLength, 10)})
	}
	if r.Host != "" {
		env = append(env, [2]string{"HTTP_HOST", r.Host})
	}

	for name, values := range r.Header {
		switch name {
		case "Content-Type", "Content-Length", "Host":
			continue
		}
		env = append(env, [2]string{"HTTP_" + envName(name), strings.Join(values, ", ")})
	}

	slices.SortFunc(env, func(a, b [2]string) int {
		return strings.Compare(a[0], b[0])
	})
	return env
}

// envName maps a header name to a shell variable name.
func envName(header string) string {
	return strings.Map(func(c rune) rune {
		switch {
		case 'a' <= c && c <= 'z':
			return c - 'a' + 'A'
		case 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
			return c
		default:
			return '_'
		}
	}, header)
}

// writeResponse writes handler output. Output starting with a header block ended by
// a blank line sets the response headers; a Status header sets the code and a
// Location header without one redirects. Any other output is the body of a 200.
func writeResponse(w http.ResponseWriter, out []byte) error {
	header, body, ok := splitHeader(out)
	if !ok {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write(out)
		return err
	}

	status := http.StatusOK
	if raw := header.Get("Status"); raw != "" {
		code, err := strconv.Atoi(strings.Fields(raw)[0])
		if err != nil || code < 100 || code > 999 {
			return zerr.With(zerr.New("invalid Status header"), "status", raw)
		}
		status = code
		header.Del("Status")
	} else if header.Get("Location") != "" {
		status = http.StatusFound
	}

	for name, values := range header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}

// splitHeader separates a leading header block from the body. It reports false when
// out does not start with well-formed header lines followed by a blank line.
func splitHeader(out []byte) (textproto.MIMEHeader, []byte, bool) {
	end, sep := bytes.Index(out, []byte("\r\n\r\n")), 4
	if lf := bytes.Index(out, []byte("\n\n")); lf >= 0 && (end < 0 || lf < end) {
		end, sep = lf, 2
	}
	if end <= 0 {
		return nil, nil, false
	}

	head := out[:end]
	for line := range bytes.SplitSeq(head, []byte("\n")) {
		if !isHeaderLine(bytes.TrimSuffix(line, []byte("\r"))) {
			return nil, nil, false
		}
	}

	block := append(bytes.Clone(head), "\r\n\r\n"...)
	header, err := textproto.NewReader(bufio.NewReader(bytes.NewReader(block))).ReadMIMEHeader()
	if err != nil {
		return nil, nil, false
	}
	return header, out[end+sep:], true
}

func isHeaderLine(line []byte) bool {
	name, _, ok := bytes.Cut(line, []byte(":"))
	if !ok || len(name) == 0 {
		return false
	}
	for _, c := range name {
		if !isTokenChar(c) {
			return false
		}
	}
	return true
}

func isTokenChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	default:
		return strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0
	}
}
