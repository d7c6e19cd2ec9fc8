package shared

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"
)

var (
	curlHeaderFlag = regexp.MustCompile(`(?:-H|--header)\s+(?:'([^']+)'|"([^"]+)")`)
	curlCookieFlag = regexp.MustCompile(`(?:-b|--cookie)\s+(?:'([^']+)'|"([^"]+)")`)
)

// RequestHeaders are extra headers sent with every extractor request, typically
// copied out of a browser session so that age or region gated videos resolve.
type RequestHeaders struct {
	Values map[string]string
	Cookie string
}

// LoadRequestHeaders reads a header file. The file may hold a "Copy as cURL" command
// or plain "Key: Value" lines.
func LoadRequestHeaders(path string) (*RequestHeaders, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read headers file: %w", err)
	}
	return ParseRequestHeaders(string(data))
}

// ParseRequestHeaders extracts headers from a cURL command or from "Key: Value" lines.
func ParseRequestHeaders(raw string) (*RequestHeaders, error) {
	raw = strings.ReplaceAll(raw, "\\\n", " ")
	h := &RequestHeaders{Values: make(map[string]string)}

	var lines []string
	if strings.HasPrefix(strings.TrimSpace(raw), "curl") {
		for _, m := range curlHeaderFlag.FindAllStringSubmatch(raw, -1) {
			lines = append(lines, firstNonEmpty(m[1], m[2]))
		}
		if m := curlCookieFlag.FindStringSubmatch(raw); m != nil {
			h.Cookie = firstNonEmpty(m[1], m[2])
		}
	} else {
		lines = strings.Split(raw, "\n")
	}

	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" {
			continue
		}
		if strings.EqualFold(key, "cookie") {
			if h.Cookie == "" {
				h.Cookie = value
			}
			continue
		}
		h.Values[key] = value
	}

	if len(h.Values) == 0 && h.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found", ErrInvalidInput)
	}
	return h, nil
}

// Lines renders the headers as sorted "Key: Value" strings, cookie last.
func (h *RequestHeaders) Lines() []string {
	if h == nil {
		return nil
	}
	lines := make([]string, 0, len(h.Values)+1)
	for k, v := range h.Values {
		lines = append(lines, k+": "+v)
	}
	sort.Strings(lines)
	if h.Cookie != "" {
		lines = append(lines, "Cookie: "+h.Cookie)
	}
	return lines
}

// Apply sets the headers on req without replacing ones the caller already set.
func (h *RequestHeaders) Apply(req *http.Request) {
	if h == nil {
		return
	}
	for k, v := range h.Values {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	if h.Cookie != "" && req.Header.Get("Cookie") == "" {
		req.Header.Set("Cookie", h.Cookie)
	}
}

// Transport returns an [http.RoundTripper] that applies h to each request before delegating to base.
func (h *RequestHeaders) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return headerTransport{headers: h, base: base}
}

type headerTransport struct {
	headers *RequestHeaders
	base    http.RoundTripper
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	t.headers.Apply(req)
	return t.base.RoundTrip(req)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
