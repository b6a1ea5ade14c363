package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"unicode"
)

// Package jsonutil extracts and normalizes JSON payloads produced by a
// generative backend. Responses routinely arrive wrapped in markdown fences,
// explanatory prose, or with stray control characters; the helpers here strip
// that noise without ever interpreting the payload as anything but data.

var ErrNoPayload = errors.New("jsonutil: no JSON object found in response")

// ExtractPayload locates the first balanced JSON object in a raw backend
// response. It tolerates markdown code fences, surrounding prose, and control
// characters outside string literals.
func ExtractPayload(raw []byte) (json.RawMessage, error) {
	s := stripFences(string(raw))
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, ErrNoPayload
	}
	depth := 0
	inStr := false
	esc := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return sanitize([]byte(s[start : i+1])), nil
			}
		}
	}
	return nil, ErrNoPayload
}

// stripFences removes markdown code fences (``` or ```json) if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if j := strings.LastIndex(s, "```"); j >= 0 {
		s = s[:j]
	}
	return strings.TrimSpace(s)
}

// sanitize drops raw control characters outside string literals; inside string
// literals a bare newline/tab is JSON-escaped so the payload stays parseable.
func sanitize(b []byte) []byte {
	var out bytes.Buffer
	inStr := false
	esc := false
	for _, c := range string(b) {
		if inStr {
			switch {
			case esc:
				esc = false
				out.WriteRune(c)
				continue
			case c == '\\':
				esc = true
				out.WriteRune(c)
				continue
			case c == '"':
				inStr = false
				out.WriteRune(c)
				continue
			case c == '\n':
				out.WriteString(`\n`)
				continue
			case c == '\t':
				out.WriteString(`\t`)
				continue
			case unicode.IsControl(c):
				continue
			}
			out.WriteRune(c)
			continue
		}
		if c == '"' {
			inStr = true
			out.WriteRune(c)
			continue
		}
		if unicode.IsControl(c) && c != '\n' && c != '\t' && c != '\r' {
			continue
		}
		out.WriteRune(c)
	}
	return out.Bytes()
}

// MarshalNoEscape encodes v into JSON without HTML-escaping <, >, and &.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalFlex tries to unmarshal JSON bytes into v with best effort:
// direct unmarshal first, then payload extraction for fenced/noisy input.
func UnmarshalFlex(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	payload, err := ExtractPayload(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, v)
}
