// This file implements utilities for parsing action request bodies. Actions
// accept either form-encoded or JSON bodies; both are read through the same
// field accessors.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"famfin/internal/core"
)

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(r.Body)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(strings.TrimSpace(string(p.body))) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a trimmed, sanitized field value, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		// Repeated form keys (tags=a&tags=b) are joined like a list.
		return sanitizeInput(strings.Join(p.formData[key], ","))
	}
	return ""
}

// ID parses a required positive id field.
func (p *RequestBodyParser) ID(key string) (int64, error) {
	id, ok := core.ParseID(p.Get(key))
	if !ok {
		return 0, core.Invalid("Invalid " + key + ".")
	}
	return id, nil
}

// Date parses an optional YYYY-MM-DD field; blank yields the zero date.
func (p *RequestBodyParser) Date(key string) (core.Date, error) {
	raw := p.Get(key)
	if raw == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, core.Invalid("Invalid " + key + ".")
	}
	return d, nil
}

// Int parses an optional non-negative integer field; blank yields zero.
func (p *RequestBodyParser) Int(key string) (int, error) {
	raw := p.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, core.Invalid("Invalid " + key + ".")
	}
	return n, nil
}

// Bool reports whether a flag field is set to a true value.
func (p *RequestBodyParser) Bool(key string) bool {
	v, err := strconv.ParseBool(p.Get(key))
	return err == nil && v
}

// stringValue renders a decoded JSON value as a form field would carry it.
// Arrays become comma separated lists.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := stringValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// sanitizeInput trims the value and strips control characters other than
// tab, newline and carriage return.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
