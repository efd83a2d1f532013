package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finboard/internal/core"
	"finboard/internal/records"
)

const maxBodyBytes = 1 << 20

// RequestBodyParser reads a JSON or form-encoded body once and serves
// sanitized string fields from it.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse tries JSON when the body looks like an object, form data otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("decode JSON body: %w", err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns the first non-empty value among keys.
func (p *RequestBodyParser) Get(keys ...string) string {
	for _, key := range keys {
		var v string
		switch {
		case p.jsonData != nil:
			v = records.StringValue(p.jsonData[key])
		case p.formData != nil:
			v = p.formData.Get(key)
		}
		if v = sanitizeInput(v); v != "" {
			return v
		}
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// Candidate reads an add request. The label is accepted under the kind's own
// key ("source" or "category") or under "label".
func (p *RequestBodyParser) Candidate(kind core.Kind) core.Candidate {
	return core.Candidate{
		Label:  p.Get(kind.LabelKey(), "label"),
		Amount: p.Get("amount"),
		Date:   p.Get("date"),
		Icon:   p.Get("icon"),
	}
}

// sanitizeInput trims and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

// parseLimit reads a non-negative integer query parameter, or def.
func parseLimit(q url.Values, key string, def int) int {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
