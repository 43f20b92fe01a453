package accesslog

import (
	"fmt"
	"regexp"
	"time"
)

// Layout holds the patterns a Parser matches lines against.
type Layout struct {
	// Record must capture host, ident, user, timestamp, request, status, bytes.
	Record *regexp.Regexp
	// Request must capture method, URL, protocol.
	Request *regexp.Regexp
	// Time is a time.Parse layout for the bracketed timestamp.
	Time string
}

// DefaultLayout returns the layout of the common log format.
func DefaultLayout() Layout {
	return Layout{
		Record:  regexp.MustCompile(`^([^ ]+) ([^ ]+) ([^ ]+) \[([^\]]+)\] "([^"]+)" ([^ ]+) ([^ ]+)$`),
		Request: regexp.MustCompile(`^([^ ]+) ([^ ]+) ([^ ]+)$`),
		Time:    "02/Jan/2006:15:04:05 -0700",
	}
}

// ParseError reports an input that did not match a pattern.
type ParseError struct {
	Input   string
	Pattern string
	Err     error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("input %q does not match pattern '%s'", e.Input, e.Pattern)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parser turns access log lines into Records. It is safe for concurrent use.
type Parser struct {
	layout Layout
}

func NewParser(layout Layout) *Parser {
	return &Parser{layout: layout}
}

// Parse parses a single line. Any mismatch is returned as a *ParseError.
func (p *Parser) Parse(line string) (Record, error) {
	m := p.layout.Record.FindStringSubmatch(line)
	if m == nil {
		return Record{}, &ParseError{Input: line, Pattern: p.layout.Record.String()}
	}

	ts, err := time.Parse(p.layout.Time, m[4])
	if err != nil {
		return Record{}, &ParseError{
			Input:   line,
			Pattern: p.layout.Record.String(),
			Err:     &ParseError{Input: m[4], Pattern: p.layout.Time, Err: err},
		}
	}

	req := p.layout.Request.FindStringSubmatch(m[5])
	if req == nil {
		return Record{}, &ParseError{
			Input:   line,
			Pattern: p.layout.Record.String(),
			Err:     &ParseError{Input: m[5], Pattern: p.layout.Request.String()},
		}
	}

	return Record{
		RemoteHost:        m[1],
		RemoteLogicalUser: dash(m[2]),
		RemoteUser:        dash(m[3]),
		Time:              ts,
		Method:            req[1],
		URL:               req[2],
		Protocol:          req[3],
		Status:            m[6],
		BytesSent:         m[7],
	}, nil
}

func dash(s string) string {
	if s == "-" {
		return ""
	}
	return s
}
