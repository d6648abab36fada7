// Package timeparse converts the heterogeneous timestamp text found in
// order exports into instants.
package timeparse

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var ErrUnparsable = errors.New("unparsable timestamp")

// primaryPattern matches the sheet export layout, e.g. "8/1/2025 10:20:00 AM".
var primaryPattern = regexp.MustCompile(`(?i)^(\d{1,2})/(\d{1,2})/(\d{4})\s+(\d{1,2}):(\d{2}):(\d{2})\s+(AM|PM)$`)

// badMeridiemPattern is the primary layout with a two-letter "?M" suffix other
// than AM or PM.
var badMeridiemPattern = regexp.MustCompile(`(?i)^\d{1,2}/\d{1,2}/\d{4}\s+\d{1,2}:\d{2}:\d{2}\s+[A-Z]M$`)

type Parser struct {
	// Location interprets timestamps that carry no zone. Defaults to time.Local.
	Location *time.Location
	// Now supplies the fallback instant for unparsable input.
	Now func() time.Time
}

func New(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{Location: loc, Now: time.Now}
}

// Parse never fails: text that matches neither the primary layout nor a
// generic date layout yields the current instant. Callers that must tell the
// two apart use ParseStrict.
func (p *Parser) Parse(text string) time.Time {
	t, err := p.ParseStrict(text)
	if err != nil {
		return p.now()
	}
	return t
}

// ParseStrict returns every instant in the parser's location, including text
// that carries its own zone.
func (p *Parser) ParseStrict(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, ErrUnparsable
	}
	if t, ok := p.parsePrimary(text); ok {
		return t, nil
	}
	if badMeridiemPattern.MatchString(text) {
		return time.Time{}, ErrUnparsable
	}
	t, err := dateparse.ParseIn(text, p.location())
	if err != nil || t.Year() < 1 {
		// fragments such as "12:" come back as year zero
		return time.Time{}, ErrUnparsable
	}
	return t.In(p.location()), nil
}

func (p *Parser) parsePrimary(text string) (time.Time, bool) {
	match := primaryPattern.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, false
	}
	month, _ := strconv.Atoi(match[1])
	day, _ := strconv.Atoi(match[2])
	year, _ := strconv.Atoi(match[3])
	hour, _ := strconv.Atoi(match[4])
	minute, _ := strconv.Atoi(match[5])
	second, _ := strconv.Atoi(match[6])

	hour = to24Hour(hour, strings.EqualFold(match[7], "PM"))
	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, p.location())
	// time.Date normalizes overflow such as 2/30; reject it instead.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func to24Hour(hour int, pm bool) int {
	switch {
	case pm && hour != 12:
		return hour + 12
	case !pm && hour == 12:
		return 0
	}
	return hour
}

func (p *Parser) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

func (p *Parser) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
