// Package dateformat handles PHP-style date format strings ("Y-m-d",
// "d/m/Y H:i"). Formatting walks the tokens directly; parsing goes through an
// equivalent Go reference layout.
package dateformat

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Default is the ISO-8601 format used when neither the field nor the
// settings name one.
const Default = `Y-m-d\TH:i:sP`

// tokens maps each supported PHP token to the Go layout element it parses as.
var tokens = map[byte]string{
	'd': "02",
	'j': "2",
	'D': "Mon",
	'l': "Monday",
	'm': "01",
	'n': "1",
	'M': "Jan",
	'F': "January",
	'Y': "2006",
	'y': "06",
	'H': "15",
	'G': "15",
	'h': "03",
	'g': "3",
	'i': "04",
	's': "05",
	'v': "000",
	'u': "000000",
	'A': "PM",
	'a': "pm",
	'P': "-07:00",
	'p': "Z07:00",
	'O': "-0700",
	'T': "MST",
}

// Reference instants used to check that a translated layout reads back the
// same fields the tokens describe. Every field is at least two digits wide so
// padded and unpadded tokens agree.
var checkTimes = []time.Time{
	time.Date(2031, time.November, 28, 22, 47, 39, 123456000, time.FixedZone("XYZ", 5*3600+30*60)),
	time.Date(2017, time.October, 19, 13, 58, 41, 987654000, time.FixedZone("ABC", -(3*3600+15*60))),
}

type segment struct {
	token   byte
	literal string
}

type compiled struct {
	segments []segment
	layout   string
	err      error
}

var cache sync.Map // map[string]*compiled

func compile(format string) *compiled {
	if c, ok := cache.Load(format); ok {
		return c.(*compiled)
	}
	c := build(format)
	cache.Store(format, c)
	return c
}

func build(format string) *compiled {
	if strings.Contains(format, "2006") {
		return &compiled{layout: format}
	}

	c := &compiled{}
	var layout strings.Builder
	literal := func(s string) {
		c.segments = append(c.segments, segment{literal: s})
		layout.WriteString(s)
	}
	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch == '\\' && i+1 < len(format) {
			i++
			literal(format[i : i+1])
			continue
		}
		if tok, ok := tokens[ch]; ok {
			c.segments = append(c.segments, segment{token: ch})
			layout.WriteString(tok)
			continue
		}
		if isLetter(ch) {
			c.err = fmt.Errorf("unsupported date token %q in %q", ch, format)
			return c
		}
		literal(format[i : i+1])
	}
	c.layout = layout.String()

	for _, t := range checkTimes {
		if got, want := t.Format(c.layout), c.render(t); got != want {
			c.err = fmt.Errorf("date format %q cannot be parsed unambiguously", format)
			return c
		}
	}
	return c
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func (c *compiled) render(t time.Time) string {
	if c.segments == nil {
		return t.Format(c.layout)
	}
	var b strings.Builder
	for _, s := range c.segments {
		if s.token == 0 {
			b.WriteString(s.literal)
			continue
		}
		b.WriteString(renderToken(t, s.token))
	}
	return b.String()
}

func renderToken(t time.Time, tok byte) string {
	switch tok {
	case 'G':
		return strconv.Itoa(t.Hour())
	case 'v':
		return fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
	case 'u':
		return fmt.Sprintf("%06d", t.Nanosecond()/int(time.Microsecond))
	default:
		return t.Format(tokens[tok])
	}
}

// Check reports whether format is usable for both formatting and parsing.
// Unknown letters must be escaped with a backslash.
func Check(format string) error {
	if format == "" {
		return fmt.Errorf("date format must not be empty")
	}
	return compile(format).err
}

// Layout returns the Go layout for format. A format that already contains
// the Go reference year is returned unchanged.
func Layout(format string) (string, error) {
	c := compile(format)
	return c.layout, c.err
}

// Format renders t using format.
func Format(t time.Time, format string) (string, error) {
	c := compile(format)
	if c.err != nil {
		return "", c.err
	}
	return c.render(t), nil
}

// Parse reads s using format.
func Parse(format, s string) (time.Time, error) {
	c := compile(format)
	if c.err != nil {
		return time.Time{}, c.err
	}
	return time.Parse(c.layout, s)
}
