// Package xmlel reads and writes single XML elements embedded in otherwise
// binary streams.
//
// A Terse file starts every frame record with a small self-describing element
// such as `<Terse prolix_bits="16" .../>` whose closing '>' is immediately
// followed by the bit payload. [Scan] therefore consumes the stream one byte
// at a time and stops exactly after the element, leaving the reader
// positioned at the first payload byte. This is not a general XML parser:
// only the attribute forms produced by [Render] need to round-trip, though
// the scanner tolerates comments, CDATA sections, and foreign elements ahead
// of the one it wants.
package xmlel

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/senikm/trpx/errors"
)

// Element is a single parsed XML element: its tag, the raw attribute text,
// and (for non-self-closing elements) the body up to the matching close tag.
type Element struct {
	tag   string
	attrs string
	body  string
}

// Tag returns the tag name the element was scanned for.
func (e *Element) Tag() string { return e.tag }

// Body returns the element body, empty for self-closing elements.
func (e *Element) Body() string { return e.body }

// Attr returns the named attribute's unquoted value, or "" when the
// attribute is absent. Lookup is name-based and indifferent to attribute
// order and surrounding whitespace.
func (e *Element) Attr(name string) string {
	rest := e.attrs
	for {
		i := strings.Index(rest, name)
		if i < 0 {
			return ""
		}
		// Reject matches inside a longer attribute name, e.g. "size" within
		// "memory_size".
		if i > 0 {
			prev := rest[i-1]
			if prev != ' ' && prev != '\t' && prev != '\n' && prev != '\r' {
				rest = rest[i+1:]
				continue
			}
		}
		tail := strings.TrimLeft(rest[i+len(name):], " \t\r\n")
		if len(tail) == 0 || tail[0] != '=' {
			rest = rest[i+len(name):]
			continue
		}
		tail = strings.TrimLeft(tail[1:], " \t\r\n")
		if len(tail) == 0 || tail[0] != '"' {
			return ""
		}
		tail = tail[1:]
		end := strings.IndexByte(tail, '"')
		if end < 0 {
			return ""
		}
		return tail[:end]
	}
}

// Int returns the named attribute parsed as a signed integer.
func (e *Element) Int(name string) (int64, error) {
	raw := e.Attr(name)
	if raw == "" {
		return 0, errors.NewWithMessage(
			errors.BadDescriptor,
			fmt.Sprintf("missing attribute %q on <%s>", name, e.tag),
		)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.NewFromError(errors.BadDescriptor, err)
	}
	return v, nil
}

// Uint returns the named attribute parsed as an unsigned integer.
func (e *Element) Uint(name string) (uint64, error) {
	raw := e.Attr(name)
	if raw == "" {
		return 0, errors.NewWithMessage(
			errors.BadDescriptor,
			fmt.Sprintf("missing attribute %q on <%s>", name, e.tag),
		)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.NewFromError(errors.BadDescriptor, err)
	}
	return v, nil
}

// Scan reads bytes from r until it has consumed one complete element with the
// given tag, skipping comments, CDATA sections, and elements with other tags.
// On success the reader is positioned at the first byte after the element, so
// binary data following it can be read directly. A clean end of input before
// any part of the element was seen returns io.EOF; a truncated element
// returns a BadDescriptor error.
func Scan(r io.ByteReader, tag string) (*Element, error) {
	for {
		if err := skipToByte(r, '<'); err != nil {
			return nil, err
		}
		name, delim, err := readName(r)
		if err != nil {
			return nil, err
		}
		switch {
		case name == "!--":
			if err := skipPast(r, "-->"); err != nil {
				return nil, err
			}
			continue
		case name == "![CDATA[":
			if err := skipPast(r, "]]>"); err != nil {
				return nil, err
			}
			continue
		case name != tag:
			if delim != '>' {
				if err := skipToByte(r, '>'); err != nil {
					return nil, err
				}
			}
			continue
		}

		el := &Element{tag: tag}
		if delim != '>' {
			attrs, selfClosing, err := readAttrs(r, delim)
			if err != nil {
				return nil, err
			}
			el.attrs = attrs
			if selfClosing {
				return el, nil
			}
		}
		body, err := readBody(r, tag)
		if err != nil {
			return nil, err
		}
		el.body = body
		return el, nil
	}
}

// Parse scans a string instead of a stream.
func Parse(s, tag string) (*Element, error) {
	return Scan(strings.NewReader(s), tag)
}

// skipToByte consumes input through the first occurrence of b.
func skipToByte(r io.ByteReader, b byte) error {
	for {
		c, err := r.ReadByte()
		if err != nil {
			return err
		}
		if c == b {
			return nil
		}
	}
}

// skipPast consumes input through the first occurrence of the marker string.
func skipPast(r io.ByteReader, marker string) error {
	var window []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			return truncated(err)
		}
		window = append(window, c)
		if len(window) >= len(marker) &&
			string(window[len(window)-len(marker):]) == marker {
			return nil
		}
	}
}

// readName reads the tag name directly after '<'. It returns the name and
// the delimiter byte that terminated it (whitespace, '/' or '>').
func readName(r io.ByteReader) (string, byte, error) {
	var name []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", 0, truncated(err)
		}
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '>' || c == '/' {
			return string(name), c, nil
		}
		name = append(name, c)
		// A comment or CDATA opener is recognized as soon as its prefix is
		// complete; the bracketed forms contain no name delimiter.
		if string(name) == "!--" || string(name) == "![CDATA[" {
			return string(name), 0, nil
		}
	}
}

// readAttrs captures the attribute text after the tag name, up to the
// element's closing '>'. It reports whether the element was self-closing.
func readAttrs(r io.ByteReader, delim byte) (string, bool, error) {
	var attrs []byte
	if delim == '/' {
		// "<Tag/>" with no attributes.
		c, err := r.ReadByte()
		if err != nil {
			return "", false, truncated(err)
		}
		if c != '>' {
			return "", false, errors.NewWithMessage(
				errors.BadDescriptor, "stray '/' inside element")
		}
		return "", true, nil
	}
	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", false, truncated(err)
		}
		if c == '>' {
			if len(attrs) > 0 && attrs[len(attrs)-1] == '/' {
				return string(attrs[:len(attrs)-1]), true, nil
			}
			return string(attrs), false, nil
		}
		attrs = append(attrs, c)
	}
}

// readBody captures everything up to the matching close tag, which is
// consumed but not included.
func readBody(r io.ByteReader, tag string) (string, error) {
	close := "</" + tag + ">"
	var body []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", truncated(err)
		}
		body = append(body, c)
		if len(body) >= len(close) &&
			string(body[len(body)-len(close):]) == close {
			return string(body[:len(body)-len(close)]), nil
		}
	}
}

func truncated(err error) error {
	if err == io.EOF {
		return errors.NewWithMessage(errors.BadDescriptor, "element truncated by end of input")
	}
	return err
}

// Attr is one name/value pair for [Render].
type Attr struct {
	Key   string
	Value string
}

// Render composes a self-closing element with the attributes in the given
// order. Values are emitted verbatim between double quotes; callers supply
// plain numbers and identifiers only.
func Render(tag string, attrs ...Attr) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tag)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(a.Value)
		b.WriteByte('"')
	}
	b.WriteString("/>")
	return b.String()
}
