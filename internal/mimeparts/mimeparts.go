// Package mimeparts splits a raw multipart response body, as returned by the
// AHN WCS GetCoverage operation, into header/body parts.
package mimeparts

import (
	"bufio"
	"bytes"
	"net/textproto"
	"regexp"
)

var (
	boundaryPattern = regexp.MustCompile(`^\r\n(--.*)\r\n`)

	crlf      = []byte("\r\n")
	separator = []byte("\r\n\r\n")
)

// Part is one section of a multipart body.
type Part struct {
	Header  textproto.MIMEHeader
	Content []byte
}

// ContentType returns the Content-Type header of the part.
func (p Part) ContentType() string {
	return p.Header.Get("Content-Type")
}

// Boundary returns the delimiter line at the start of content, including the
// leading "--". It returns nil when content does not start with "\r\n--".
func Boundary(content []byte) []byte {
	m := boundaryPattern.FindSubmatch(content)
	if m == nil {
		return nil
	}
	return m[1]
}

// Parse splits content into its parts in order of appearance. The fragment
// before the first delimiter and the one after the last are discarded, as is
// any fragment that has no blank line between headers and body. Header lines
// that cannot be parsed are ignored.
func Parse(content []byte) []Part {
	delim := append(append([]byte{}, crlf...), Boundary(content)...)
	fragments := bytes.Split(content, delim)
	if len(fragments) < 3 {
		return nil
	}

	parts := make([]Part, 0, len(fragments)-2)
	for _, fragment := range fragments[1 : len(fragments)-1] {
		head, body, found := bytes.Cut(fragment, separator)
		if !found {
			continue
		}
		parts = append(parts, Part{
			Header:  parseHeader(head),
			Content: body,
		})
	}
	return parts
}

func parseHeader(block []byte) textproto.MIMEHeader {
	block = bytes.TrimLeft(block, " \t\r\n")
	// ReadMIMEHeader stops at the first blank line
	block = append(append([]byte{}, block...), separator...)

	r := textproto.NewReader(bufio.NewReader(bytes.NewReader(block)))
	header, err := r.ReadMIMEHeader()
	if err != nil && header == nil {
		return textproto.MIMEHeader{}
	}
	return header
}
