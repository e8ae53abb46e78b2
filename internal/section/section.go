// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package section manages the machine-owned tail of a pull request body.
//
// A managed section starts at a marker made of two hidden HTML comments:
//
//	<!-- DO NOT REMOVE!! -->
//	<!-- bot: <purpose> -->
//
// Everything before the first marker for a purpose belongs to humans and is
// kept verbatim; everything from the marker on is rewritten on each update.
package section

import (
	"fmt"
	"regexp"
	"strings"
)

const guardLine = "<!-- DO NOT REMOVE!! -->"

var commitSHAPattern = regexp.MustCompile(`(?i)<!-- commit-sha: ([a-z0-9]+) -->`)

// Marker returns the canonical delimiter written in front of a managed section
func Marker(purpose string) string {
	return "\r\n" + guardLine + "\r\n" + tagLine(purpose) + "\r\n"
}

func tagLine(purpose string) string {
	return "<!-- bot: " + purpose + " -->"
}

// Section is a body split at the first marker for one purpose
type Section struct {
	// Prefix is the text preceding the marker, or the whole body when no marker exists
	Prefix string
	// Found reports whether a marker was present
	Found bool
	// Managed is the text following the marker
	Managed string
}

// Parse splits body at the first marker for purpose. Each line break of the
// marker may be "\r\n" or "\n", the leading one may be the start of the body,
// and the trailing one may be the end of the body.
func Parse(body, purpose string) Section {
	tag := tagLine(purpose)

	for from := 0; from < len(body); {
		i := strings.Index(body[from:], guardLine)
		if i < 0 {
			break
		}
		start := from + i
		from = start + len(guardLine)

		prefixEnd, ok := lineStart(body, start)
		if !ok {
			continue
		}
		end, ok := tagAfter(body, from, tag)
		if !ok {
			continue
		}
		return Section{Prefix: body[:prefixEnd], Found: true, Managed: body[end:]}
	}

	return Section{Prefix: body}
}

// Compose replaces the managed section of body with fragment, appending a new
// section when none exists.
func Compose(body, purpose, fragment string) string {
	return Parse(body, purpose).Prefix + Marker(purpose) + fragment
}

// CommitSHA extracts the commit recorded by a previous update
func CommitSHA(body string) (string, bool) {
	m := commitSHAPattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// CommitSHAComment renders the hidden comment CommitSHA looks for
func CommitSHAComment(sha string) string {
	return fmt.Sprintf("<!-- commit-sha: %s -->", sha)
}

// lineStart reports whether the guard at start begins a line and returns
// where the prefix ends (before the line break).
func lineStart(body string, start int) (int, bool) {
	switch {
	case start == 0:
		return 0, true
	case body[start-1] != '\n':
		return 0, false
	case start >= 2 && body[start-2] == '\r':
		return start - 2, true
	default:
		return start - 1, true
	}
}

// tagAfter matches "<break><tag><break>" at i and returns the end offset
func tagAfter(body string, i int, tag string) (int, bool) {
	i, ok := lineBreak(body, i)
	if !ok || !strings.HasPrefix(body[i:], tag) {
		return 0, false
	}
	i += len(tag)
	if i == len(body) {
		return i, true
	}
	return lineBreak(body, i)
}

func lineBreak(s string, i int) (int, bool) {
	switch {
	case strings.HasPrefix(s[i:], "\r\n"):
		return i + 2, true
	case strings.HasPrefix(s[i:], "\n"):
		return i + 1, true
	}
	return i, false
}
