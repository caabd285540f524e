package engine

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Marker is an interaction anchor found in question text.
type Marker struct {
	InteractionID string `json:"interactionId"`
	Markup        string `json:"markup"`
}

// Extraction is question text with its interaction anchors removed.
type Extraction struct {
	Text    string
	Markers []Marker
}

// ExtractMarkers finds every <a> whose href equals reference exactly, records the trimmed
// text of its first text child as the interaction id plus its byte-exact markup, and strips
// it from the text. Anchors left open at end of input are kept as plain text.
func ExtractMarkers(text, reference string) (Extraction, error) {
	z := html.NewTokenizer(strings.NewReader(text))

	var (
		out     strings.Builder
		markers []Marker
		offset  int
		start   = -1
		id      string
		gotText bool
	)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return Extraction{}, err
			}
			break
		}

		end := offset + len(z.Raw())
		switch {
		case start < 0 && tt == html.StartTagToken && isMarkerStart(z, reference):
			start, id, gotText = offset, "", false
		case start >= 0 && tt == html.TextToken && !gotText:
			id = strings.TrimSpace(string(z.Text()))
			gotText = true
		case start >= 0 && tt == html.EndTagToken && isAnchorEnd(z):
			markers = append(markers, Marker{InteractionID: id, Markup: text[start:end]})
			start = -1
		case start < 0:
			out.WriteString(text[offset:end])
		}
		offset = end
	}

	if start >= 0 {
		out.WriteString(text[start:offset])
	}
	if offset < len(text) {
		out.WriteString(text[offset:])
	}

	return Extraction{Text: out.String(), Markers: markers}, nil
}

// RestoreMarkers appends the captured markup to the end of text. The original anchor
// position is not tracked.
func RestoreMarkers(text string, markers []Marker) string {
	if len(markers) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	for _, m := range markers {
		b.WriteString(m.Markup)
	}
	return b.String()
}

func isMarkerStart(z *html.Tokenizer, reference string) bool {
	name, hasAttr := z.TagName()
	if atom.Lookup(name) != atom.A {
		return false
	}
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		if string(key) == "href" && string(val) == reference {
			return true
		}
	}
	return false
}

func isAnchorEnd(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	return atom.Lookup(name) == atom.A
}

// normalizeHTML re-serialises an HTML fragment so entities and markup match what a
// browser would produce for the same option text.
func normalizeHTML(s string) string {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return s
	}
	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return s
		}
	}
	return b.String()
}
