package twiml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrTemplateNotFound reports a stem outside the closed catalog.
	ErrTemplateNotFound = errors.New("twiml: template not found")

	// ErrPlaceholderUnresolved reports a {name} token with no supplied value.
	// Placeholders are never passed through as literal text.
	ErrPlaceholderUnresolved = errors.New("twiml: placeholder unresolved")

	// ErrMalformedTemplate reports a document that failed structural checks.
	// It indicates a broken release, not bad caller input.
	ErrMalformedTemplate = errors.New("twiml: malformed template")
)

// Render loads the stem's document, substitutes placeholders with the
// XML-escaped values, and returns the final TwiML string.
func Render(stem string, values map[string]string) (string, error) {
	raw, err := load(stem)
	if err != nil {
		return "", err
	}
	if !Known(stem) {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, stem)
	}
	if err := checkDocument(raw); err != nil {
		return "", err
	}

	doc := string(raw)
	var missing []string
	for _, m := range placeholderRe.FindAllStringSubmatch(doc, -1) {
		name := m[1]
		v, ok := values[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		doc = strings.ReplaceAll(doc, "{"+name+"}", escape(v))
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %q needs %v", ErrPlaceholderUnresolved, stem, missing)
	}

	// Substituted values are escaped, so the output must still parse; if it
	// does not, the template itself is at fault.
	if err := checkDocument([]byte(doc)); err != nil {
		return "", err
	}
	return doc, nil
}

// checkDocument parses the document with a strict decoder. DOCTYPE declarations and
// processing instructions other than the standard xml header are rejected
// outright: templates never need them and external entity resolution (XXE)
// must stay impossible even if template sourcing changes later.
func checkDocument(raw []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	// No entity table: anything beyond the five built-ins (&lt; &gt; &amp;
	// &apos; &quot;) fails the parse in strict mode.
	dec.Strict = true

	sawElement := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedTemplate, err)
		}
		switch t := tok.(type) {
		case xml.Directive:
			return fmt.Errorf("%w: directives are not allowed", ErrMalformedTemplate)
		case xml.ProcInst:
			if t.Target != "xml" {
				return fmt.Errorf("%w: processing instruction %q not allowed", ErrMalformedTemplate, t.Target)
			}
		case xml.StartElement:
			sawElement = true
		}
	}
	if !sawElement {
		return fmt.Errorf("%w: no root element", ErrMalformedTemplate)
	}
	return nil
}

// escape renders v safe for both text and attribute positions.
func escape(v string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(v))
	return buf.String()
}
