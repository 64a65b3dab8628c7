package appxxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Element is one node of a parsed manifest document. Text is the
// trimmed character data directly inside the element, which manifest
// elements only carry when they have no child elements.
type Element struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []*Element
	Text     string
}

// Document is a parsed manifest plus the namespace prefixes its root
// declares, kept so the document can be written back with the same
// prefixes it was read with.
type Document struct {
	Root *Element

	// prefixes maps namespace URL to declared prefix. defaultNS is
	// the URL bound to unprefixed element names.
	prefixes  map[string]string
	defaultNS string
}

// Decode parses a manifest document from r.
func Decode(r io.Reader) (*Document, error) {
	root, err := parse(xml.NewDecoder(r), nil)
	if err != nil {
		return nil, err
	}

	if root == nil {
		return nil, errors.New("document has no root element")
	}

	doc := &Document{
		Root:     root,
		prefixes: map[string]string{},
	}

	for _, attr := range root.Attrs {
		switch {
		case attr.Name.Space == "xmlns":
			doc.prefixes[attr.Value] = attr.Name.Local
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			doc.defaultNS = attr.Value
		}
	}

	return doc, nil
}

// ParseFragment parses the top-level elements of an XML fragment,
// such as the body of a plugin config-file change.
func ParseFragment(fragment string) ([]*Element, error) {
	wrapper, err := parse(xml.NewDecoder(strings.NewReader("<fragment>"+fragment+"</fragment>")), nil)
	if err != nil {
		return nil, err
	}

	if wrapper == nil || len(wrapper.Children) == 0 {
		return nil, fmt.Errorf("fragment %q has no elements", fragment)
	}

	return wrapper.Children, nil
}

func parse(d *xml.Decoder, parent *Element) (*Element, error) {
	var first *Element

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return first, nil
		} else if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Name:  t.Name,
				Attrs: append([]xml.Attr{}, t.Attr...),
			}

			if _, err = parse(d, el); err != nil {
				return nil, err
			}

			if parent == nil {
				return el, nil
			}

			parent.Children = append(parent.Children, el)
			if first == nil {
				first = el
			}
		case xml.EndElement:
			return first, nil
		case xml.CharData:
			if parent != nil {
				parent.Text += string(bytes.TrimSpace(t))
			}
		}
	}
}

// Resolve walks an absolute selector path like /Package/Capabilities
// down from the document root, matching on local element names.
func (doc *Document) Resolve(selector string) (*Element, error) {
	var (
		el    = doc.Root
		names = strings.Split(strings.Trim(selector, "/"), "/")
	)

	if len(names) == 0 || names[0] != el.Name.Local {
		return nil, fmt.Errorf("selector %q does not match document root %q", selector, el.Name.Local)
	}

	for _, name := range names[1:] {
		var next *Element
		for _, child := range el.Children {
			if child.Name.Local == name {
				next = child
				break
			}
		}

		if next == nil {
			return nil, fmt.Errorf("selector %q not found in document", selector)
		}

		el = next
	}

	return el, nil
}

// Graft inserts the elements as children of el, before the first
// child named by the before list when given, otherwise at the end.
func (el *Element) Graft(children []*Element, before string) {
	at := len(el.Children)

	if before != "" {
		names := strings.FieldsFunc(before, func(r rune) bool {
			return r == ';' || r == ','
		})

	anchor:
		for i, child := range el.Children {
			for _, name := range names {
				if child.Name.Local == strings.TrimSpace(name) {
					at = i
					break anchor
				}
			}
		}
	}

	el.Children = append(el.Children[:at], append(append([]*Element{}, children...), el.Children[at:]...)...)
}

// Prune removes the first child of el structurally equal to each of
// the given elements. Elements with no structural match are skipped,
// not errors: removal of derived changes must tolerate entries that
// were never spliced in.
func (doc *Document) Prune(el *Element, children []*Element) {
	for _, target := range children {
		for i, child := range el.Children {
			if doc.equal(child, target) {
				el.Children = append(el.Children[:i], el.Children[i+1:]...)
				break
			}
		}
	}
}

// equal reports structural equality of two elements, comparing names
// as they render in this document so that a fragment's literal "uap"
// prefix matches a document element resolved to the uap namespace URL.
func (doc *Document) equal(a, b *Element) bool {
	if doc.renderName(a.Name) != doc.renderName(b.Name) || a.Text != b.Text || len(a.Attrs) != len(b.Attrs) || len(a.Children) != len(b.Children) {
		return false
	}

	for _, attr := range a.Attrs {
		var found bool
		for _, other := range b.Attrs {
			if doc.renderAttrName(attr.Name) == doc.renderAttrName(other.Name) && attr.Value == other.Value {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	for i, child := range a.Children {
		if !doc.equal(child, b.Children[i]) {
			return false
		}
	}

	return true
}

func (doc *Document) renderName(name xml.Name) string {
	if name.Space == "" || name.Space == doc.defaultNS {
		return name.Local
	}

	if prefix, ok := doc.prefixes[name.Space]; ok {
		return prefix + ":" + name.Local
	}

	return name.Space + ":" + name.Local
}

func (doc *Document) renderAttrName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}

	if name.Space == "xmlns" {
		return "xmlns:" + name.Local
	}

	if prefix, ok := doc.prefixes[name.Space]; ok {
		return prefix + ":" + name.Local
	}

	return name.Space + ":" + name.Local
}

// Encode writes the document back out with stable four-space
// indentation and the namespace prefixes it was read with.
func (doc *Document) Encode(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	doc.encode(&sb, doc.Root, 0)

	_, err := io.WriteString(w, sb.String())
	return err
}

func (doc *Document) encode(sb *strings.Builder, el *Element, depth int) {
	indent := strings.Repeat("    ", depth)

	sb.WriteString(indent)
	sb.WriteString("<")
	sb.WriteString(doc.renderName(el.Name))

	for _, attr := range el.Attrs {
		sb.WriteString(" ")
		sb.WriteString(doc.renderAttrName(attr.Name))
		sb.WriteString(`="`)
		sb.WriteString(escape(attr.Value))
		sb.WriteString(`"`)
	}

	if len(el.Children) == 0 && el.Text == "" {
		sb.WriteString(" />\n")
		return
	}

	sb.WriteString(">")

	if len(el.Children) == 0 {
		sb.WriteString(escape(el.Text))
	} else {
		sb.WriteString("\n")
		for _, child := range el.Children {
			doc.encode(sb, child, depth+1)
		}
		sb.WriteString(indent)
	}

	sb.WriteString("</")
	sb.WriteString(doc.renderName(el.Name))
	sb.WriteString(">\n")
}

func escape(s string) string {
	var sb strings.Builder
	if err := xml.EscapeText(&sb, []byte(s)); err != nil {
		return s
	}

	return sb.String()
}
