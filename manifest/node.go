// Package manifest parses and mutates the `_setup.xml` install
// manifest embedded in Windows CE CAB installers: the directory and
// file characteristic tree that maps a display name to the CAB's
// internal 8.3 source name.
package manifest

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// attr is one ordered attribute, preserving the order attributes were
// read in so re-serialized manifests diff cleanly against the
// original.
type attr struct {
	Name  string
	Value string
}

// Node is a generic, mutable XML element: encoding/xml's struct-tag
// model only decodes into fixed schemas, so a `_setup.xml` tree (whose
// shape is only known at runtime) is represented with this instead.
type Node struct {
	Tag      string
	Attrs    []attr
	Children []*Node
	Text     string
}

// Attr returns the value of the named attribute and whether it was
// present.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets an existing attribute's value, or appends a new one if
// name is not already present.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, attr{Name: name, Value: value})
}

// Children of n whose Tag matches tag.
func (n *Node) childrenByTag(tag string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// FindChild returns the first direct child with the given tag whose
// attrName attribute equals attrValue, or nil.
func (n *Node) FindChild(tag, attrName, attrValue string) *Node {
	for _, c := range n.childrenByTag(tag) {
		if v, ok := c.Attr(attrName); ok && v == attrValue {
			return c
		}
	}
	return nil
}

// FindDescendant searches n's full subtree (depth-first, n itself
// excluded) for the first node with the given tag whose attrName
// attribute equals attrValue.
func (n *Node) FindDescendant(tag, attrName, attrValue string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			if v, ok := c.Attr(attrName); ok && v == attrValue {
				return c
			}
		}
		if found := c.FindDescendant(tag, attrName, attrValue); found != nil {
			return found
		}
	}
	return nil
}

// descendantsByTag collects every node strictly under n (n itself
// excluded) whose Tag equals tag, depth-first — matching
// ElementTree's `.//tag` search from a given element.
func (n *Node) descendantsByTag(tag string, out *[]*Node) {
	for _, c := range n.Children {
		if c.Tag == tag {
			*out = append(*out, c)
		}
		c.descendantsByTag(tag, out)
	}
}

// RemoveChild removes target from n.Children by identity. Reports
// whether a matching child was found.
func (n *Node) RemoveChild(target *Node) bool {
	for i, c := range n.Children {
		if c == target {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return true
		}
	}
	return false
}

// AppendChild appends child as the last child of n.
func (n *Node) AppendChild(child *Node) {
	n.Children = append(n.Children, child)
}

// Parse decodes an XML document into a Node tree rooted at the
// document's single top-level element.
func Parse(text string) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader([]byte(text)))
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("manifest: decoding xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		return parseElement(dec, start)
	}
}

func parseElement(dec *xml.Decoder, start xml.StartElement) (*Node, error) {
	n := &Node{Tag: start.Name.Local}
	for _, a := range start.Attr {
		n.Attrs = append(n.Attrs, attr{Name: a.Name.Local, Value: a.Value})
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("manifest: decoding <%s>: %w", n.Tag, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(dec, t)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		case xml.CharData:
			n.Text += string(t)
		case xml.EndElement:
			return n, nil
		}
	}
}

// Serialize renders n back to an XML document, UTF-8 encoded with no
// leading declaration (matching ElementTree.tostring's default).
func (n *Node) Serialize() []byte {
	var buf bytes.Buffer
	n.writeTo(&buf)
	return buf.Bytes()
}

func (n *Node) writeTo(buf *bytes.Buffer) {
	buf.WriteByte('<')
	buf.WriteString(n.Tag)
	for _, a := range n.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		xml.EscapeText(buf, []byte(a.Value))
		buf.WriteByte('"')
	}
	if len(n.Children) == 0 && n.Text == "" {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	xml.EscapeText(buf, []byte(n.Text))
	for _, c := range n.Children {
		c.writeTo(buf)
	}
	buf.WriteString("</")
	buf.WriteString(n.Tag)
	buf.WriteByte('>')
}
