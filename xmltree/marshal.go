package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Marshal produces the XML encoding of an Element as a self-contained
// document. Namespace declarations needed to resolve the prefixes of
// the element and its descendants are added where they are introduced,
// so the output of Marshal can be read back with Parse even if the
// Element was cut out of a larger document or modified.
func Marshal(el *Element) []byte {
	var buf bytes.Buffer
	if err := Encode(&buf, el); err != nil {
		// bytes.Buffer.Write should never return an error
		panic(err)
	}
	return buf.Bytes()
}

// Encode writes the XML encoding of the Element to w.
// Encode returns any errors encountered writing to w.
func Encode(w io.Writer, el *Element) error {
	e := encoder{w: w}
	e.encode(el, nil, 0)
	return e.err
}

// String returns the XML encoding of an Element
// and its children as a string.
func (el *Element) String() string {
	return string(Marshal(el))
}

type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) printf(format string, v ...interface{}) {
	if e.err == nil {
		_, e.err = fmt.Fprintf(e.w, format, v...)
	}
}

func (e *encoder) escape(s string) {
	if e.err == nil {
		e.err = xml.EscapeText(e.w, []byte(s))
	}
}

func (e *encoder) encode(el *Element, parent *Scope, depth int) {
	if depth > recursionLimit {
		return
	}
	e.printf("<%s", tagName(el))
	var extra bindings
	for _, attr := range el.StartElement.Attr {
		if attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns") {
			continue
		}
		name := attr.Name.Local
		if attr.Name.Space != "" {
			// unprefixed attributes are never in the default namespace
			if qname := el.Prefix(attr.Name); strings.Contains(qname, ":") {
				name = qname
			} else {
				prefix := extra.prefix(el, attr.Name.Space)
				name = prefix + ":" + attr.Name.Local
			}
		}
		e.printf(" %s=\"", name)
		e.escape(attr.Value)
		e.printf("\"")
	}
	for _, ns := range append(diffScope(parent, &el.Scope), extra...) {
		if ns.Local == "" {
			e.printf(" xmlns=\"")
		} else {
			e.printf(" xmlns:%s=\"", ns.Local)
		}
		e.escape(ns.Space)
		e.printf("\"")
	}
	e.printf(">")
	if len(el.Children) == 0 {
		if len(el.Content) > 0 && e.err == nil {
			_, e.err = e.w.Write(el.Content)
		}
	}
	for i := range el.Children {
		e.encode(&el.Children[i], &el.Scope, depth+1)
	}
	e.printf("</%s>", tagName(el))
}

// bindings are the prefixes an encoder invents for attribute
// namespaces that have none in scope.
type bindings []xml.Name

func (b *bindings) prefix(el *Element, space string) string {
	for _, ns := range *b {
		if ns.Space == space {
			return ns.Local
		}
	}
	for n := len(*b) + 1; ; n++ {
		prefix := "ns" + strconv.Itoa(n)
		if _, taken := el.Lookup(prefix); !taken {
			*b = append(*b, xml.Name{Space: space, Local: prefix})
			return prefix
		}
	}
}

func tagName(el *Element) string {
	if el.Name.Space == "" {
		return el.Name.Local
	}
	if qname := el.Prefix(el.Name); qname != "" {
		return qname
	}
	return el.Name.Local
}

// diffScope returns the bindings of child that are not already in
// effect in parent.
func diffScope(parent, child *Scope) []xml.Name {
	if parent == nil {
		return child.ns
	}
	var result []xml.Name
	for _, ns := range child.ns {
		if space, ok := parent.Lookup(ns.Local); ok && space == ns.Space {
			continue
		}
		result = append(result, ns)
	}
	return result
}
