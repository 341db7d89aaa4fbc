package xmldict

import (
	"iter"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/eslsoft/jamdict/internal/entity"
)

// elements yields the element children of n in document order.
func elements(n *xmlquery.Node) iter.Seq[*xmlquery.Node] {
	return func(yield func(*xmlquery.Node) bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xmlquery.ElementNode {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

func text(n *xmlquery.Node) string {
	return strings.TrimSpace(n.InnerText())
}

// attr returns the value of the attribute with the given local name. xml:lang is matched as "lang".
func attr(n *xmlquery.Node, local, fallback string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return fallback
}

// leafCounter enforces single-valued children.
type leafCounter map[string]int

func (c leafCounter) once(source string, parent, child *xmlquery.Node) error {
	c[child.Data]++
	if c[child.Data] > 1 {
		return &entity.ParseError{Source: source, Parent: parent.Data, Tag: child.Data, Reason: "duplicated single-valued element"}
	}
	return nil
}

func unknownTag(source string, parent, child *xmlquery.Node) error {
	return &entity.ParseError{Source: source, Parent: parent.Data, Tag: child.Data, Reason: "unknown element"}
}

func wrap(source string, parent, child *xmlquery.Node, err error) error {
	return &entity.ParseError{Source: source, Parent: parent.Data, Tag: child.Data, Reason: err.Error(), Err: err}
}
