package xsd

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/CognitoIQ/go-xsd/internal/grammar"
	"github.com/CognitoIQ/go-xsd/internal/lazy"
	"github.com/CognitoIQ/go-xsd/xmltree"
)

// When working with an xml tree structure, we naturally have some
// pretty deep function calls.  To save some typing, we use panic/recover
// to bubble the errors up. These panics are not exposed to the user.
type parseError struct {
	err  error
	path []*xmltree.Element
}

func (err parseError) Error() string { return err.err.Error() }
func (err parseError) Unwrap() error { return err.err }

func stop(err error) {
	panic(parseError{err: err})
}

func walk(root *xmltree.Element, fn func(*xmltree.Element)) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(parseError); ok {
				err.path = append(err.path, root)
				panic(err)
			} else {
				panic(r)
			}
		}
	}()
	for i := 0; i < len(root.Children); i++ {
		// We don't care about elements outside of the
		// XML schema namespace
		if root.Children[i].Name.Space != schemaNS {
			continue
		}
		fn(&root.Children[i])
	}
}

// defer catchParseError(&err)
func catchParseError(err *error) {
	if r := recover(); r != nil {
		pe, ok := r.(parseError)
		if !ok {
			panic(r)
		}
		*err = pe.err
		// errors raised without a node are attributed to the
		// innermost element being walked
		var s sited
		if errors.As(pe.err, &s) && s.site().Node == nil && len(pe.path) > 0 {
			s.site().Node = pe.path[0]
		}
	}
}

// check destructures el according to rule, stopping with a
// GrammarViolationError if it does not fit.
func check(el *xmltree.Element, rule grammar.Rule) *grammar.Form {
	form, err := grammar.Check(el, rule)
	if err != nil {
		var v *grammar.Violation
		if errors.As(err, &v) {
			stop(&GrammarViolationError{Site: at(v.Element), Message: v.Message})
		}
		stop(err)
	}
	return form
}

// must forces c, stopping with its error.
func must[T any](c *lazy.Cell[T]) T {
	v, err := c.Get()
	if err != nil {
		stop(err)
	}
	return v
}

// newCell returns a cell computing fn. fn reports errors with stop,
// and may call the accessors of other components, which panic with
// the error of a failed cell. A cell that finds itself being forced
// recursively reports a CyclicResolutionError at node.
func newCell[T any](label string, node *xmltree.Element, fn func() T) *lazy.Cell[T] {
	return lazy.New(label, func() (v T, err error) {
		defer func() {
			if r := recover(); r != nil {
				switch e := r.(type) {
				case parseError:
					err = e.err
				case runtime.Error:
					panic(r)
				case error:
					err = e
				default:
					panic(r)
				}
				var cycle *lazy.CycleError
				if errors.As(err, &cycle) {
					err = &CyclicResolutionError{Site: at(node), Label: label}
				}
			}
		}()
		return fn(), nil
	})
}

// cell is newCell, registering the cell so that the resolve pass of
// Compile forces it.
func cell[T any](s *Schema, label string, node *xmltree.Element, fn func() T) *lazy.Cell[T] {
	c := newCell(label, node, fn)
	s.pending = append(s.pending, func() error {
		_, err := c.Get()
		return err
	})
	return c
}

func describeNode(el *xmltree.Element) string {
	if name := el.Attr("", "name"); name != "" {
		return fmt.Sprintf("%s %q", el.Name.Local, name)
	}
	if ref := el.Attr("", "ref"); ref != "" {
		return fmt.Sprintf("%s ref %q", el.Name.Local, ref)
	}
	return el.Name.Local
}
