// Package commandline contains helper types for collecting
// command-line arguments.
package commandline // import "github.com/CognitoIQ/go-xsd/internal/commandline"

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

var (
	_ pflag.Value = (*Catalog)(nil)
	_ pflag.Value = (*Strings)(nil)
)

// A CatalogEntry maps a namespace to the location of its schema
// document. On the command line, entries are written "namespace=location".
type CatalogEntry struct {
	Namespace string
	Location  string
}

// A Catalog collects catalog entries from the command line, in the
// order provided. A later entry for the same namespace wins.
type Catalog []CatalogEntry

func (c *Catalog) String() string {
	var buf bytes.Buffer
	for i, item := range *c {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%s=%s", item.Namespace, item.Location)
	}
	return buf.String()
}

// Set adds an entry to the Catalog. The namespace may itself contain
// '=', so the entry is split at the last one.
func (c *Catalog) Set(s string) error {
	i := strings.LastIndex(s, "=")
	if i < 0 {
		return fmt.Errorf("invalid catalog entry %q. must be \"namespace=location\"", s)
	}
	ns, loc := strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	if loc == "" {
		return fmt.Errorf("invalid catalog entry %q: empty location", s)
	}
	*c = append(*c, CatalogEntry{Namespace: ns, Location: loc})
	return nil
}

func (c *Catalog) Type() string { return "namespace=location" }

// Map returns the catalog as a map from namespace to location.
func (c *Catalog) Map() map[string]string {
	m := make(map[string]string, len(*c))
	for _, item := range *c {
		m[item.Namespace] = item.Location
	}
	return m
}

// The Strings type can be used to collect multiple command-line options,
// in the order provided.
type Strings []string

func (s *Strings) String() string {
	return strings.Join(*s, ",")
}

func (s *Strings) Set(val string) error {
	*s = append(*s, val)
	return nil
}

func (s *Strings) Type() string { return "strings" }
