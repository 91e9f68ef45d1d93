// Package fetch locates and retrieves XML Schema documents for the
// schema compiler. Documents are read from the local file system, over
// HTTP, or from a small set of well-known schemas bundled with the
// package. Retrieved documents are kept in a bounded cache.
package fetch // import "github.com/CognitoIQ/go-xsd/fetch"

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/CognitoIQ/go-xsd/xmltree"
)

// ErrNotFound is returned, wrapped, by Fetch when a document does not
// exist.
var ErrNotFound = errors.New("document not found")

// DefaultCacheSize is the number of documents a Resolver keeps unless
// configured otherwise.
const DefaultCacheSize = 128

const bundledScheme = "bundled:"

// A Resolver finds schema documents. The zero value is not usable;
// create Resolvers with New.
type Resolver struct {
	client  *http.Client
	catalog map[string]string
	size    int
	cache   *lru.Cache[string, []byte]
}

// An Option configures a Resolver. Like the options of the xsd
// package, it returns an Option that reverts the change.
type Option func(*Resolver) Option

// Client sets the HTTP client used for http and https locations. The
// default is http.DefaultClient.
func Client(c *http.Client) Option {
	return func(r *Resolver) Option {
		prev := r.client
		r.client = c
		return Client(prev)
	}
}

// Catalog maps namespaces to document locations. A catalog entry is
// used for every import of its namespace, in place of the
// schemaLocation given in the schema.
func Catalog(entries map[string]string) Option {
	return func(r *Resolver) Option {
		prev := r.catalog
		r.catalog = entries
		return Catalog(prev)
	}
}

// CacheSize sets the number of documents kept in memory. It takes
// effect when the Resolver is created.
func CacheSize(n int) Option {
	return func(r *Resolver) Option {
		prev := r.size
		r.size = n
		return CacheSize(prev)
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{client: http.DefaultClient, size: DefaultCacheSize}
	for _, opt := range opts {
		opt(r)
	}
	if r.size <= 0 {
		r.size = 1
	}
	cache, err := lru.New[string, []byte](r.size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	r.cache = cache
	return r
}

// ResolveLocation returns the location of the document referred to by
// a directive in the document at base. The hint is the directive's
// schemaLocation, and namespace is the imported namespace, if any. An
// empty location without an error means that the document cannot be
// located and should be skipped.
func (r *Resolver) ResolveLocation(base, namespace, hint string) (string, error) {
	if namespace != "" {
		if loc, ok := r.catalog[namespace]; ok {
			return loc, nil
		}
	}
	hint = strings.TrimSpace(hint)
	if hint == "" {
		if name, ok := wellKnown[namespace]; ok {
			return bundledScheme + name, nil
		}
		return "", nil
	}
	if name, ok := bundledURLs[hint]; ok {
		return bundledScheme + name, nil
	}

	ref, err := url.Parse(hint)
	if err != nil {
		return "", fmt.Errorf("invalid schema location %q: %v", hint, err)
	}
	// a one-letter scheme is a windows drive
	if len(ref.Scheme) > 1 {
		return hint, nil
	}
	if strings.HasPrefix(base, bundledScheme) {
		return bundledScheme + hint, nil
	}
	if b, err := url.Parse(base); err == nil && (b.Scheme == "http" || b.Scheme == "https") {
		loc := b.ResolveReference(ref).String()
		if name, ok := bundledURLs[loc]; ok {
			return bundledScheme + name, nil
		}
		return loc, nil
	}
	base = strings.TrimPrefix(base, "file://")
	if filepath.IsAbs(hint) || base == "" {
		return filepath.Clean(hint), nil
	}
	return filepath.Join(filepath.Dir(base), hint), nil
}

// Fetch retrieves and parses the document at location.
func (r *Resolver) Fetch(location string) (*xmltree.Element, error) {
	data, err := r.read(location)
	if err != nil {
		return nil, err
	}
	return xmltree.ParseLocation(location, data)
}

func (r *Resolver) read(location string) ([]byte, error) {
	if data, ok := r.cache.Get(location); ok {
		return data, nil
	}
	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(location, bundledScheme):
		var ok bool
		if data, ok = bundled[strings.TrimPrefix(location, bundledScheme)]; !ok {
			err = fmt.Errorf("%s: %w", location, ErrNotFound)
		}
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		data, err = r.get(location)
	default:
		data, err = os.ReadFile(strings.TrimPrefix(location, "file://"))
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%s: %w", location, ErrNotFound)
		}
	}
	if err != nil {
		return nil, err
	}
	r.cache.Add(location, data)
	return data, nil
}

func (r *Resolver) get(location string) ([]byte, error) {
	rsp, err := r.client.Get(location)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()
	switch {
	case rsp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", location, ErrNotFound)
	case rsp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s: %s", location, rsp.Status)
	}
	return io.ReadAll(rsp.Body)
}

// Cached reports whether the document at location is in the cache.
func (r *Resolver) Cached(location string) bool {
	return r.cache.Contains(location)
}
