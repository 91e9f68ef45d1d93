package xsd

import (
	"github.com/CognitoIQ/go-xsd/fetch"
	"github.com/CognitoIQ/go-xsd/rewrite"
	"github.com/CognitoIQ/go-xsd/xmltree"
)

// A Resolver locates and retrieves the documents named by include,
// import, redefine and override directives. *fetch.Resolver is the
// default implementation.
type Resolver interface {
	// ResolveLocation returns the location of the document a
	// directive in the document at base refers to. An empty location
	// and a nil error mean the document is unknown, and the
	// directive is skipped.
	ResolveLocation(base, namespace, schemaLocation string) (string, error)
	Fetch(location string) (*xmltree.Element, error)
}

// A Transformer rewrites a fetched document for chameleon inclusion,
// redefine and override. rewrite.Engine is the default implementation.
type Transformer interface {
	Transform(doc *xmltree.Element, t rewrite.Template, p rewrite.Params) (*xmltree.Element, error)
}

// A Compiler compiles schema documents. Its configuration must not
// change while a compilation is in progress; a Compiler may otherwise
// be used for any number of compilations, concurrently.
type Compiler struct {
	logger      Logger
	loglevel    int
	resolver    Resolver
	transformer Transformer
}

func (c *Compiler) errorf(format string, v ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, v...)
	}
}
func (c *Compiler) logf(format string, v ...interface{}) {
	if c.logger != nil && c.loglevel > 0 {
		c.logger.Printf(format, v...)
	}
}
func (c *Compiler) debugf(format string, v ...interface{}) {
	if c.logger != nil && c.loglevel > 3 {
		c.logger.Printf(format, v...)
	}
}

// An Option is used to customize a Compiler.
type Option func(*Compiler) Option

// DefaultOptions are the options of a Compiler created by NewCompiler
// and used by the package-level Compile and Parse functions. Documents
// are retrieved with a fetch.Resolver and rewritten with a
// rewrite.Engine.
var DefaultOptions = []Option{
	WithResolver(fetch.New()),
	WithTransformer(rewrite.Engine{}),
}

// NewCompiler creates a Compiler configured with DefaultOptions,
// followed by opts.
func NewCompiler(opts ...Option) *Compiler {
	c := new(Compiler)
	c.Option(DefaultOptions...)
	c.Option(opts...)
	return c
}

// The Option method is used to configure an existing Compiler.
// The return value of the Option method can be used to revert the
// final option to its previous setting.
func (c *Compiler) Option(opts ...Option) (previous Option) {
	for _, opt := range opts {
		previous = opt(c)
	}
	return previous
}

// Types implementing the Logger interface can receive
// debug information from the compilation process.
// The Logger interface is implemented by *log.Logger.
type Logger interface {
	Printf(format string, v ...interface{})
}

// LogOutput specifies an optional Logger for warnings and debug
// information about the compilation process. Documents that cannot
// be retrieved are always reported here.
func LogOutput(l Logger) Option {
	return func(c *Compiler) Option {
		prev := c.logger
		c.logger = l
		return LogOutput(prev)
	}
}

// LogLevel sets the verbosity of messages sent to the error log
// configured with the LogOutput option. The level parameter should
// be a positive integer between 1 and 5, with 5 providing the greatest
// verbosity.
func LogLevel(level int) Option {
	return func(c *Compiler) Option {
		prev := c.loglevel
		c.loglevel = level
		return LogLevel(prev)
	}
}

// WithResolver sets the Resolver used to retrieve the documents named
// by directives. Without a Resolver, every directive is skipped.
func WithResolver(r Resolver) Option {
	return func(c *Compiler) Option {
		prev := c.resolver
		c.resolver = r
		return WithResolver(prev)
	}
}

// WithTransformer sets the Transformer used for chameleon inclusion,
// redefine and override. Without one, these directives fail with a
// TransformUnavailableError.
func WithTransformer(t Transformer) Option {
	return func(c *Compiler) Option {
		prev := c.transformer
		c.transformer = t
		return WithTransformer(prev)
	}
}
