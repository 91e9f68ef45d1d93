/*
xsdparse compiles XML Schema documents and prints the components they
define.

Usage:

	xsdparse [-c config] [--catalog namespace=location]... [-v level] file.xsd ...

Each file is compiled together with every document it includes,
imports, redefines or overrides. The type definitions, declarations and
group definitions of the resulting schema are printed one per line,
sorted by kind and then by name. Documents that cannot be retrieved
are reported on standard error and skipped; any other problem stops
the command with a non-zero exit status.

The --catalog flag maps a namespace to the location of its schema
document, overriding the schemaLocation of every import of that
namespace. It may be given more than once.

Settings may also be read from a YAML, TOML or JSON file named with
-c. Flags given on the command line take precedence. For example:

	verbose: 1
	cache_size: 64
	catalog:
	  - http://www.opengis.net/gml/3.2=schemas/gml.xsd
*/
package main
