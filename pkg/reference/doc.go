// Package reference finds cross-component addresses inside component configuration.
//
// Two syntaxes exist:
//
//	{ openai_0.output.texts }     reference: the whole string is the address, creates an edge
//	Hello {{ start.name }}!       template: any number of addresses embedded in text
//
// The first path segment names the target component, the rest addresses one of
// its outputs. Malformed expressions are not errors: they are treated as plain
// text and skipped.
package reference
