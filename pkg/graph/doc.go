// Package graph derives pipeline edges from component references and applies
// structural edits (rename, copy, delete) that keep nodes and edges consistent.
//
// Edges are never stored independently of configuration: they are recomputed
// from the reference expressions of every node, so a second Compose over the
// same nodes yields identical output.
package graph
