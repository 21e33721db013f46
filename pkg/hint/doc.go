// Package hint offers upstream outputs a text field may reference while it is being edited.
//
// Filter is the pure selection step. Session drives it from keystrokes:
//
//	Idle -> Armed      '{' typed
//	Armed -> Selecting highlight moved with Next/Prev
//	Armed|Selecting -> Committed -> Idle
//	                   selection inserted at the trigger position
//	any -> Idle        blur, escape, or cursor leaving the hint span
package hint
