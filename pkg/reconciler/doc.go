// Package reconciler turns a stream of form edits on one node into store commits.
//
// Every Edit restarts a short debounce window. When the window elapses the
// latest values are validated against the node's definition schema and, if
// valid and actually different, merged into the node configuration. The edge
// set is recomposed and the recipe is marked dirty in the same store update.
//
// Each edit takes a sequence number. A validation only commits if its number
// is still the latest, so a superseded edit can never overwrite a newer one.
package reconciler
