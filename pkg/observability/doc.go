/*
Package observability turns builder lifecycle events into Prometheus metrics
and log records.

Hooks from several sources are combined with ChainHooks and passed to the
builder through pipebuilder.WithLifecycleHooks.
*/
package observability
