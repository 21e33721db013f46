/*
Package session implements pipeline access and persistence orchestration.

It serializes read-modify-write cycles on stored recipes, combining in-process
locks (reference counted per pipeline) with an optional distributed lock so
several replicas can edit the same pipeline safely.
*/
package session
