// Package ipc implements JSON-RPC control of the attune daemon over a Unix
// domain socket, with a typed client for the CLI.
package ipc
