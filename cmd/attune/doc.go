// Command attune is the CLI for controlling the attune daemon over its Unix
// socket.
package main
