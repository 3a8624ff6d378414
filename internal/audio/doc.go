// Package audio plays the companion audio for delivered nudges by invoking
// an external player command. A simplified path skips source probing for
// battery-constrained delivery.
package audio
