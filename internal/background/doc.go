// Package background runs the periodic tasks behind nudge delivery: the
// unlock delivery check, daily window scheduling, and record cleanup. Task
// intervals and constraints adapt to battery state.
package background
