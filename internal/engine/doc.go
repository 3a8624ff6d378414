// Package engine implements the nudge delivery core: permission-gated
// initialization with crash recovery, timezone-correct window scheduling,
// cap- and cooldown-guarded unlock delivery, and exactly-once response
// routing. Collaborators (content, notification transport, permission gate,
// device monitor, audio player) are injected so every policy is testable
// with fakes.
package engine
