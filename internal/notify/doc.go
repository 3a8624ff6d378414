// Package notify abstracts notification delivery behind a Transport
// interface. The production transport posts to an ntfy topic; a noop
// transport stands in when no topic is configured so the rest of the system
// keeps functioning without user-visible delivery.
package notify
