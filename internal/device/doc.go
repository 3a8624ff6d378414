// Package device observes the host environment the nudge engine adapts to:
// battery level and charging state (sysfs with udev change events) and the
// platform version used to gate notification channel features.
package device
