// Package notify sends freedesktop desktop notifications over D-Bus when
// an event fires or its cue fails to play.
package notify
