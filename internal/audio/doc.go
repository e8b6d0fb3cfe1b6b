// Package audio plays the cue that announces a due event.
// Cues are WAV, OGG or MP3 files kept in one directory per cue category;
// one is picked at random on every trigger, decoded with the beep library
// and played to completion on the resolved output device.
package audio
