// Package screenrecord records the screen of an Android device with the
// on-device screenrecord command.
//
// The capture runs as a shell command on the device; stopping interrupts it,
// waits for the command to exit so the MP4 is finalized, and pulls the file
// to the host.
package screenrecord
