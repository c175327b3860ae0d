// Package capture runs one end-to-end recording session.
//
// Runner.Record takes the per-device lock, opens a history entry, starts the
// selected recorder, and waits until the caller cancels, the requested
// duration elapses, the capture ends by itself, or the USB device is
// unplugged. It then stops the recorder within the configured stop timeout
// and records the outcome and artifact size.
package capture
