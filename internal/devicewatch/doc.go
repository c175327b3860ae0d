// Package devicewatch notices when the USB device being recorded is
// unplugged.
//
// The watcher subscribes to udev netlink events and reports removals of
// usb_device nodes whose short serial matches the device under recording.
// Emulators and network-attached devices have no USB node, so no watcher is
// created for them. Failing to open the netlink socket only disables
// detach detection; recording carries on.
package devicewatch
