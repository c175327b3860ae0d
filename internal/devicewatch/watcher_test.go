package devicewatch

import (
	"context"
	"testing"

	"github.com/pilebones/go-udev/netlink"
)

func TestNewSkipsNonUSBSerials(t *testing.T) {
	for _, serial := range []string{"", "  ", "emulator-5554", "192.168.1.20:5555", "adb-R58M12-abc._adb-tls-connect._tcp:1"} {
		if w := New(serial, nil, nil); w != nil {
			t.Errorf("expected nil watcher for %q", serial)
		}
	}
	w := New("R58M12ABCDE", nil, nil)
	if w == nil {
		t.Fatal("expected watcher for usb serial")
	}
	if w.serial != "R58M12ABCDE" {
		t.Fatalf("unexpected serial %q", w.serial)
	}
}

func TestNilWatcherIsSafe(t *testing.T) {
	var w *Watcher
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil watcher should return nil, got: %v", err)
	}
	w.Stop()
	if w.Running() {
		t.Error("expected nil watcher to report not running")
	}
}

func TestStopWithoutStart(t *testing.T) {
	w := New("R58M12ABCDE", nil, nil)
	w.Stop()
	w.Stop()
	if w.Running() {
		t.Error("expected watcher to report not running")
	}
}

func TestBuildMatcher(t *testing.T) {
	matcher := buildMatcher()

	removal := netlink.UEvent{
		Action: netlink.REMOVE,
		Env: map[string]string{
			"SUBSYSTEM": "usb",
			"DEVTYPE":   "usb_device",
		},
	}
	if !matcher.Evaluate(removal) {
		t.Error("expected matcher to accept usb_device removal")
	}

	add := netlink.UEvent{
		Action: netlink.ADD,
		Env: map[string]string{
			"SUBSYSTEM": "usb",
			"DEVTYPE":   "usb_device",
		},
	}
	if matcher.Evaluate(add) {
		t.Error("expected matcher to reject ADD action")
	}

	iface := netlink.UEvent{
		Action: netlink.REMOVE,
		Env: map[string]string{
			"SUBSYSTEM": "usb",
			"DEVTYPE":   "usb_interface",
		},
	}
	if matcher.Evaluate(iface) {
		t.Error("expected matcher to reject usb_interface removal")
	}
}

func TestHandleEvent(t *testing.T) {
	t.Run("calls handler for watched serial", func(t *testing.T) {
		var got string
		w := New("R58M12ABCDE", nil, func(serial string) { got = serial })
		w.handleEvent(netlink.UEvent{
			Action: netlink.REMOVE,
			Env:    map[string]string{"ID_SERIAL_SHORT": "R58M12ABCDE"},
		})
		if got != "R58M12ABCDE" {
			t.Fatalf("expected handler to receive serial, got %q", got)
		}
	})

	t.Run("falls back to ID_SERIAL", func(t *testing.T) {
		called := false
		w := New("R58M12ABCDE", nil, func(string) { called = true })
		w.handleEvent(netlink.UEvent{
			Action: netlink.REMOVE,
			Env:    map[string]string{"ID_SERIAL": "SAMSUNG_SAMSUNG_Android_R58M12ABCDE"},
		})
		if !called {
			t.Fatal("expected handler to be called")
		}
	})

	t.Run("ignores other devices", func(t *testing.T) {
		called := false
		w := New("R58M12ABCDE", nil, func(string) { called = true })
		w.handleEvent(netlink.UEvent{
			Action: netlink.REMOVE,
			Env:    map[string]string{"ID_SERIAL_SHORT": "0123456789"},
		})
		if called {
			t.Fatal("handler should not be called for another device")
		}
	})

	t.Run("ignores events without serial", func(t *testing.T) {
		called := false
		w := New("R58M12ABCDE", nil, func(string) { called = true })
		w.handleEvent(netlink.UEvent{Action: netlink.REMOVE, Env: map[string]string{}})
		if called {
			t.Fatal("handler should not be called without serial")
		}
	})
}
