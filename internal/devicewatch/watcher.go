package devicewatch

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"screenrec/internal/logging"
)

// Watcher listens for udev netlink events and calls onDetach when the watched
// device is removed.
type Watcher struct {
	logger   *slog.Logger
	serial   string
	onDetach func(serial string)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// New returns a watcher for serial, or nil when the serial cannot belong to a
// USB device.
func New(serial string, logger *slog.Logger, onDetach func(serial string)) *Watcher {
	serial = strings.TrimSpace(serial)
	if !isUSBSerial(serial) {
		return nil
	}
	return &Watcher{
		logger:   logging.NewComponentLogger(logger, "devicewatch"),
		serial:   serial,
		onDetach: onDetach,
	}
}

// isUSBSerial rejects serials adb assigns to emulators and TCP connections.
func isUSBSerial(serial string) bool {
	if serial == "" {
		return false
	}
	if strings.HasPrefix(serial, "emulator-") || strings.Contains(serial, ":") {
		return false
	}
	return true
}

// Start begins listening for udev netlink events.
func (w *Watcher) Start(ctx context.Context) error {
	if w == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(w.logger, "failed to connect to netlink socket; device detach will not be detected",
			"netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the process may open netlink sockets"),
			logging.String(logging.FieldImpact, "recording will not stop automatically when the device is unplugged"),
		)
		return nil
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.running = true

	quit := w.quit
	go w.monitorLoop(ctx, conn, quit)

	w.logger.Debug("device watcher started",
		logging.String(logging.FieldEventType, "devicewatch_started"),
		logging.String(logging.FieldDevice, w.serial),
	)
	return nil
}

// Stop shuts down the watcher.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	w.running = false

	w.logger.Debug("device watcher stopped",
		logging.String(logging.FieldEventType, "devicewatch_stopped"),
	)
}

// Running reports whether the watcher is active.
func (w *Watcher) Running() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			w.handleEvent(uevent)
		case err := <-errs:
			logging.WarnWithContext(w.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "device detach may go unnoticed"),
			)
		}
	}
}

// buildMatcher matches removals of whole USB devices.
func buildMatcher() netlink.Matcher {
	action := "remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "usb",
			"DEVTYPE":   "usb_device",
		},
	})
	return rules
}

func (w *Watcher) handleEvent(uevent netlink.UEvent) {
	serial := eventSerial(uevent)
	if serial == "" {
		w.logger.Debug("ignoring usb removal without serial",
			logging.String("kobj", uevent.KObj),
		)
		return
	}
	if serial != w.serial {
		w.logger.Debug("ignoring removal of another usb device",
			logging.String(logging.FieldDevice, serial),
		)
		return
	}

	w.logger.Info("recorded device was unplugged",
		logging.String(logging.FieldEventType, "device_detached"),
		logging.String(logging.FieldDevice, serial),
	)
	if w.onDetach != nil {
		w.onDetach(serial)
	}
}

// eventSerial reads the device serial from a uevent.
func eventSerial(uevent netlink.UEvent) string {
	if serial := strings.TrimSpace(uevent.Env["ID_SERIAL_SHORT"]); serial != "" {
		return serial
	}
	// ID_SERIAL is "<vendor>_<model>_<serial>" when the short form is absent.
	if full := strings.TrimSpace(uevent.Env["ID_SERIAL"]); full != "" {
		if idx := strings.LastIndex(full, "_"); idx >= 0 {
			return full[idx+1:]
		}
		return full
	}
	return ""
}
