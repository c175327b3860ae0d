package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"screenrec/internal/config"
	"screenrec/internal/deps"
	"screenrec/internal/device"
	"screenrec/internal/platform"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries the configured platform and
// mechanism need. scrcpy is optional unless it is the configured mechanism.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	p, err := platform.Parse(cfg.Device.Platform)
	if err != nil || p != platform.Android {
		return nil
	}
	requirements := []deps.Requirement{
		{
			Name:        "adb",
			Command:     cfg.Device.ADBBinary,
			Description: "Required to control Android devices",
			Optional:    cfg.Recording.Mechanism == config.MechanismScrcpy,
		},
		{
			Name:        "scrcpy",
			Command:     cfg.Scrcpy.Executable,
			OverrideEnv: cfg.Scrcpy.OverrideEnv,
			Description: "Records the screen without on-device limits",
			Optional:    cfg.Recording.Mechanism != config.MechanismScrcpy,
		},
	}
	return deps.CheckBinaries(requirements)
}

// DeviceLister lists devices known to adb.
type DeviceLister interface {
	Devices(ctx context.Context) ([]device.Device, error)
}

// CheckDevice verifies that the configured device (or exactly one device when
// no serial is configured) is online.
func CheckDevice(ctx context.Context, lister DeviceLister, serial string) Result {
	const name = "Device"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	devices, err := lister.Devices(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("adb devices failed (%v)", err)}
	}

	serial = strings.TrimSpace(serial)
	if serial != "" {
		for _, d := range devices {
			if d.Serial != serial {
				continue
			}
			if !d.Online() {
				return Result{Name: name, Detail: fmt.Sprintf("%s is %s", serial, d.State)}
			}
			return Result{Name: name, Passed: true, Detail: serial + " online"}
		}
		return Result{Name: name, Detail: serial + " not connected"}
	}

	var online []string
	for _, d := range devices {
		if d.Online() {
			online = append(online, d.Serial)
		}
	}
	switch len(online) {
	case 0:
		return Result{Name: name, Detail: "no device connected"}
	case 1:
		return Result{Name: name, Passed: true, Detail: online[0] + " online"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%d devices connected; set device.serial or ANDROID_SERIAL", len(online))}
	}
}
