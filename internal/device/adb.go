// internal/device/adb.go
package device

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ADB drives an Android device through the adb binary. Every call shells out;
// the process boundary is treated as opaque, potentially slow device I/O.
type ADB struct {
	path   string // adb binary, defaults to "adb" on PATH
	serial string
	logger *zap.Logger
}

// NewADB creates an actuator bound to the device with the given serial.
// An empty serial lets adb pick the sole connected device.
func NewADB(path, serial string, logger *zap.Logger) *ADB {
	if path == "" {
		path = "adb"
	}
	return &ADB{path: path, serial: serial, logger: logger}
}

// args prefixes the device selector when a serial is configured.
func (a *ADB) args(rest ...string) []string {
	if a.serial == "" {
		return rest
	}
	return append([]string{"-s", a.serial}, rest...)
}

// Tap implements Actuator via `adb shell input tap`.
func (a *ADB) Tap(ctx context.Context, x, y int) error {
	args := a.args("shell", "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
	if out, err := exec.CommandContext(ctx, a.path, args...).CombinedOutput(); err != nil {
		a.logger.Debug("adb tap failed",
			zap.Int("x", x), zap.Int("y", y),
			zap.ByteString("output", out), zap.Error(err))
		return fmt.Errorf("adb input tap: %w: %v", ErrDeviceUnavailable, err)
	}
	return nil
}

// CaptureFrame implements Actuator via `adb exec-out screencap -p`, returning
// the PNG bytes directly from stdout.
func (a *ADB) CaptureFrame(ctx context.Context) ([]byte, error) {
	args := a.args("exec-out", "screencap", "-p")
	out, err := exec.CommandContext(ctx, a.path, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("adb screencap: %w: %v", ErrDeviceUnavailable, err)
	}
	return out, nil
}

var sizeRe = regexp.MustCompile(`(\d+)x(\d+)`)

// ScreenDimensions implements Actuator via `adb shell wm size`.
// Example output: "Physical size: 1080x2340".
func (a *ADB) ScreenDimensions(ctx context.Context) (int, int, error) {
	args := a.args("shell", "wm", "size")
	out, err := exec.CommandContext(ctx, a.path, args...).Output()
	if err != nil {
		return 0, 0, fmt.Errorf("adb wm size: %w: %v", ErrDeviceUnavailable, err)
	}
	w, h, err := parseScreenSize(string(out))
	if err != nil {
		return 0, 0, err
	}
	a.logger.Debug("screen dimensions", zap.Int("width", w), zap.Int("height", h))
	return w, h, nil
}

func parseScreenSize(out string) (int, int, error) {
	m := sizeRe.FindStringSubmatch(out)
	if m == nil {
		return 0, 0, fmt.Errorf("could not parse screen size from %q", strings.TrimSpace(out))
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	return w, h, nil
}

// Info describes one connected device.
type Info struct {
	Serial  string
	Network bool
}

// ListDevices enumerates devices reported by `adb devices -l`.
func ListDevices(ctx context.Context, path string) ([]Info, error) {
	if path == "" {
		path = "adb"
	}
	out, err := exec.CommandContext(ctx, path, "devices", "-l").Output()
	if err != nil {
		return nil, fmt.Errorf("adb devices: %w", err)
	}
	return parseDeviceList(string(out)), nil
}

// parseDeviceList extracts serials from `adb devices -l` output, skipping the
// header line and anything not in the "device" state.
func parseDeviceList(out string) []Info {
	var devices []Info
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[1] != "device" {
			continue
		}
		devices = append(devices, Info{
			Serial:  fields[0],
			Network: strings.Contains(fields[0], ":"),
		})
	}
	return devices
}
