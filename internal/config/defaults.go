package config

const (
	defaultRecordingsDir     = "~/.local/share/screenrec/recordings"
	defaultStateDir          = "~/.local/share/screenrec"
	defaultLogDir            = "~/.local/share/screenrec/logs"
	defaultPlatform          = "android"
	defaultADBBinary         = "adb"
	defaultDevicePath        = "/sdcard/maestro-screenrecording.mp4"
	defaultBitRate           = 100000
	defaultScrcpyExecutable  = "scrcpy"
	defaultScrcpyOverrideEnv = "MAESTRO_SCRCPY"
	defaultMechanism         = MechanismAuto
	defaultStopTimeout       = 30
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Recording mechanism names accepted by recording.mechanism.
const (
	MechanismAuto         = "auto"
	MechanismScreenRecord = "screenrecord"
	MechanismScrcpy       = "scrcpy"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RecordingsDir: defaultRecordingsDir,
			StateDir:      defaultStateDir,
			LogDir:        defaultLogDir,
		},
		Device: Device{
			Platform:  defaultPlatform,
			ADBBinary: defaultADBBinary,
		},
		ScreenRecord: ScreenRecord{
			DevicePath: defaultDevicePath,
			BitRate:    defaultBitRate,
		},
		Scrcpy: Scrcpy{
			Executable:  defaultScrcpyExecutable,
			OverrideEnv: defaultScrcpyOverrideEnv,
		},
		Recording: Recording{
			Mechanism:   defaultMechanism,
			StopTimeout: defaultStopTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
