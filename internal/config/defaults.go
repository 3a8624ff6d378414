package config

const (
	defaultDataDir             = "~/.local/share/attune"
	defaultLogDir              = "~/.local/share/attune/logs"
	defaultSocketPath          = "~/.local/share/attune/attuned.sock"
	defaultTemplatesPath       = "~/.config/attune/templates.toml"
	defaultMemoriesPath        = "~/.local/share/attune/memories.jsonl"
	defaultPermissionStateFile = "~/.config/attune/notification_permission"
	defaultPowerSupplyDir      = "/sys/class/power_supply"

	defaultMorningStart  = 7
	defaultMorningEnd    = 11
	defaultMiddayStart   = 11
	defaultMiddayEnd     = 16
	defaultEveningStart  = 17
	defaultEveningEnd    = 21
	defaultOffsetMinutes = 60

	defaultDailyMax              = 3
	defaultStalenessMinutes      = 30
	defaultRetentionDays         = 90
	defaultUnlockCooldownMinutes = 30

	defaultNtfyRequestTimeout = 10

	defaultAudioTimeoutSeconds = 60

	defaultLowBatteryPercent   = 20
	defaultModernChannelsFloor = 5
	defaultDevicePollSeconds   = 60

	defaultUnlockCheckIntervalMinutes = 15
	defaultCleanupIntervalHours       = 24

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
		},
		Windows: Windows{
			MorningStart:  defaultMorningStart,
			MorningEnd:    defaultMorningEnd,
			MiddayStart:   defaultMiddayStart,
			MiddayEnd:     defaultMiddayEnd,
			EveningStart:  defaultEveningStart,
			EveningEnd:    defaultEveningEnd,
			OffsetMinutes: defaultOffsetMinutes,
		},
		Delivery: Delivery{
			DailyMax:              defaultDailyMax,
			StalenessMinutes:      defaultStalenessMinutes,
			RetentionDays:         defaultRetentionDays,
			UnlockCooldownMinutes: defaultUnlockCooldownMinutes,
			Timezone:              "Local",
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Audio: Audio{
			PlayerCommand:  "",
			SimplifiedArgs: []string{"-nodisp", "-autoexit"},
			PlayerArgs:     []string{"-autoexit"},
			ProbeCommand:   "ffprobe",
			TimeoutSeconds: defaultAudioTimeoutSeconds,
		},
		Device: Device{
			PowerSupplyDir:      defaultPowerSupplyDir,
			LowBatteryPercent:   defaultLowBatteryPercent,
			ModernChannelsFloor: defaultModernChannelsFloor,
			PollIntervalSeconds: defaultDevicePollSeconds,
		},
		Permission: Permission{
			StateFile: defaultPermissionStateFile,
		},
		Background: Background{
			UnlockCheckIntervalMinutes: defaultUnlockCheckIntervalMinutes,
			CleanupIntervalHours:       defaultCleanupIntervalHours,
		},
		Content: Content{
			TemplatesPath: defaultTemplatesPath,
			MemoriesPath:  defaultMemoriesPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
