package config

import "flag"

var (
	flagConfig       = flag.String("config", "", "Path to config file")
	flagDebug        = flag.Bool("debug", false, "Enable debug logging")
	flagLittleEndian = flag.Bool("little-endian", false, "Decode little-endian data")
	flagWorkers      = flag.Int("workers", 0, "Batch import worker count")
	flagLogFile      = flag.String("log-file", "", "Write logs to a rotating file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments: the command and its operands.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLittleEndian {
		cfg.Format.ByteOrder = "little"
	}
	if *flagWorkers > 0 {
		cfg.Import.Workers = *flagWorkers
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
