package config

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// ModuleName is used in CLI help and logs
const ModuleName = "hwsign-device"

// Build arguments, overridden via ldflags.
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// GetFormattedBuildArgs returns the version string shown by --version
func GetFormattedBuildArgs() string {
	return ModuleName + " @ " + Commit + " (" + BuildDate + ")"
}

// Logger configures the zerolog root logger
type Logger struct {
	Level              zerolog.Level `json:"level"`
	PrettyPrintConsole bool          `json:"prettyPrintConsole"`
}

// Keystore configures the software keystore of the simulator.
// Mnemonic is secret and therefore never serialized.
type Keystore struct {
	Mnemonic   string `json:"-"`
	Passphrase string `json:"-"`
}

// Service is the full environment configuration
type Service struct {
	Logger   Logger   `json:"logger"`
	Keystore Keystore `json:"keystore"`
}

// DefaultServiceConfigFromEnv resolves the configuration from HWSIGN_*
// environment variables with sensible defaults.
func DefaultServiceConfigFromEnv() Service {
	v := viper.New()
	v.SetEnvPrefix("HWSIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("keystore.mnemonic", "")
	v.SetDefault("keystore.passphrase", "")

	level, err := zerolog.ParseLevel(v.GetString("log.level"))
	if err != nil {
		level = zerolog.InfoLevel
	}

	return Service{
		Logger: Logger{
			Level:              level,
			PrettyPrintConsole: v.GetBool("log.pretty"),
		},
		Keystore: Keystore{
			Mnemonic:   v.GetString("keystore.mnemonic"),
			Passphrase: v.GetString("keystore.passphrase"),
		},
	}
}
