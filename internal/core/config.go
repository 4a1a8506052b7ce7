package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config contains the configuration options shared by the server and
// client commands. Everything the server strictly needs arrives as
// command line arguments; the config file is optional.
type Config struct {
	Logging struct {
		// Minimum level of a log required to be written.
		// Options: debug, info, warn, error
		LogLevel string `mapstructure:"log_level"`
		// Full path to a file to which logs will be written. Blank
		// writes to stderr.
		LogFilePath string `mapstructure:"log_file_path"`
	} `mapstructure:"logging"`

	Server struct {
		// Hostname or IP address on which the server will listen.
		Host string `mapstructure:"host"`
		// Exit once every connected client has sent a disconnect frame.
		QuorumExit bool `mapstructure:"quorum_exit"`
	} `mapstructure:"server"`

	Debugging struct {
		// Enable the debug HTTP listener (pprof and metrics).
		Enabled bool `mapstructure:"enabled"`
		// Port for the debug HTTP listener.
		PprofPort int `mapstructure:"pprof_port"`
	} `mapstructure:"debugging"`
}

const envVarPrefix = "PARLEY"

// LoadConfig initializes Viper with the contents of the config file
// under configPath, falling back to defaults if no file exists.
func LoadConfig(configPath string) *Config {
	viper.SetDefault("logging.log_level", "info")
	viper.SetDefault("server.host", "")
	viper.SetDefault("debugging.pprof_port", 6060)

	if configPath != "" {
		viper.AddConfigPath(configPath)
	}
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	// This allows us to set nested yaml config options through
	// environment variables. For example, logging.log_level can be set
	// using: <envVarPrefix>_LOGGING_LOG_LEVEL
	for _, k := range viper.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := viper.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			fmt.Printf("error binding %s to %s\n", k, envVarPrefix+"_"+envVar)
			os.Exit(1)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		fmt.Printf("error unmarshaling config object: %v\n", err)
		os.Exit(1)
	}
	return config
}
