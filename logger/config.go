package logger

import "sync"

// Config defines the logging configuration for the context it is attached to.
type Config struct {
	Active             SystemConfig
	Main               *SystemConfig
	IncludedSubSystems map[string]bool          // If true, log in main log
	SubSystems         map[string]*SystemConfig // SubSystem specific loggers

	mutex sync.Mutex
}

func newConfig(main *SystemConfig) *Config {
	config := &Config{
		IncludedSubSystems: make(map[string]bool),
		SubSystems:         make(map[string]*SystemConfig),
		Main:               main,
	}
	config.Active = *main
	return config
}

// NewProductionConfig logs info level and above to stderr, JSON formatted.
func NewProductionConfig() *Config {
	main, _ := NewProductionLogger()
	return newConfig(main)
}

// NewProductionTextConfig logs info level and above to stderr, text formatted.
func NewProductionTextConfig() *Config {
	main, _ := NewProductionTextLogger()
	return newConfig(main)
}

// NewDevelopmentConfig logs verbose level and above to stderr, JSON formatted.
func NewDevelopmentConfig() *Config {
	main, _ := NewDevelopmentLogger()
	return newConfig(main)
}

// NewDevelopmentTextConfig logs verbose level and above to stderr, text formatted.
func NewDevelopmentTextConfig() *Config {
	main, _ := NewDevelopmentTextLogger()
	return newConfig(main)
}

// NewEmptyConfig creates a config that discards everything logged through it.
func NewEmptyConfig() *Config {
	main, _ := NewEmptyLogger()
	return newConfig(main)
}

// NewConfig builds a Config writing JSON (or text, when isText is true) to stderr, or to filePath
// if given, at verbose level when
// isDevelopment is true and info level otherwise. Errors opening filePath fall back to stderr.
func NewConfig(isDevelopment, isText bool, filePath string) *Config {
	main, err := newSystemConfig(isDevelopment, isText, filePath)
	if err != nil {
		main, _ = newSystemConfig(isDevelopment, isText, "")
	}
	return newConfig(&main)
}

// EnableSubSystem routes a subsystem's log entries into the main log as well as its own.
func (config *Config) EnableSubSystem(subsystem string) {
	config.IncludedSubSystems[subsystem] = true
}
