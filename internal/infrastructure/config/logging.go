package config

// LoggingConfig holds logging configuration for the stdlib-backed
// context logger (internal/infrastructure/logctx).
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Output destination: stdout, stderr, file
	Output string `mapstructure:"output" validate:"required,oneof=stdout stderr file"`

	// File path, used only when Output is "file"
	FilePath string `mapstructure:"file_path"`
}
