package logging

import "go.uber.org/zap/zapcore"

// Config is the logging subsystem configuration, embedded in
// partitiond's harness config alongside the resource and limits
// sections.
type Config struct {
	// Level is the logging level.
	Level zapcore.Level `yaml:"level"`
}
