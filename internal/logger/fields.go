package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldRun is the structured log field key for the command run identifier.
	FieldRun = "run_id"
	// FieldCommand is the structured log field key for the interactive command name.
	FieldCommand = "command"
	// FieldTable is the structured log field key for a backing table name.
	FieldTable = "table"
	// FieldHeuristic is the structured log field key for a reconciliation heuristic name.
	FieldHeuristic = "heuristic"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced by a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// WithRun attaches the run identifier and command name to the logger.
func WithRun(logger *zap.Logger, runID, command string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldRun, Value: runID},
		StringField{Key: FieldCommand, Value: command},
	)...)
}

// WithHeuristic attaches the heuristic name to the logger.
func WithHeuristic(logger *zap.Logger, name string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldHeuristic, Value: name})...)
}

// Table returns the table field, or a skipped field when name is empty.
func Table(name string) zap.Field {
	if strings.TrimSpace(name) == "" {
		return zap.Skip()
	}
	return zap.String(FieldTable, name)
}

// Row returns a field holding a snapshot row index under key.
func Row(key string, idx int) zap.Field {
	return zap.Int(key, idx)
}
