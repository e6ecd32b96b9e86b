package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// LogEntry is one structured line as emitted in JSON mode.
type LogEntry struct {
	Timestamp string         `json:"ts"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Message   string         `json:"msg"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// StructuredLogger tags lines with a component and, when known, the acting
// member, so server logs can be traced back to the request that caused them.
type StructuredLogger struct {
	logger    *log.Logger
	component string
	actor     string
	jsonMode  bool
}

func NewStructuredLogger(logger *log.Logger, component string, jsonMode bool) *StructuredLogger {
	if logger == nil {
		logger = log.Default()
	}
	return &StructuredLogger{logger: logger, component: component, jsonMode: jsonMode}
}

// WithActor returns a logger tagged with the acting member's reference.
func (s *StructuredLogger) WithActor(actor string) *StructuredLogger {
	clone := *s
	clone.actor = actor
	return &clone
}

func (s *StructuredLogger) Info(msg string, fields map[string]any)  { s.write("INFO", msg, fields) }
func (s *StructuredLogger) Warn(msg string, fields map[string]any)  { s.write("WARN", msg, fields) }
func (s *StructuredLogger) Error(msg string, fields map[string]any) { s.write("ERROR", msg, fields) }

func (s *StructuredLogger) write(level, msg string, fields map[string]any) {
	if s.jsonMode {
		entry := LogEntry{
			Timestamp: time.Now().Format(time.RFC3339),
			Level:     level,
			Component: s.component,
			Actor:     s.actor,
			Message:   msg,
			Fields:    fields,
		}
		data, err := json.Marshal(entry)
		if err != nil {
			s.logger.Printf("[%s] %s (marshal: %v)", s.component, msg, err)
			return
		}
		s.logger.Println(string(data))
		return
	}

	line := level + " [" + s.component + "]"
	if s.actor != "" {
		line += " [actor:" + s.actor + "]"
	}
	line += " " + msg
	for k, v := range fields {
		line += fmt.Sprintf(" %s=%v", k, v)
	}
	s.logger.Println(line)
}
