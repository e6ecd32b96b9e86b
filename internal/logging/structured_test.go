package logging

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"
	"testing"
)

func TestStructuredTextMode(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(log.New(&buf, "", 0), "server", false)

	sl.WithActor("zhangsan").Info("instruction processed", map[string]any{"outcome": "executed"})

	line := buf.String()
	for _, want := range []string{"INFO", "[server]", "[actor:zhangsan]", "instruction processed", "outcome=executed"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestStructuredJSONMode(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(log.New(&buf, "", 0), "server", true)

	sl.Warn("rejected request", map[string]any{"path": "/housekeeper/instruction"})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if entry.Level != "WARN" || entry.Component != "server" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["path"] != "/housekeeper/instruction" {
		t.Errorf("fields not carried: %+v", entry.Fields)
	}
}

func TestWithActorDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(log.New(&buf, "", 0), "server", false)

	sl.WithActor("lisi")
	sl.Info("plain line", nil)

	if strings.Contains(buf.String(), "actor") {
		t.Errorf("parent logger gained an actor tag: %q", buf.String())
	}
}
