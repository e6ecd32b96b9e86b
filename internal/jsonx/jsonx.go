// Package jsonx decodes JSON objects out of raw model output. Models wrap
// payloads in prose, markdown fences, or emit slightly broken JSON; the
// pipeline here tries progressively more forgiving strategies so both the
// decision decoder and the planner recover the same way.
package jsonx

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoObject is returned when no strategy finds a decodable JSON object.
var ErrNoObject = errors.New("no JSON object found in model output")

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// Decode unmarshals the first JSON object recoverable from raw into v.
// Strategies, in order: direct parse, fenced code blocks (first decodable
// block wins), the substring between the first '{' and the last '}', and a
// last-resort jsonrepair pass over that substring.
func Decode(raw string, v any) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ErrNoObject
	}

	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	for _, match := range fencedBlock.FindAllStringSubmatch(trimmed, -1) {
		candidate := strings.TrimSpace(match[1])
		if candidate == "" {
			continue
		}
		if err := json.Unmarshal([]byte(candidate), v); err == nil {
			return nil
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return ErrNoObject
	}
	embedded := trimmed[start : end+1]
	if err := json.Unmarshal([]byte(embedded), v); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(embedded)
	if err != nil {
		return fmt.Errorf("%w (repair failed: %v)", ErrNoObject, err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("%w (repaired text still invalid: %v)", ErrNoObject, err)
	}
	return nil
}
