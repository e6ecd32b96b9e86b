package agent

import "regexp"

const (
	traceLineCap  = 300
	traceTotalCap = 6000
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	// Long unbroken alphanumeric runs look like API keys or bearer tokens.
	tokenPattern = regexp.MustCompile(`[A-Za-z0-9_\-]{32,}`)
)

// Sanitize prepares trace lines for external exposure: emails and opaque
// tokens are redacted, each line is truncated, and the total length is
// capped.
func Sanitize(lines []string) []string {
	var out []string
	total := 0
	for _, line := range lines {
		line = emailPattern.ReplaceAllString(line, "[redacted-email]")
		line = tokenPattern.ReplaceAllString(line, "[redacted-token]")
		if runes := []rune(line); len(runes) > traceLineCap {
			line = string(runes[:traceLineCap]) + "…"
		}
		if total+len(line) > traceTotalCap {
			out = append(out, "… trace truncated …")
			break
		}
		total += len(line)
		out = append(out, line)
	}
	return out
}
