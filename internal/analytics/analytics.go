// Package analytics provides lightweight, privacy-respecting usage
// tracking.
//
// What we track:
//   - App starts (version, OS, architecture)
//   - Provider usage (which LLM provider: openrouter, zai, mock)
//   - Instruction outcomes (planned / clarification / executed — never the
//     instruction text itself)
//
// What we DON'T track:
//   - Instruction content, prompts, or model replies
//   - API keys or credentials
//   - Household data (items, locations, events, members)
//
// Disable with KEEPER_NO_ANALYTICS=1 or SetEnabled(false).
package analytics

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"sync"
	"time"
)

const requestTimeout = 5 * time.Second

var (
	endpoint   = "https://keeper.goatcounter.com/count"
	enabled    = os.Getenv("KEEPER_NO_ANALYTICS") == ""
	enabledMu  sync.RWMutex
	client     = &http.Client{Timeout: requestTimeout}
	appVersion string
	versionMu  sync.RWMutex
)

// SetEnabled enables or disables tracking.
func SetEnabled(on bool) {
	enabledMu.Lock()
	defer enabledMu.Unlock()
	enabled = on
}

// IsEnabled reports whether tracking is on.
func IsEnabled() bool {
	enabledMu.RLock()
	defer enabledMu.RUnlock()
	return enabled
}

// SetEndpoint overrides the beacon endpoint (config or tests).
func SetEndpoint(u string) {
	if u != "" {
		endpoint = u
	}
}

// TrackAppStart records an application startup.
func TrackAppStart(version string) {
	versionMu.Lock()
	appVersion = version
	versionMu.Unlock()
	track("/app/start", map[string]string{
		"v":    version,
		"os":   runtime.GOOS,
		"arch": runtime.GOARCH,
	})
}

// TrackProvider records which LLM provider is in use.
func TrackProvider(provider string) {
	track("/provider/"+provider, nil)
}

// TrackInstruction records an instruction outcome without any content.
func TrackInstruction(outcome string) {
	track("/instruction/"+outcome, nil)
}

// track sends one beacon, non-blocking.
func track(path string, params map[string]string) {
	if !IsEnabled() {
		return
	}
	go func() {
		u := endpoint + "?p=" + url.QueryEscape(path)
		for k, v := range params {
			u += "&" + url.QueryEscape(k) + "=" + url.QueryEscape(v)
		}
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return
		}
		versionMu.RLock()
		version := appVersion
		versionMu.RUnlock()
		req.Header.Set("User-Agent", fmt.Sprintf("Keeper/%s (%s/%s)", version, runtime.GOOS, runtime.GOARCH))
		resp, err := client.Do(req)
		if err != nil {
			return
		}
		resp.Body.Close()
	}()
}
