// Package featureflags evaluates runtime switches configured as "name=value" pairs.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"maps"
	"strconv"
	"strings"
)

// LiveFeed gates the websocket room feed.
const LiveFeed = "live_feed"

// Manager holds parsed flags, e.g. "live_feed=on,new_sidebar=25%".
type Manager struct {
	flags map[string]string
}

// NewManager parses a comma-separated flag list. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	flags := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		flags[key] = value
	}
	return &Manager{flags: flags}
}

// Enabled reports whether name is on for userID. Values are on/off (also
// true/false and 1/0) or a percentage rollout such as 25%, which is stable per
// user and never includes anonymous users. Unknown flags are off.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
	if err != nil || !strings.HasSuffix(value, "%") {
		return false
	}
	switch {
	case pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < pct
}

// Raw returns a copy of the configured values.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m.flags)
}

// Snapshot evaluates every configured flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool)
	if m == nil {
		return out
	}
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
