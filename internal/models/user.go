package models

import "encoding/json"

// DefaultTimezone is assumed for users who never told us theirs.
const DefaultTimezone = "US/Eastern"

// UserSettings is the JSON document kept in users.settings.
type UserSettings struct {
	Timezone    *string `json:"timezone"`
	HasSeenHelp bool    `json:"has_seen_help"`
}

type User struct {
	Username string       `json:"username"`
	Settings UserSettings `json:"settings"`
}

// Timezone returns the stored zone name, or "" when unset.
func (u *User) Timezone() string {
	if u == nil || u.Settings.Timezone == nil {
		return ""
	}
	return *u.Settings.Timezone
}

// EffectiveTimezone falls back to DefaultTimezone.
func (u *User) EffectiveTimezone() string {
	if tz := u.Timezone(); tz != "" {
		return tz
	}
	return DefaultTimezone
}

// MarshalSettings encodes the settings document.
func MarshalSettings(s UserSettings) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSettings parses a settings document, tolerating older rows
// written before has_seen_help existed.
func UnmarshalSettings(data []byte) (UserSettings, error) {
	var s UserSettings
	if len(data) == 0 {
		return s, nil
	}
	err := json.Unmarshal(data, &s)
	return s, err
}
