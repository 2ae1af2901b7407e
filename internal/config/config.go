// Package config reads the deployment configuration from environment
// variables, with optional .env file support for local runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// OperatorMode selects how command authorization is decided.
type OperatorMode string

const (
	// OperatorModeList authorizes only the fixed operator id list.
	OperatorModeList OperatorMode = "list"
	// OperatorModeAdmin authorizes anyone holding the platform
	// Administrator permission.
	OperatorModeAdmin OperatorMode = "admin"
	// OperatorModeEither authorizes either of the above.
	OperatorModeEither OperatorMode = "either"
)

type Config struct {
	Token          string
	Prefix         string
	VoiceChannelID string
	Operators      []string
	BlockedRoles   []string
	OperatorMode   OperatorMode
	DataDir        string
	LogEnv         string
	LogLevel       string
}

func Default() Config {
	return Config{
		Prefix:         ",",
		VoiceChannelID: "1428061918702342208",
		Operators:      []string{"1163460580779245608", "1359569212531675167"},
		BlockedRoles:   []string{"1400518143595778079", "1400518147097759815"},
		OperatorMode:   OperatorModeList,
		DataDir:        ".",
		LogEnv:         "dev",
		LogLevel:       "info",
	}
}

// Load reads the environment (loading a .env file first when present) and
// returns a validated configuration. The only fatal condition is a missing
// token.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	cfg.Token = firstEnv("DISCORD_TOKEN", "TOKEN")
	if v := os.Getenv("PREFIX"); v != "" {
		cfg.Prefix = v
	}
	if v := strings.TrimSpace(os.Getenv("VOICE_CHANNEL_ID")); v != "" {
		cfg.VoiceChannelID = v
	}
	if v := os.Getenv("AUTHORIZED_ADMINS"); v != "" {
		cfg.Operators = ParseIDList(v)
	}
	if v := os.Getenv("BLOCKED_ADMIN_ROLE_IDS"); v != "" {
		cfg.BlockedRoles = ParseIDList(v)
	}
	if v := strings.TrimSpace(os.Getenv("OPERATOR_MODE")); v != "" {
		cfg.OperatorMode = OperatorMode(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv("DATA_DIR")); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_ENV")); v != "" {
		cfg.LogEnv = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("DISCORD_TOKEN is required")
	}
	if c.Prefix == "" {
		return errors.New("command prefix cannot be empty")
	}
	if !isSnowflake(c.VoiceChannelID) {
		return fmt.Errorf("VOICE_CHANNEL_ID must be a numeric channel id: %q", c.VoiceChannelID)
	}
	switch c.OperatorMode {
	case OperatorModeList, OperatorModeAdmin, OperatorModeEither:
	default:
		return fmt.Errorf("OPERATOR_MODE must be list, admin or either: %q", c.OperatorMode)
	}
	if c.OperatorMode != OperatorModeAdmin && len(c.Operators) == 0 {
		return errors.New("AUTHORIZED_ADMINS cannot be empty in list mode")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("DATA_DIR cannot be empty")
	}
	return nil
}

// ParseIDList splits a comma or semicolon separated id list, dropping
// whitespace and anything that is not a bare numeric id.
func ParseIDList(value string) []string {
	var out []string
	for _, part := range strings.Split(strings.ReplaceAll(value, ";", ","), ",") {
		part = strings.TrimSpace(part)
		if isSnowflake(part) {
			out = append(out, part)
		}
	}
	return out
}

func isSnowflake(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
