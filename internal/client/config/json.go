package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// jsonConfig is a DTO used only for JSON unmarshalling. Pointer fields let
// the overlay distinguish "absent" from "explicitly empty", so a JSON file
// only overrides the keys it actually contains. Durations are strings in
// Go syntax ("30s", "2m").
type jsonConfig struct {
	BackendBaseURL *string `json:"backend_base_url"`
	GoogleClientID *string `json:"google_client_id"`
	CallbackAddr   *string `json:"callback_addr"`
	SessionStore   *string `json:"session_store"`
	SessionFile    *string `json:"session_file"`
	RedisAddr      *string `json:"redis_addr"`
	RedisPassword  *string `json:"redis_password"`
	RequestTimeout *string `json:"request_timeout"`
	DownloadDir    *string `json:"download_dir"`
	LogLevel       *string `json:"log_level"`
}

// overlayJSON merges values from the JSON file at path into cfg.
func overlayJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}

	setIf(&cfg.BackendBaseURL, jc.BackendBaseURL)
	setIf(&cfg.GoogleClientID, jc.GoogleClientID)
	setIf(&cfg.CallbackAddr, jc.CallbackAddr)
	setIf(&cfg.SessionStore, jc.SessionStore)
	setIf(&cfg.SessionFile, jc.SessionFile)
	setIf(&cfg.RedisAddr, jc.RedisAddr)
	setIf(&cfg.RedisPassword, jc.RedisPassword)
	setIf(&cfg.DownloadDir, jc.DownloadDir)
	setIf(&cfg.LogLevel, jc.LogLevel)

	if jc.RequestTimeout != nil {
		d, err := time.ParseDuration(*jc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("config: request_timeout in %s: %w", path, err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

func setIf(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
