package config

import (
	"flag"
	"time"
)

// parseFlags overlays cfg with command-line flags. The JSON file named by
// -c is merged first, so explicit flags still win over file values.
//
// Supported flags:
//
//	-a string   backend API base URL
//	-g string   Google client id
//	-c string   path to a JSON config file
//	-s string   session store backend (file|redis)
//	-f string   session file path
//	-d string   download directory
//	-t int      request timeout in seconds
//	-l string   log level (debug|info|warn|error)
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("tailorcv", flag.ContinueOnError)

	var (
		jsonPath string
		over     Config
		timeout  int
	)

	fs.StringVar(&over.BackendBaseURL, "a", cfg.BackendBaseURL, "backend API base URL")
	fs.StringVar(&over.GoogleClientID, "g", cfg.GoogleClientID, "Google client id")
	fs.StringVar(&jsonPath, "c", "", "path to JSON config file")
	fs.StringVar(&over.SessionStore, "s", cfg.SessionStore, "session store backend (file|redis)")
	fs.StringVar(&over.SessionFile, "f", cfg.SessionFile, "session file path")
	fs.StringVar(&over.DownloadDir, "d", cfg.DownloadDir, "download directory")
	fs.IntVar(&timeout, "t", int(cfg.RequestTimeout.Seconds()), "request timeout in seconds")
	fs.StringVar(&over.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if jsonPath != "" {
		if err := overlayJSON(cfg, jsonPath); err != nil {
			return err
		}
	}

	// Only flags the user actually set override the JSON layer.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			cfg.BackendBaseURL = over.BackendBaseURL
		case "g":
			cfg.GoogleClientID = over.GoogleClientID
		case "s":
			cfg.SessionStore = over.SessionStore
		case "f":
			cfg.SessionFile = over.SessionFile
		case "d":
			cfg.DownloadDir = over.DownloadDir
		case "t":
			cfg.RequestTimeout = time.Duration(timeout) * time.Second
		case "l":
			cfg.LogLevel = over.LogLevel
		}
	})
	return nil
}
