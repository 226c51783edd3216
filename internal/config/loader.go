package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the pager
// receiver process.
type Config struct {
	// InboxPath is the file the inbox ring is mirrored to. An unwritable
	// path degrades persistence to memory-only mode instead of failing.
	InboxPath string
	// InboxCapacity is the number of ring slots.
	InboxCapacity int
	// TZOffsetMinutes shifts broadcast UTC time into local display time.
	TZOffsetMinutes int
	// ArchiveDSN is the SQLite DSN for the append-only message archive.
	// Empty disables archiving.
	ArchiveDSN string
	// HTTPPort serves the read-only status API. Zero disables it.
	HTTPPort int
	// DisplayTimeout turns the display off after this much inactivity.
	// Zero keeps it always on.
	DisplayTimeout time.Duration
	// ListenAddr, when set, reads broadcast frames from a TCP listener
	// instead of standard input.
	ListenAddr string
	// Subscriptions is the raw address book in "ric:name:tone,..." form.
	Subscriptions string
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for every optional field while validating the
// values that are present, accumulating all problems into a single error.
func Load() (Config, error) {
	cfg := Config{
		InboxPath:       "inbox.log",
		InboxCapacity:   64,
		TZOffsetMinutes: 60,
		ArchiveDSN:      "file:pager-archive.db?_foreign_keys=on",
		HTTPPort:        8080,
		DisplayTimeout:  15 * time.Second,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if path := strings.TrimSpace(os.Getenv("PAGER_INBOX_PATH")); path != "" {
		cfg.InboxPath = path
	}

	if capacityValue := strings.TrimSpace(os.Getenv("PAGER_INBOX_CAPACITY")); capacityValue != "" {
		capacity, err := strconv.Atoi(capacityValue)
		if err != nil || capacity <= 0 {
			invalid = append(invalid, "PAGER_INBOX_CAPACITY")
		} else {
			cfg.InboxCapacity = capacity
		}
	}

	if offsetValue := strings.TrimSpace(os.Getenv("PAGER_TZ_OFFSET_MINUTES")); offsetValue != "" {
		offset, err := strconv.Atoi(offsetValue)
		if err != nil || offset <= -1440 || offset >= 1440 {
			invalid = append(invalid, "PAGER_TZ_OFFSET_MINUTES")
		} else {
			cfg.TZOffsetMinutes = offset
		}
	}

	if dsn, ok := os.LookupEnv("PAGER_ARCHIVE_DSN"); ok {
		cfg.ArchiveDSN = strings.TrimSpace(dsn)
	}

	if portValue := strings.TrimSpace(os.Getenv("PAGER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port < 0 || port > 65535 {
			invalid = append(invalid, "PAGER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("PAGER_DISPLAY_TIMEOUT_SECONDS")); timeoutValue != "" {
		seconds, err := strconv.Atoi(timeoutValue)
		if err != nil || seconds < 0 {
			invalid = append(invalid, "PAGER_DISPLAY_TIMEOUT_SECONDS")
		} else {
			cfg.DisplayTimeout = time.Duration(seconds) * time.Second
		}
	}

	if addr := strings.TrimSpace(os.Getenv("PAGER_LISTEN_ADDR")); addr != "" {
		cfg.ListenAddr = addr
	}

	if rics := strings.TrimSpace(os.Getenv("PAGER_RICS")); rics == "" {
		missing = append(missing, "PAGER_RICS")
	} else {
		cfg.Subscriptions = rics
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
