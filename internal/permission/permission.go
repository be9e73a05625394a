// Package permission is the notification-send capability.
//
// The grant lives in a small JSON file under the state directory and can be
// overridden with CHECKLIST_NOTIFICATIONS=granted|denied.
package permission

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	EnvOverride   = "CHECKLIST_NOTIFICATIONS"
	grantFileName = "notifications.json"
)

// Checker is the single capability predicate handed to everything that
// makes scheduling decisions.
type Checker interface {
	Granted() bool
}

// Static is a fixed answer.
type Static bool

func (s Static) Granted() bool { return bool(s) }

// Grant is the persisted state.
type Grant struct {
	Granted   bool      `json:"granted"`
	Source    string    `json:"source"` // "env" | "file" | "default"
	UpdatedAt time.Time `json:"updated_at"`
}

// FileChecker reads the grant file on every call, so a grant given from
// another process (e.g. `checklist notify grant`) is seen immediately.
type FileChecker struct {
	Dir string
}

func NewFileChecker(dir string) *FileChecker { return &FileChecker{Dir: dir} }

// Path is the grant file.
func (c *FileChecker) Path() string { return filepath.Join(c.Dir, grantFileName) }

func (c *FileChecker) Granted() bool {
	g, err := c.Status()
	if err != nil {
		return false
	}
	return g.Granted
}

// Status resolves env override first, then the file. Absent means denied.
func (c *FileChecker) Status() (Grant, error) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvOverride))) {
	case "granted", "true", "1", "yes":
		return Grant{Granted: true, Source: "env"}, nil
	case "denied", "false", "0", "no":
		return Grant{Granted: false, Source: "env"}, nil
	}

	b, err := os.ReadFile(c.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Grant{Source: "default"}, nil
		}
		return Grant{}, fmt.Errorf("read grant: %w", err)
	}
	var g Grant
	if err := json.Unmarshal(b, &g); err != nil {
		return Grant{}, fmt.Errorf("parse grant: %w", err)
	}
	g.Source = "file"
	return g, nil
}

// Grant persists an allow.
func (c *FileChecker) Grant() error { return c.write(true) }

// Revoke persists a deny. The file is kept so the choice is remembered.
func (c *FileChecker) Revoke() error { return c.write(false) }

func (c *FileChecker) write(granted bool) error {
	if err := os.MkdirAll(c.Dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	g := Grant{Granted: granted, Source: "file", UpdatedAt: time.Now()}
	b, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(c.Path(), b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
