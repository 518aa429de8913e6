package cohort

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// RawFileOptions controls how a registered path is normalized into a
// canonical file URL.
type RawFileOptions struct {
	// Scheme overrides the URL scheme; default "ssh".
	Scheme string
	// Username and Hostname fill the authority when the path carries
	// none; defaults are the current user and host.
	Username string
	Hostname string
}

// RegisterRawFile records a raw file path in the cohort without linking
// it to any accession yet. The path is normalized into a canonical URL
// (scheme://user@host/abs/path) so files discovered on remote hosts stay
// addressable.
func (c *Cohort) RegisterRawFile(ctx context.Context, path string, opts RawFileOptions) error {
	normalized, err := normalizeRawPath(path, opts)
	if err != nil {
		return err
	}
	_, err = c.store.Exec(ctx,
		`INSERT OR IGNORE INTO raw_files (path) VALUES (?)`, normalized)
	return err
}

func normalizeRawPath(path string, opts RawFileOptions) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse raw file path %q: %w", path, err)
	}
	scheme := opts.Scheme
	if scheme == "" {
		scheme = "ssh"
	}
	u.Scheme = scheme
	if u.Host == "" {
		username := opts.Username
		if username == "" {
			if cur, err := user.Current(); err == nil {
				username = cur.Username
			}
		}
		hostname := opts.Hostname
		if hostname == "" {
			hostname, _ = os.Hostname()
		}
		u.Host = hostname
		if username != "" {
			u.User = url.User(username)
		}
	}
	if strings.HasPrefix(u.Path, "./") || strings.HasPrefix(u.Path, "../") {
		abs, err := filepath.Abs(u.Path)
		if err != nil {
			return "", fmt.Errorf("resolve raw file path %q: %w", path, err)
		}
		u.Path = abs
	}
	return u.String(), nil
}
