// Package browser opens web pages and exported reports in the system browser.
package browser

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Open opens the specified URL in the default browser.
// It validates the URL before passing it to the system browser to prevent command injection.
func Open(urlString string) error {
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// Whitelist allowed schemes to prevent malicious URLs
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https allowed)", parsedURL.Scheme)
	}

	return start(runtime.GOOS, parsedURL.String())
}

// OpenFile opens a local report, such as an exported HTML chart. The path
// must name an existing regular file.
func OpenFile(path string) error {
	target, err := fileURL(path)
	if err != nil {
		return err
	}
	return start(runtime.GOOS, target)
}

// fileURL turns path into an absolute file:// URL.
func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot open %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("cannot open %s: not a regular file", path)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

func start(goos, target string) error {
	cmd, err := command(goos, target)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// command returns the launcher for goos. target has been validated.
func command(goos, target string) (*exec.Cmd, error) {
	switch goos {
	case "linux":
		return exec.Command("xdg-open", target), nil // #nosec G204 -- target validated by caller
	case "darwin":
		return exec.Command("open", target), nil // #nosec G204 -- target validated by caller
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target), nil // #nosec G204 -- target validated by caller
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
