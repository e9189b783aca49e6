package transportclient

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// DefaultVersionFile is the version file consulted when no path is configured.
const DefaultVersionFile = ".version"

var semverPattern = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
	`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?` +
	`(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// IsSemanticVersion reports whether v conforms to Semantic Versioning 2.0.0.
func IsSemanticVersion(v string) bool {
	return semverPattern.MatchString(v)
}

// VersionReader loads the API version sent with POST requests.
// The file is read and validated on every call.
type VersionReader struct {
	path string
}

// NewVersionReader returns a reader for the given path (DefaultVersionFile if empty).
func NewVersionReader(path string) *VersionReader {
	if strings.TrimSpace(path) == "" {
		path = DefaultVersionFile
	}
	return &VersionReader{path: path}
}

// Path returns the file the reader consults.
func (r *VersionReader) Path() string { return r.path }

// Read returns the trimmed, validated version string.
func (r *VersionReader) Read() (string, error) {
	if _, err := os.Stat(r.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", versionError(ErrVersionFileMissing, nil)
		}
		return "", versionError(ErrVersionFileUnreadable, err)
	}

	raw, err := os.ReadFile(r.path)
	if err != nil {
		return "", versionError(ErrVersionFileUnreadable, err)
	}

	version := strings.TrimSpace(string(raw))
	if !IsSemanticVersion(version) {
		return "", versionError(ErrInvalidVersion, nil)
	}
	return version, nil
}

// ReadVersion reads and validates the version file at path.
func ReadVersion(path string) (string, error) {
	return NewVersionReader(path).Read()
}
