// Package blob stores uploaded avatar images on the local filesystem.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// PublicPrefix is where stored files are served from.
const PublicPrefix = "/uploads"

var (
	ErrTooLarge    = errors.New("file too large")
	ErrUnsupported = errors.New("only image files are allowed")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type Avatars struct {
	root     string
	maxBytes int64
}

// NewAvatars stores avatars under root/avatars, creating it if needed.
func NewAvatars(root string, maxBytes int64) (*Avatars, error) {
	if err := os.MkdirAll(filepath.Join(root, "avatars"), 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &Avatars{root: root, maxBytes: maxBytes}, nil
}

// Root is the directory served under PublicPrefix.
func (a *Avatars) Root() string {
	return a.root
}

func (a *Avatars) MaxBytes() int64 {
	return a.maxBytes
}

// Save sniffs and writes an image, returning its public path.
func (a *Avatars) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, a.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > a.maxBytes {
		return "", ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return "", fmt.Errorf("%w: got %s", ErrUnsupported, mtype.String())
	}

	name := "avatar-" + uuid.NewString() + mtype.Extension()
	if err := os.WriteFile(filepath.Join(a.root, "avatars", name), data, 0o644); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}
	return path.Join(PublicPrefix, "avatars", name), nil
}

// Remove deletes a previously saved avatar. Paths outside the avatar
// directory and missing files are ignored.
func (a *Avatars) Remove(publicPath string) error {
	prefix := path.Join(PublicPrefix, "avatars") + "/"
	if !strings.HasPrefix(publicPath, prefix) {
		return nil
	}
	name := path.Base(publicPath)
	if name != strings.TrimPrefix(publicPath, prefix) {
		return nil
	}
	err := os.Remove(filepath.Join(a.root, "avatars", name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove avatar: %w", err)
	}
	return nil
}
