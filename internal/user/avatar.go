package user

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AvatarURLPrefix is where locally stored avatars live under the public
// static root.
const AvatarURLPrefix = "/img/avatars/"

// AvatarIsRemote reports whether the stored avatar is an absolute URL;
// remote avatars are never touched on disk.
func AvatarIsRemote(avatar string) bool {
	return strings.HasPrefix(avatar, "http://") || strings.HasPrefix(avatar, "https://")
}

// NewAvatarFilename generates a collision-free filename keeping the
// original extension.
func NewAvatarFilename(original string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(original))
}

// AvatarDiskPath maps a stored relative avatar path onto the public dir.
func AvatarDiskPath(publicDir, avatar string) string {
	return filepath.Join(publicDir, strings.TrimPrefix(avatar, "/"))
}

// RemoveLocalAvatar deletes a replaced avatar file, best-effort: a remote
// URL, an empty path or a failing unlink are all non-fatal.
func RemoveLocalAvatar(publicDir, avatar string) {
	if avatar == "" || AvatarIsRemote(avatar) {
		return
	}
	p := AvatarDiskPath(publicDir, avatar)
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("[profile] removing old avatar %s: %v", p, err)
	}
}
