package media

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// GravatarURL returns the gravatar image URL for an email address. Used as
// the default avatar for new accounts until the user uploads their own.
func GravatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon", hex.EncodeToString(sum[:]))
}
