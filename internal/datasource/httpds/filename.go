package httpds

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/zeebo/xxh3"
)

// NameFromURL returns the file name a URL points at, for use as the desired
// table name and for format detection by extension. Query and fragment are
// ignored. A URL with no path element falls back to its host, and one that
// does not parse to a stable "download_<hash>" name.
func NameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("download_%016x", xxh3.HashString(raw))
	}
	if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
		return base
	}
	if h := strings.TrimPrefix(u.Hostname(), "www."); h != "" {
		return h
	}
	return fmt.Sprintf("download_%016x", xxh3.HashString(raw))
}
