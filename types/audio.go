package types

import (
	"path/filepath"
	"strings"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
}

// IsAudioMime reports whether a MIME type denotes audio content
func IsAudioMime(mime string) bool {
	return strings.HasPrefix(mime, "audio/") || mime == "application/ogg"
}

// IsAudioFile reports whether a file is audio by MIME type or, failing
// that, by extension
func IsAudioFile(name, mime string) bool {
	if mime != "" && IsAudioMime(mime) {
		return true
	}
	return audioExtensions[strings.ToLower(filepath.Ext(name))]
}
