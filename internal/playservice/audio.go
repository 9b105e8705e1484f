package playservice

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/starford/photoplay/internal/apperr"
)

// MaxVoiceBytes caps a single recording upload.
const MaxVoiceBytes = 25 << 20

// VoiceNamespace is the storage namespace recordings are uploaded under.
const VoiceNamespace = "audio"

var (
	audioContentTypes = map[string]string{
		".webm": "audio/webm",
		".ogg":  "audio/ogg",
		".mp3":  "audio/mpeg",
		".m4a":  "audio/mp4",
		".wav":  "audio/wav",
	}

	safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// VoiceUpload is a recording handed to CreateVoice.
type VoiceUpload struct {
	Filename string
	Data     []byte
}

// prepareVoice validates the upload and returns the storage path and
// content type it is stored under. unique is appended to the file stem so
// two recordings never share an object, whatever their client filenames.
func prepareVoice(u VoiceUpload, now time.Time, unique string) (path, contentType string, err error) {
	if len(u.Data) == 0 {
		return "", "", fmt.Errorf("%w: empty recording", apperr.ErrInvalidUpload)
	}
	if len(u.Data) > MaxVoiceBytes {
		return "", "", fmt.Errorf("%w: recording too large: %d bytes (max %d)", apperr.ErrInvalidUpload, len(u.Data), MaxVoiceBytes)
	}

	detected := detectAudioExt(u.Data)
	if detected == "" {
		return "", "", fmt.Errorf("%w: unrecognised audio format", apperr.ErrInvalidUpload)
	}

	name := sanitizeFilename(u.Filename)
	if name == "" {
		name = fmt.Sprintf("audio-%d%s", now.UnixMilli(), detected)
	}
	ext := strings.ToLower(filepath.Ext(name))
	ct, ok := audioContentTypes[ext]
	if !ok {
		return "", "", fmt.Errorf("%w: unsupported file extension %q (allowed: webm, ogg, mp3, m4a, wav)", apperr.ErrInvalidUpload, ext)
	}
	if ext != detected {
		return "", "", fmt.Errorf("%w: content does not match extension %s", apperr.ErrInvalidUpload, ext)
	}
	stem := name[:len(name)-len(ext)]
	return VoiceNamespace + "/" + stem + "-" + unique + ext, ct, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(filepath.ToSlash(strings.TrimSpace(name)))
	if name == "." || name == "/" {
		return ""
	}
	name = strings.ReplaceAll(name, " ", "-")
	name = safeFilenameRe.ReplaceAllString(name, "")
	return strings.TrimLeft(name, ".")
}

// detectAudioExt sniffs the container format from its magic bytes.
func detectAudioExt(b []byte) string {
	switch {
	case bytes.HasPrefix(b, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return ".webm"
	case bytes.HasPrefix(b, []byte("OggS")):
		return ".ogg"
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WAVE")):
		return ".wav"
	case len(b) >= 8 && bytes.Equal(b[4:8], []byte("ftyp")):
		return ".m4a"
	case bytes.HasPrefix(b, []byte("ID3")), len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0:
		return ".mp3"
	}
	return ""
}
