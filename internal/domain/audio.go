package domain

import "strings"

const defaultMimeType = "audio/webm"

var extensionByMimeType = map[string]string{
	"audio/webm":  "webm",
	"audio/mp4":   "mp4",
	"audio/x-m4a": "m4a",
	"audio/m4a":   "m4a",
	"audio/mpeg":  "mp3",
	"audio/mp3":   "mp3",
	"audio/wav":   "wav",
	"audio/x-wav": "wav",
	"audio/ogg":   "ogg",
}

type AudioClip struct {
	Data     []byte
	MimeType string
}

// FileMeta returns the upload filename and content type for the clip.
// Unknown mime types are uploaded as webm.
func (c AudioClip) FileMeta() (filename, contentType string) {
	mime := c.MimeType
	if mime == "" {
		mime = defaultMimeType
	}
	normalized := strings.ToLower(strings.TrimSpace(strings.SplitN(mime, ";", 2)[0]))

	ext, ok := extensionByMimeType[normalized]
	if !ok {
		ext = "webm"
	}
	if normalized == "" {
		normalized = defaultMimeType
	}
	return "audio." + ext, normalized
}

var mimeTypeByExtension = map[string]string{
	"webm": "audio/webm",
	"mp4":  "audio/mp4",
	"m4a":  "audio/x-m4a",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
}

// MimeTypeForExtension maps a file extension, with or without the dot, to the
// audio mime type the relay understands. Unknown extensions return "".
func MimeTypeForExtension(ext string) string {
	return mimeTypeByExtension[strings.ToLower(strings.TrimPrefix(ext, "."))]
}
