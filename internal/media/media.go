// Package media maps uploaded files to the Markdown or HTML snippet that embeds them.
package media

import (
	"fmt"
	"html"
	"path"
	"strings"
	"unicode"
)

type Category string

const (
	Image   Category = "image"
	Video   Category = "video"
	Audio   Category = "audio"
	General Category = "general"
)

var extensionCategories = map[string]Category{
	"png": Image, "jpg": Image, "jpeg": Image, "gif": Image, "webp": Image, "svg": Image, "avif": Image, "bmp": Image,
	"mp4": Video, "webm": Video, "mov": Video, "mkv": Video, "m4v": Video,
	"mp3": Audio, "wav": Audio, "flac": Audio, "m4a": Audio, "aac": Audio, "opus": Audio,
}

var videoTypes = map[string]string{
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"ogg":  "video/ogg",
}

var audioTypes = map[string]string{
	"mp3": "audio/mpeg",
	"wav": "audio/wav",
	"ogg": "audio/ogg",
}

// Extension returns the lower-cased extension of fileName without the dot.
func Extension(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
}

// CategoryOf classifies a file by its declared content type, falling back
// to its extension when the content type is missing or generic.
func CategoryOf(fileName, contentType string) Category {
	major, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(contentType)), "/")
	switch major {
	case "image":
		return Image
	case "video":
		return Video
	case "audio":
		return Audio
	}

	if c, ok := extensionCategories[Extension(fileName)]; ok {
		return c
	}
	return General
}

// MIMEType resolves the source type used inside <video> and <audio> embeds.
func MIMEType(c Category, fileName string) string {
	ext := Extension(fileName)
	switch c {
	case Video:
		if t, ok := videoTypes[ext]; ok {
			return t
		}
		return "video/" + ext
	case Audio:
		if t, ok := audioTypes[ext]; ok {
			return t
		}
		return "audio/" + ext
	}
	return ""
}

// EscapeURL percent-encodes whitespace so the URL survives Markdown link syntax.
func EscapeURL(url string) string {
	var b strings.Builder
	for _, r := range url {
		if unicode.IsSpace(r) {
			for _, c := range []byte(string(r)) {
				fmt.Fprintf(&b, "%%%02X", c)
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Snippet returns the embed for an uploaded file. Unknown categories are
// treated as plain downloads.
func Snippet(c Category, fileName, url string) string {
	url = EscapeURL(url)
	switch c {
	case Image:
		return fmt.Sprintf("![%s](%s)", fileName, url)
	case Video, Audio:
		tag := string(c)
		return fmt.Sprintf(`<%s controls><source src="%s" type="%s"></%s>`,
			tag, html.EscapeString(url), MIMEType(c, fileName), tag)
	default:
		return fmt.Sprintf("[Download File: %s](%s)", fileName, url)
	}
}
