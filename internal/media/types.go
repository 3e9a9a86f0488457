package media

import (
	"net/http"
	"path/filepath"
	"strings"
)

// Kind is the broad class of a supported file.
type Kind int

const (
	KindUnsupported Kind = iota
	KindImage
	KindRaw
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindRaw:
		return "raw"
	case KindVideo:
		return "video"
	default:
		return "unsupported"
	}
}

type format struct {
	mediaType string
	kind      Kind
}

var extensions = map[string]format{
	".jpg":  {"image/jpeg", KindImage},
	".jpeg": {"image/jpeg", KindImage},
	".png":  {"image/png", KindImage},
	".tif":  {"image/tiff", KindImage},
	".tiff": {"image/tiff", KindImage},
	".webp": {"image/webp", KindImage},
	".heic": {"image/heic", KindImage},
	".heif": {"image/heif", KindImage},
	".dng":  {"image/x-adobe-dng", KindRaw},
	".cr2":  {"image/x-canon-cr2", KindRaw},
	".cr3":  {"image/x-canon-cr3", KindRaw},
	".nef":  {"image/x-nikon-nef", KindRaw},
	".arw":  {"image/x-sony-arw", KindRaw},
	".raf":  {"image/x-fuji-raf", KindRaw},
	".orf":  {"image/x-olympus-orf", KindRaw},
	".rw2":  {"image/x-panasonic-rw2", KindRaw},
	".mp4":  {"video/mp4", KindVideo},
	".mov":  {"video/quicktime", KindVideo},
}

// sniffed lists content types from http.DetectContentType that override the
// extension when they disagree.
var sniffed = map[string]format{
	"image/jpeg": {"image/jpeg", KindImage},
	"image/png":  {"image/png", KindImage},
	"image/webp": {"image/webp", KindImage},
	"video/mp4":  {"video/mp4", KindVideo},
}

// Detect classifies a file by name and its first bytes (up to 512). It
// returns the media type to store and the kind, or KindUnsupported.
func Detect(name string, head []byte) (string, Kind) {
	byExt, ok := extensions[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return "", KindUnsupported
	}
	if len(head) == 0 {
		return byExt.mediaType, byExt.kind
	}
	contentType := http.DetectContentType(head)
	if f, ok := sniffed[contentType]; ok {
		return f.mediaType, f.kind
	}
	if rejectedContent(contentType) {
		return "", KindUnsupported
	}
	return byExt.mediaType, byExt.kind
}

// rejectedContent reports content that is certainly not a photo or video,
// whatever the extension claims.
func rejectedContent(contentType string) bool {
	switch {
	case strings.HasPrefix(contentType, "text/"):
		return true
	case strings.HasPrefix(contentType, "application/pdf"),
		strings.HasPrefix(contentType, "application/zip"),
		strings.HasPrefix(contentType, "application/x-gzip"):
		return true
	default:
		return false
	}
}

// Supported reports whether name has an accepted extension.
func Supported(name string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extension returns the canonical file extension for a media type.
func Extension(mediaType string) string {
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/tiff":
		return ".tif"
	case "video/quicktime":
		return ".mov"
	}
	for ext, f := range extensions {
		if f.mediaType == mediaType {
			return ext
		}
	}
	return ".bin"
}
