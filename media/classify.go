package media

import (
	"image"
	"io"
	"strings"

	// Decoders for the cover image probe.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/greenshan/portfolio-backend/errs"
	"github.com/greenshan/portfolio-backend/models"
)

// Limits holds the configurable publishing ceilings. Zero values are not
// valid; use DefaultLimits as the baseline.
type Limits struct {
	MaxFileBytes  int64 // per-file byte ceiling
	MaxPerProject int   // media items per project
}

// DefaultLimits matches the deployed configuration: 100 MiB per file,
// ten media items per project.
var DefaultLimits = Limits{
	MaxFileBytes:  100 * 1024 * 1024,
	MaxPerProject: 10,
}

// allowedExtensions maps each media type to the file extensions it accepts.
var allowedExtensions = map[models.MediaType][]string{
	models.MediaImage:    {"jpg", "jpeg", "png", "webp", "gif"},
	models.MediaVideo:    {"mp4", "webm", "mov", "ogg"},
	models.MediaAudio:    {"mp3", "wav", "m4a", "ogg"},
	models.MediaDocument: {"pdf", "doc", "docx", "ppt", "pptx", "txt"},
}

// detectOrder keeps type derivation deterministic for extensions that appear
// under more than one type (ogg is both video and audio; video wins).
var detectOrder = []models.MediaType{
	models.MediaImage,
	models.MediaVideo,
	models.MediaAudio,
	models.MediaDocument,
}

// ext returns the lowercased substring after the last dot, or "" when the
// name has no dot.
func ext(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// DetectType derives a media type from the file name's extension. Unmatched
// extensions, and names without an extension, resolve to MediaOther.
func DetectType(filename string) models.MediaType {
	e := ext(filename)
	if e == "" {
		return models.MediaOther
	}
	for _, t := range detectOrder {
		for _, allowed := range allowedExtensions[t] {
			if e == allowed {
				return t
			}
		}
	}
	return models.MediaOther
}

// Classify validates an uploaded file and resolves its media type, in order:
//
//  1. size ceiling (FileTooLarge)
//  2. type resolution: declared type, else derived from the extension
//  3. declared/derived cross-check (ExtensionMismatch)
//  4. for covers, a decode probe of the byte stream (InvalidImage)
//
// declared may be "" when the uploader did not pick a type. probe may be nil
// when isCover is false. Classify has no side effects; persistence belongs
// to the caller.
func Classify(filename string, size int64, declared models.MediaType, isCover bool, probe io.Reader, limits Limits) (models.MediaType, *errs.ApiErr) {
	if size > limits.MaxFileBytes {
		return "", errs.NewFileTooLargeError(filename, size, limits.MaxFileBytes)
	}

	resolved := declared
	if resolved == "" {
		resolved = DetectType(filename)
	} else if resolved != models.MediaOther {
		allowed, known := allowedExtensions[resolved]
		if !known {
			return "", errs.NewInvalidFieldError("media_type", string(declared)+" is not a known media type")
		}
		if !contains(allowed, ext(filename)) {
			return "", errs.NewExtensionMismatchError(filename, string(resolved), allowed)
		}
	}

	if isCover && resolved == models.MediaImage {
		if probe == nil {
			return "", errs.NewInvalidImageError(filename, nil)
		}
		if _, _, err := image.Decode(probe); err != nil {
			return "", errs.NewInvalidImageError(filename, err)
		}
	}

	return resolved, nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
