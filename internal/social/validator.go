package social

import (
	"path/filepath"
	"strings"
)

const fileTypeDetail = "Only .jpg, .jpeg, .png extensions and image/jpeg, image/png content types are allowed."

// allowedImageTypes maps each accepted MIME type to the extensions it may carry.
var allowedImageTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
}

// ValidateFile accepts image/jpeg with a .jpg or .jpeg extension and image/png
// with a .png extension. Extensions compare case-insensitively, MIME types
// exactly.
func ValidateFile(filename, mimeType string) error {
	exts, ok := allowedImageTypes[mimeType]
	if !ok {
		return invalid(fileTypeDetail)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range exts {
		if ext == allowed {
			return nil
		}
	}

	return invalid(fileTypeDetail)
}
