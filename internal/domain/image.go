package domain

// SupportedImageTypes maps accepted MIME types to display names for upload
// validation.
var SupportedImageTypes = map[string]string{
	"image/jpeg": "JPEG",
	"image/png":  "PNG",
	"image/webp": "WebP",
}

const (
	// MaxImageSize is the maximum allowed size for an uploaded image (10MB).
	MaxImageSize = 10 * 1024 * 1024

	// MaxProductImages caps the gallery uploads accepted per request.
	MaxProductImages = 10

	// ThumbnailMaxWidth is the maximum width for generated thumbnails.
	ThumbnailMaxWidth = 400

	// ThumbnailMaxHeight is the maximum height for generated thumbnails.
	ThumbnailMaxHeight = 400

	// ThumbnailJPEGQuality is the JPEG quality for thumbnail generation (0-100).
	ThumbnailJPEGQuality = 85
)

// IsValidImageContentType checks if the content type is supported.
func IsValidImageContentType(contentType string) bool {
	_, ok := SupportedImageTypes[contentType]
	return ok
}

// ValidateImageSize checks if the file size is within limits.
func ValidateImageSize(size int64) error {
	if size > MaxImageSize {
		return Errorf(EINVALID, "image.validate", "Image size %d bytes exceeds maximum of %d bytes (%.0fMB)", size, MaxImageSize, float64(MaxImageSize)/(1024*1024))
	}
	if size == 0 {
		return Invalid("image.validate", "Image file is empty")
	}
	return nil
}
