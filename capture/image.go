package capture

import "strings"

var imageExtensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/bmp":     ".bmp",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/tiff":    ".tiff",
	"image/ico":     ".ico",
	"image/x-icon":  ".ico",
}

const defaultImageExtension = ".img"

// ImageExtension maps an image media type to the file extension used when saving it
func ImageExtension(mediaType string) string {
	if ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(mediaType))]; ok {
		return ext
	}
	return defaultImageExtension
}

// captureImage persists image bytes to the scratch images directory
func captureImage(mediaType string, data []byte, scratch *Scratch) (ImageBody, error) {
	img := ImageBody{
		MediaType: mediaType,
		Size:      int64(len(data)),
	}

	path, err := scratch.SaveImage(ImageExtension(mediaType), data)
	if err != nil {
		return img, err
	}
	img.SavedPath = path
	return img, nil
}
