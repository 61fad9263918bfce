package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"beatstore/logger"
	"beatstore/storage"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ErrInvalidFormat reports an audio file with a missing or non-whitelisted
// extension. The whole upload fails on it; no catalog record is written.
var ErrInvalidFormat = errors.New("invalid audio file format")

// MaxThumbnailDim bounds both dimensions of a stored cover image.
const MaxThumbnailDim = 500

var allowedAudioExts = map[string]bool{
	".mp3": true,
	".wav": true,
}

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_.\-]+`)

// Intake validates uploaded files and hands them to the storage driver under
// collision-resistant names.
type Intake struct {
	store       storage.Store
	audioPrefix string
	coverPrefix string
}

// NewIntake creates a file intake writing audio and covers under the given
// object path prefixes.
func NewIntake(store storage.Store, audioPrefix, coverPrefix string) *Intake {
	return &Intake{
		store:       store,
		audioPrefix: audioPrefix,
		coverPrefix: coverPrefix,
	}
}

// AllowedAudio reports whether the filename carries a whitelisted audio
// extension (mp3, wav; case-insensitive).
func AllowedAudio(filename string) bool {
	return allowedAudioExts[strings.ToLower(filepath.Ext(filename))]
}

// AllowedImage reports whether the filename carries a whitelisted image
// extension (jpg, jpeg, png, gif; case-insensitive).
func AllowedImage(filename string) bool {
	return allowedImageExts[strings.ToLower(filepath.Ext(filename))]
}

// sanitizeFilename strips path components and characters outside
// [a-zA-Z0-9_.-] from an uploaded filename.
func sanitizeFilename(filename string) string {
	base := path.Base(filepath.ToSlash(filename))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "file"
	}
	return base
}

// storedName prefixes a sanitized filename with a random unique id, avoiding
// collisions between concurrent uploads of identically named files.
func storedName(filename string) string {
	return uuid.NewString() + "_" + sanitizeFilename(filename)
}

// StoreAudio validates and stores an uploaded audio file, returning the
// stored filename.
func (i *Intake) StoreAudio(ctx context.Context, filename string, r io.Reader, size int64) (string, error) {
	if filename == "" || !AllowedAudio(filename) {
		return "", ErrInvalidFormat
	}

	name := storedName(filename)
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if err := i.store.Save(ctx, path.Join(i.audioPrefix, name), r, size, contentType); err != nil {
		return "", fmt.Errorf("failed to store audio file: %w", err)
	}

	logger.Info("Stored audio file",
		logger.String("original", filename),
		logger.String("stored", name),
		logger.Int64("size", size))
	return name, nil
}

// StoreCover stores an uploaded cover image downscaled so neither dimension
// exceeds MaxThumbnailDim, preserving aspect ratio. An absent, unreadable or
// non-whitelisted cover yields no image rather than an error.
func (i *Intake) StoreCover(ctx context.Context, filename string, r io.Reader) string {
	if filename == "" || !AllowedImage(filename) {
		return ""
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		logger.Warn("Failed to decode cover image, skipping",
			logger.String("filename", filename),
			logger.ErrorField(err))
		return ""
	}

	thumb := imaging.Fit(img, MaxThumbnailDim, MaxThumbnailDim, imaging.Lanczos)

	ext := strings.ToLower(filepath.Ext(filename))
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		format = imaging.JPEG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format); err != nil {
		logger.Warn("Failed to encode cover thumbnail, skipping",
			logger.String("filename", filename),
			logger.ErrorField(err))
		return ""
	}

	name := storedName(filename)
	contentType := mime.TypeByExtension(ext)
	if err := i.store.Save(ctx, path.Join(i.coverPrefix, name), bytes.NewReader(buf.Bytes()), int64(buf.Len()), contentType); err != nil {
		logger.Warn("Failed to store cover image, skipping",
			logger.String("filename", filename),
			logger.ErrorField(err))
		return ""
	}

	logger.Info("Stored cover image",
		logger.String("original", filename),
		logger.String("stored", name),
		logger.Int("width", thumb.Bounds().Dx()),
		logger.Int("height", thumb.Bounds().Dy()))
	return name
}

// OpenAudio opens a stored audio file for serving.
func (i *Intake) OpenAudio(ctx context.Context, name string) (io.ReadCloser, error) {
	return i.store.Open(ctx, path.Join(i.audioPrefix, name))
}

// OpenCover opens a stored cover image for serving.
func (i *Intake) OpenCover(ctx context.Context, name string) (io.ReadCloser, error) {
	return i.store.Open(ctx, path.Join(i.coverPrefix, name))
}
