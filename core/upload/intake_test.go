package upload

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"beatstore/storage"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIntake(t *testing.T) *Intake {
	t.Helper()

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return NewIntake(store, "audio", "covers")
}

func TestAllowedAudio(t *testing.T) {
	tests := []struct {
		filename string
		allowed  bool
	}{
		{"beat.mp3", true},
		{"beat.wav", true},
		{"BEAT.MP3", true},
		{"beat.WaV", true},
		{"beat.ogg", false},
		{"beat.flac", false},
		{"beat", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, AllowedAudio(tt.filename), tt.filename)
	}
}

func TestStoreAudioRejectsInvalidFormat(t *testing.T) {
	intake := newTestIntake(t)
	ctx := context.Background()

	_, err := intake.StoreAudio(ctx, "beat.ogg", strings.NewReader("xx"), 2)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = intake.StoreAudio(ctx, "", strings.NewReader("xx"), 2)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestStoreAudioRenamesAndStores(t *testing.T) {
	intake := newTestIntake(t)
	ctx := context.Background()

	name, err := intake.StoreAudio(ctx, "My Beat.mp3", strings.NewReader("fake mp3 bytes"), 14)
	require.NoError(t, err)

	// Stored under <uuid>_<sanitized original>.
	assert.NotEqual(t, "My Beat.mp3", name)
	assert.True(t, strings.HasSuffix(name, "_My_Beat.mp3"), name)
	assert.NotContains(t, name, " ")

	object, err := intake.OpenAudio(ctx, name)
	require.NoError(t, err)
	defer object.Close()

	data, err := io.ReadAll(object)
	require.NoError(t, err)
	assert.Equal(t, "fake mp3 bytes", string(data))
}

func TestStoreAudioStripsPathComponents(t *testing.T) {
	intake := newTestIntake(t)

	name, err := intake.StoreAudio(context.Background(), "../../etc/evil.mp3", strings.NewReader("x"), 1)
	require.NoError(t, err)
	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, "..")
	assert.True(t, strings.HasSuffix(name, "_evil.mp3"), name)
}

func encodePNG(t *testing.T, width, height int) *bytes.Buffer {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 10 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestStoreCoverResizesLargeImage(t *testing.T) {
	intake := newTestIntake(t)
	ctx := context.Background()

	name := intake.StoreCover(ctx, "cover.png", encodePNG(t, 1000, 600))
	require.NotEmpty(t, name)

	object, err := intake.OpenCover(ctx, name)
	require.NoError(t, err)
	defer object.Close()

	stored, err := imaging.Decode(object)
	require.NoError(t, err)
	assert.LessOrEqual(t, stored.Bounds().Dx(), MaxThumbnailDim)
	assert.LessOrEqual(t, stored.Bounds().Dy(), MaxThumbnailDim)

	// Aspect ratio preserved: 1000x600 fits to 500x300.
	assert.Equal(t, 500, stored.Bounds().Dx())
	assert.Equal(t, 300, stored.Bounds().Dy())
}

func TestStoreCoverKeepsSmallImage(t *testing.T) {
	intake := newTestIntake(t)
	ctx := context.Background()

	name := intake.StoreCover(ctx, "cover.png", encodePNG(t, 120, 80))
	require.NotEmpty(t, name)

	object, err := intake.OpenCover(ctx, name)
	require.NoError(t, err)
	defer object.Close()

	stored, err := imaging.Decode(object)
	require.NoError(t, err)
	assert.Equal(t, 120, stored.Bounds().Dx())
	assert.Equal(t, 80, stored.Bounds().Dy())
}

func TestStoreCoverSilentlySkipsInvalidInput(t *testing.T) {
	intake := newTestIntake(t)
	ctx := context.Background()

	// Bad extension.
	assert.Empty(t, intake.StoreCover(ctx, "cover.bmp", encodePNG(t, 10, 10)))
	// No filename.
	assert.Empty(t, intake.StoreCover(ctx, "", encodePNG(t, 10, 10)))
	// Whitelisted extension but undecodable bytes.
	assert.Empty(t, intake.StoreCover(ctx, "cover.png", strings.NewReader("not an image")))
}
