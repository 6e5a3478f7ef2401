package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func TestAvatarThumbnail(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 640, 320))
	for x := 0; x < 640; x++ {
		for y := 0; y < 320; y++ {
			src.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 100, 255})
		}
	}
	var in bytes.Buffer
	if err := png.Encode(&in, src); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}

	out, err := AvatarThumbnail(&in)
	if err != nil {
		t.Fatalf("AvatarThumbnail failed: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("thumbnail does not decode: %v", err)
	}
	if format != "jpeg" || cfg.Width != AvatarSize || cfg.Height != AvatarSize {
		t.Errorf("thumbnail is %s %dx%d, want jpeg %dx%d", format, cfg.Width, cfg.Height, AvatarSize, AvatarSize)
	}
}

func TestAvatarThumbnailRejectsGarbage(t *testing.T) {
	_, err := AvatarThumbnail(strings.NewReader("not an image"))
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("got %v, want ErrUnsupportedImage", err)
	}
}

func TestRenderCaptcha(t *testing.T) {
	encoded, err := CaptchaBase64("AB3K")
	if err != nil {
		t.Fatalf("CaptchaBase64 failed: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("captcha is not a PNG: %v", err)
	}
	if cfg.Width != captchaWidth*captchaScale || cfg.Height != captchaHeight*captchaScale {
		t.Errorf("captcha is %dx%d", cfg.Width, cfg.Height)
	}
}
