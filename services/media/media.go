package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	AvatarSize = 256

	captchaWidth  = 60
	captchaHeight = 20
	captchaScale  = 2
)

var ErrUnsupportedImage = errors.New("unsupported image format")

// AvatarThumbnail decodes an uploaded image and returns a square JPEG
// center-cropped to AvatarSize.
func AvatarThumbnail(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	thumb := imaging.Fill(img, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderCaptcha draws text on a noisy background and returns a PNG
func RenderCaptcha(text string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, captchaWidth, captchaHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{245, 245, 240, 255}), image.Point{}, draw.Src)

	for i := 0; i < 40; i++ {
		img.Set(rand.IntN(captchaWidth), rand.IntN(captchaHeight), color.RGBA{
			uint8(120 + rand.IntN(100)), uint8(120 + rand.IntN(100)), uint8(120 + rand.IntN(100)), 255,
		})
	}

	d := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	step := (captchaWidth - 8) / max(len(text), 1)
	for i, ch := range text {
		d.Src = image.NewUniform(color.RGBA{uint8(rand.IntN(90)), uint8(rand.IntN(90)), uint8(60 + rand.IntN(120)), 255})
		d.Dot = fixed.P(4+i*step+rand.IntN(3), 13+rand.IntN(4))
		d.DrawString(string(ch))
	}

	scaled := imaging.Resize(img, captchaWidth*captchaScale, captchaHeight*captchaScale, imaging.Lanczos)
	scaled = imaging.Blur(scaled, 0.5)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode captcha: %w", err)
	}
	return buf.Bytes(), nil
}

// CaptchaBase64 renders text and returns the PNG base64-encoded
func CaptchaBase64(text string) (string, error) {
	png, err := RenderCaptcha(text)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
