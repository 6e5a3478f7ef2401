package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	digits = "0123456789"
	// no 0/O or 1/I so rendered captchas stay readable
	captchaAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	VerificationCodeLength = 6
	CaptchaLength          = 4
)

// NumericCode returns n random decimal digits
func NumericCode(n int) (string, error) {
	return randomString(digits, n)
}

// CaptchaText returns n random characters from the captcha alphabet
func CaptchaText(n int) (string, error) {
	return randomString(captchaAlphabet, n)
}

func randomString(alphabet string, n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid length %d", n)
	}
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
