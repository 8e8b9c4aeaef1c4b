package totp

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"net/url"
	"strings"

	"github.com/pquerna/otp"
)

// ErrNotTOTP is returned when a provisioning URI is not of type totp.
var ErrNotTOTP = errors.New("provisioning uri is not a totp key")

// ProvisioningURI builds the otpauth URI that authenticator apps import:
//
//	otpauth://totp/<issuer:label>?secret=..&issuer=..&algorithm=SHA1&digits=6&period=30
func ProvisioningURI(label, issuer, secret string) string {
	return "otpauth://totp/" + escapeComponent(issuer+":"+label) +
		"?secret=" + secret +
		"&issuer=" + escapeComponent(issuer) +
		"&algorithm=SHA1&digits=6&period=30"
}

// SecretFromURI extracts the base32 secret from a provisioning URI.
func SecretFromURI(uri string) (string, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return "", fmt.Errorf("invalid provisioning uri: %w", err)
	}
	if key.Type() != "totp" {
		return "", ErrNotTOTP
	}
	return key.Secret(), nil
}

// QRCode renders uri as a square PNG of size pixels.
func QRCode(uri string, size int) ([]byte, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid provisioning uri: %w", err)
	}
	if key.Type() != "totp" {
		return nil, ErrNotTOTP
	}
	img, err := key.Image(size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return buf.Bytes(), nil
}

var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent matches JavaScript's encodeURIComponent: -_.!~*'() stay
// literal and spaces become %20.
func escapeComponent(s string) string {
	return componentReplacer.Replace(url.QueryEscape(s))
}
