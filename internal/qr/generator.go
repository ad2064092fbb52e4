package qr

import (
	"errors"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"

	"ms-companion/internal/config"
)

const (
	DefaultServiceURL    = "https://api.qrserver.com/v1/create-qr-code/"
	DefaultPayloadPrefix = "vthacks-user-"
	imageSize            = "200x200"
)

var ErrEmptyUserID = errors.New("user id is required")

// Generator builds the check-in QR reference for a participant. The payload only
// identifies the user; anyone holding it can present it at a check-in desk.
type Generator struct {
	serviceURL string
	prefix     string
}

func NewGenerator(cfg config.QRConfig) *Generator {
	g := &Generator{serviceURL: cfg.ServiceURL, prefix: cfg.PayloadPrefix}
	if g.serviceURL == "" {
		g.serviceURL = DefaultServiceURL
	}
	if g.prefix == "" {
		g.prefix = DefaultPayloadPrefix
	}
	return g
}

// Payload is the text encoded in the QR image.
func (g *Generator) Payload(userID string) string {
	return g.prefix + userID
}

// ParsePayload accepts a scanned payload and returns the user id it carries.
func (g *Generator) ParsePayload(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, g.prefix) {
		return "", false
	}
	id := strings.TrimPrefix(s, g.prefix)
	if id == "" {
		return "", false
	}
	return id, true
}

// Reference is the image URL for userID. Same input, same URL.
func (g *Generator) Reference(userID string) string {
	return g.serviceURL + "?size=" + imageSize + "&data=" + url.QueryEscape(g.Payload(userID))
}

// PNG renders the payload locally. size is the image edge in pixels.
func (g *Generator) PNG(userID string, size int) ([]byte, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(g.Payload(userID), qrcode.Medium, size)
}
