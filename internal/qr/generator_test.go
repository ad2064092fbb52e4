package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-companion/internal/config"
)

func TestReferenceIsDeterministic(t *testing.T) {
	g := NewGenerator(config.QRConfig{})

	ref := g.Reference("abc-123")
	assert.Equal(t, "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=vthacks-user-abc-123", ref)
	assert.Equal(t, ref, g.Reference("abc-123"))
	assert.NotEqual(t, ref, g.Reference("abc-124"))
}

func TestReferenceUsesConfiguredService(t *testing.T) {
	g := NewGenerator(config.QRConfig{ServiceURL: "https://qr.example.com/gen", PayloadPrefix: "hx-"})
	assert.Equal(t, "https://qr.example.com/gen?size=200x200&data=hx-u1", g.Reference("u1"))
}

func TestPayloadRoundTrip(t *testing.T) {
	g := NewGenerator(config.QRConfig{})

	id, ok := g.ParsePayload(g.Payload("3f2b9c1e"))
	require.True(t, ok)
	assert.Equal(t, "3f2b9c1e", id)

	_, ok = g.ParsePayload("3f2b9c1e")
	assert.False(t, ok)
	_, ok = g.ParsePayload("vthacks-user-")
	assert.False(t, ok)
}

func TestPNG(t *testing.T) {
	g := NewGenerator(config.QRConfig{})

	img, err := g.PNG("user-1", 200)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, 200, decoded.Bounds().Dx())

	_, err = g.PNG("", 200)
	assert.ErrorIs(t, err, ErrEmptyUserID)
}

func TestReferenceEscapesPayload(t *testing.T) {
	g := NewGenerator(config.QRConfig{PayloadPrefix: "a b&"})
	assert.Equal(t, "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=a+b%26u1", g.Reference("u1"))
}
