package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRServiceMakeBase64(t *testing.T) {
	qr := QRService{}

	t.Run("DataURIFormat", func(t *testing.T) {
		payload, err := qr.MakeBase64("http://localhost:8080/promo", DefaultQRSize)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(payload, "data:image/png;base64,"))
	})

	t.Run("DifferentURLsDifferentPayloads", func(t *testing.T) {
		a, err := qr.MakeBase64("http://localhost:8080/aaaaaaa", DefaultQRSize)
		require.NoError(t, err)
		b, err := qr.MakeBase64("http://localhost:8080/bbbbbbb", DefaultQRSize)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("ZeroSizeUsesDefault", func(t *testing.T) {
		payload, err := qr.MakeBase64("http://localhost:8080/promo", 0)
		require.NoError(t, err)
		assert.NotEmpty(t, payload)
	})
}
