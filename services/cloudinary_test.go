package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPublicID(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{
			url:      "https://res.cloudinary.com/demo/image/upload/v1234567890/businesses/front.jpg",
			expected: "businesses/front",
		},
		{
			url:      "https://res.cloudinary.com/demo/image/upload/businesses/inside.png",
			expected: "businesses/inside",
		},
		{
			url:      "not-a-cloudinary-url",
			expected: "",
		},
		{
			url:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ExtractPublicID(tt.url), "url %q", tt.url)
	}
}

func TestForceHTTPS(t *testing.T) {
	assert.Equal(t, "https://example.com/a.jpg", forceHTTPS("http://example.com/a.jpg"))
	assert.Equal(t, "https://example.com/a.jpg", forceHTTPS(" https://example.com/a.jpg "))
	assert.Equal(t, "", forceHTTPS(""))
}
