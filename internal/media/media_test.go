package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"versioned", "https://res.cloudinary.com/demo/image/upload/v1712345678/products/rice_1.jpg", "products/rice_1"},
		{"unversioned", "https://res.cloudinary.com/demo/image/upload/products/rice_1.png", "products/rice_1"},
		{"root folder", "https://res.cloudinary.com/demo/image/upload/v1/beans.webp", "beans"},
		{"no extension", "https://res.cloudinary.com/demo/image/upload/products/rice", "products/rice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PublicIDFromURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPublicIDFromURL_NotCloudinary(t *testing.T) {
	_, err := PublicIDFromURL("https://example.com/images/rice.jpg")
	assert.Error(t, err)

	_, err = PublicIDFromURL("https://res.cloudinary.com/demo/image/upload")
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "jollof-rice-family-pack", slug("Jollof Rice (Family Pack)"))
	assert.Equal(t, "image", slug("***"))
	assert.LessOrEqual(t, len(slug("a very long product name that keeps going and going forever")), 40)
}
