package storage

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAvatar(t *testing.T) {
	cases := []struct {
		name        string
		size        int64
		contentType string
		want        error
	}{
		{"ok png", 1024, "image/png", nil},
		{"ok at cap", MaxAvatarSize, "image/jpeg", nil},
		{"over cap", MaxAvatarSize + 1, "image/jpeg", ErrTooLarge},
		{"not image", 1024, "application/pdf", ErrNotAnImage},
		{"empty", 0, "image/png", ErrEmptyUpload},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ValidateAvatar(c.size, c.contentType); !errors.Is(got, c.want) {
				t.Fatalf("ValidateAvatar(%d, %q) = %v, want %v", c.size, c.contentType, got, c.want)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	k1 := ObjectKey("user-1", "image/png")
	k2 := ObjectKey("user-1", "image/png")
	if k1 == k2 {
		t.Fatal("keys must be unique per upload")
	}
	if !strings.HasPrefix(k1, "user-1/") || !strings.HasSuffix(k1, ".png") {
		t.Fatalf("key shape: %q", k1)
	}
	if !strings.HasSuffix(ObjectKey("u", "image/jpeg"), ".jpeg") {
		t.Fatal("extension should follow content type")
	}
}
