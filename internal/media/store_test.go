package media

import (
	"strings"
	"testing"
)

func TestFileNameKeepsExtension(t *testing.T) {
	tests := []struct {
		original string
		wantExt  string
	}{
		{"couch.PNG", ".png"},
		{"IMG_0001.jpeg", ".jpeg"},
		{"no-extension", ".jpg"},
		{"", ".jpg"},
	}

	for _, tt := range tests {
		name := FileName(tt.original)
		if !strings.HasSuffix(name, tt.wantExt) {
			t.Errorf("FileName(%q) = %q, want suffix %q", tt.original, name, tt.wantExt)
		}
		if strings.Contains(name, "/") {
			t.Errorf("FileName(%q) = %q must not contain a slash", tt.original, name)
		}
	}
}

func TestFileNameIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := FileName("photo.jpg")
		if seen[name] {
			t.Fatalf("duplicate name %q", name)
		}
		seen[name] = true
	}
}

func TestPublicURLRoundTrip(t *testing.T) {
	u := PublicURL("https://storage.googleapis.com/", "sale-photos", "123-abc.png")
	if u != "https://storage.googleapis.com/sale-photos/123-abc.png" {
		t.Fatalf("unexpected url %q", u)
	}

	name, err := ObjectName(u)
	if err != nil {
		t.Fatalf("ObjectName: %v", err)
	}
	if name != "123-abc.png" {
		t.Errorf("expected 123-abc.png, got %q", name)
	}
}

func TestObjectNameRejectsEmptyPath(t *testing.T) {
	if _, err := ObjectName("https://storage.googleapis.com/"); err == nil {
		t.Fatal("expected error for url without file name")
	}
	if _, err := ObjectName("://bad"); err == nil {
		t.Fatal("expected error for unparseable url")
	}
}

func TestIsImage(t *testing.T) {
	if !IsImage("image/png") || !IsImage(" Image/JPEG") {
		t.Error("expected image types to match")
	}
	if IsImage("application/pdf") || IsImage("") {
		t.Error("expected non-image types to be rejected")
	}
}
