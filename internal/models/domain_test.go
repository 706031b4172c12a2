package models

import "testing"

func TestParseItemName(t *testing.T) {
	got, err := ParseItemName("  iPhone 16e ")
	if err != nil {
		t.Fatalf("parse name: %v", err)
	}
	if got != "iPhone 16e" {
		t.Fatalf("expected trimmed name, got %q", got)
	}

	for _, raw := range []string{"", "   ", "\t\n"} {
		if _, err := ParseItemName(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseCategoryNamePreservesCase(t *testing.T) {
	got, err := ParseCategoryName(" Phone ")
	if err != nil {
		t.Fatalf("parse category: %v", err)
	}
	if got != "Phone" {
		t.Fatalf("expected %q, got %q", "Phone", got)
	}

	if _, err := ParseCategoryName(""); err == nil {
		t.Fatal("expected missing category error")
	}
}

func TestParseItemID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "1", want: 1},
		{raw: " 42 ", want: 42},
		{raw: "", wantErr: true},
		{raw: "0", wantErr: true},
		{raw: "-3", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseItemID(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parse %q: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("expected %d for %q, got %d", tt.want, tt.raw, got)
		}
	}
}

func TestHasImageExt(t *testing.T) {
	if !HasImageExt("abc.jpg") {
		t.Fatal("expected .jpg to be accepted")
	}
	for _, name := range []string{"abc.png", "abc.JPG", "abc", "jpg"} {
		if HasImageExt(name) {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}
