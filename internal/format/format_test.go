package format

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ImageName string `json:"image_name"`
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONFormatter{}).Write(&buf, sample{ID: 1, Name: "jacket", ImageName: "default.jpg"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := `{"id":1,"name":"jacket","image_name":"default.jpg"}` + "\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestYAMLFormatterUsesJSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	payload := map[string]any{"items": []sample{{ID: 7, Name: "iPhone 16e", ImageName: "default.jpg"}}}
	if err := (YAMLFormatter{}).Write(&buf, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"items:", "id: 7", "name: iPhone 16e", "image_name: default.jpg"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestForName(t *testing.T) {
	for _, name := range []string{"", "text", "TEXT"} {
		f, ok, err := ForName(name)
		if err != nil || ok || f != nil {
			t.Fatalf("expected plain text for %q, got f=%v ok=%v err=%v", name, f, ok, err)
		}
	}

	f, ok, err := ForName("json")
	if err != nil || !ok {
		t.Fatalf("json: ok=%v err=%v", ok, err)
	}
	if _, isJSON := f.(JSONFormatter); !isJSON {
		t.Fatalf("expected JSONFormatter, got %T", f)
	}

	f, ok, err = ForName("yml")
	if err != nil || !ok {
		t.Fatalf("yml: ok=%v err=%v", ok, err)
	}
	if _, isYAML := f.(YAMLFormatter); !isYAML {
		t.Fatalf("expected YAMLFormatter, got %T", f)
	}

	if _, _, err := ForName("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
