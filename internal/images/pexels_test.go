package images

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLocationImageURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "px-key" {
			t.Errorf("Authorization = %q, want px-key", got)
		}
		q := r.URL.Query()
		if !strings.HasPrefix(q.Get("query"), "Paris ") {
			t.Errorf("query = %q, want city name without country suffix", q.Get("query"))
		}
		if q.Get("orientation") != "landscape" {
			t.Errorf("orientation = %q, want landscape", q.Get("orientation"))
		}
		w.Write([]byte(`{"photos":[{"src":{"large2x":"https://img.example/2x.jpg","large":"https://img.example/1x.jpg"}}]}`))
	}))
	defer srv.Close()

	c := NewPexelsClient("px-key", srv.URL, time.Second, nil)
	url, err := c.LocationImageURL(context.Background(), "Paris, France")
	if err != nil {
		t.Fatalf("LocationImageURL failed: %v", err)
	}
	if url != "https://img.example/2x.jpg" {
		t.Errorf("url = %q, want the large2x rendition", url)
	}
}

func TestLocationImageURLFallsBackToLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"photos":[{"src":{"large":"https://img.example/1x.jpg"}}]}`))
	}))
	defer srv.Close()

	c := NewPexelsClient("px-key", srv.URL, time.Second, nil)
	url, err := c.LocationImageURL(context.Background(), "Tokyo")
	if err != nil {
		t.Fatalf("LocationImageURL failed: %v", err)
	}
	if url != "https://img.example/1x.jpg" {
		t.Errorf("url = %q, want the large rendition", url)
	}
}

func TestLocationImageURLNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"photos":[]}`))
	}))
	defer srv.Close()

	c := NewPexelsClient("px-key", srv.URL, time.Second, nil)
	_, err := c.LocationImageURL(context.Background(), "Nowhere")
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("error = %v, want ErrNoImage", err)
	}
}

func TestConfigured(t *testing.T) {
	if NewPexelsClient("", "", 0, nil).Configured() {
		t.Error("client without key reports configured")
	}
	if !NewPexelsClient("k", "", 0, nil).Configured() {
		t.Error("client with key reports unconfigured")
	}
}

func TestGradientDeterministic(t *testing.T) {
	a := Gradient("Tokyo")
	b := Gradient("Tokyo")
	if a != b {
		t.Errorf("Gradient not deterministic: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "linear-gradient(135deg, hsl(") {
		t.Errorf("Gradient = %q, want a linear-gradient of hsl stops", a)
	}
	if Gradient("Tokyo") == Gradient("Paris") {
		t.Error("different cities produced the same gradient")
	}
}

func TestGradientIgnoresCountrySuffix(t *testing.T) {
	if Gradient("Paris, France") != Gradient("Paris") {
		t.Error("country suffix changed the gradient")
	}
}

func TestCleanCity(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Paris, France", "Paris"},
		{"New York, NY, USA", "New York"},
		{"Tokyo", "Tokyo"},
		{"  Bali , Indonesia", "Bali"},
	}
	for _, tt := range tests {
		if got := cleanCity(tt.in); got != tt.want {
			t.Errorf("cleanCity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
