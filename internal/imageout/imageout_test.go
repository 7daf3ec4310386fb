package imageout

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 2, color.NRGBA{255, 128, 0, 255})
	return img
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{"": FormatWebP, "WEBP": FormatWebP, ".tga": FormatTGA}
	for in, want := range cases {
		if got, err := Normalize(in); err != nil || got != want {
			t.Fatalf("Normalize(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := Normalize("png"); err == nil {
		t.Fatal("png accepted")
	}
	if Ext("tga") != ".tga" || Ext("gif") != "" {
		t.Fatal("Ext")
	}
}

func TestEncodeWebP(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testImage(), "webp"); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WEBP" {
		t.Fatalf("not a WebP container: % x", b[:min(len(b), 12)])
	}
}

func TestWriteFileTGA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames", "0001.tga")
	if err := WriteFile(path, testImage(), FormatTGA); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := tga.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	r, g, _, a := img.At(1, 2).RGBA()
	if r>>8 != 255 || g>>8 != 128 || a>>8 != 255 {
		t.Fatalf("pixel = %v", img.At(1, 2))
	}
}
