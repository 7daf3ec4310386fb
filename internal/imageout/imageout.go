// Package imageout writes rendered frames to disk.
package imageout

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
)

// Supported formats.
const (
	FormatWebP = "webp"
	FormatTGA  = "tga"
)

// Normalize lower-cases format and checks it is supported.
func Normalize(format string) (string, error) {
	f := strings.TrimPrefix(strings.ToLower(format), ".")
	switch f {
	case "":
		return FormatWebP, nil
	case FormatWebP, FormatTGA:
		return f, nil
	}
	return "", fmt.Errorf("imageout: unsupported format %q", format)
}

// Ext returns the file extension for a format, including the dot.
func Ext(format string) string {
	f, err := Normalize(format)
	if err != nil {
		return ""
	}
	return "." + f
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format string) error {
	f, err := Normalize(format)
	if err != nil {
		return err
	}
	switch f {
	case FormatTGA:
		if err := tga.Encode(w, img); err != nil {
			return fmt.Errorf("imageout: tga encode: %w", err)
		}
	default:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("imageout: webp encode: %w", err)
		}
	}
	return nil
}

// WriteFile creates path (and its directory) and encodes img into it.
func WriteFile(path string, img image.Image, format string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("imageout: mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageout: create %s: %w", path, err)
	}
	if err := Encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
