package resolver

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"

	"github.com/BX-Coding/scratch-storage/interfaces"
)

// DefaultAssets builds the built-in default asset set: a transparent bitmap
// costume, an empty vector costume, a silent sound, and an empty project.
// Ids are derived from the payload bytes at construction time, never
// hardcoded, so they stay consistent with the payloads.
func DefaultAssets() []*interfaces.Asset {
	return []*interfaces.Asset{
		interfaces.NewAssetWithData(interfaces.AssetTypeImageBitmap, "", interfaces.FormatPNG, defaultBitmap()),
		interfaces.NewAssetWithData(interfaces.AssetTypeImageVector, "", interfaces.FormatSVG, defaultVector()),
		interfaces.NewAssetWithData(interfaces.AssetTypeSound, "", interfaces.FormatWAV, defaultSound()),
		interfaces.NewAssetWithData(interfaces.AssetTypeProject, "", interfaces.FormatJSON, defaultProject()),
	}
}

// defaultBitmap encodes a 1x1 transparent PNG.
func defaultBitmap() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		// writing to a bytes.Buffer cannot fail
		panic(err)
	}
	return buf.Bytes()
}

// defaultVector is an empty SVG document.
func defaultVector() []byte {
	return []byte(`<svg version="1.1" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="2" height="2" viewBox="0 0 2 2"></svg>`)
}

// defaultSound builds a zero-sample 16-bit mono PCM WAV.
func defaultSound() []byte {
	const (
		sampleRate = 22050
		channels   = 1
		bitDepth   = 16
	)
	le := binary.LittleEndian

	b := make([]byte, 0, 44)
	b = append(b, "RIFF"...)
	b = le.AppendUint32(b, 36) // total chunk size with an empty data section
	b = append(b, "WAVE"...)
	b = append(b, "fmt "...)
	b = le.AppendUint32(b, 16)
	b = le.AppendUint16(b, 1) // PCM
	b = le.AppendUint16(b, channels)
	b = le.AppendUint32(b, sampleRate)
	b = le.AppendUint32(b, sampleRate*channels*bitDepth/8)
	b = le.AppendUint16(b, channels*bitDepth/8)
	b = le.AppendUint16(b, bitDepth)
	b = append(b, "data"...)
	b = le.AppendUint32(b, 0)
	return b
}

// defaultProject is an empty project document.
func defaultProject() []byte {
	return []byte(`{"targets":[],"monitors":[],"extensions":[],"meta":{"semver":"3.0.0","vm":"0.0.0","agent":""}}`)
}
