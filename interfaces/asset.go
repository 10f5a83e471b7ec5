package interfaces

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// AssetID identifies one asset within a store. Content-named assets use the
// lowercase md5 hex of their payload; project assets use server-assigned ids.
type AssetID string

// Empty reports whether the id is unset. Store requests with an empty id are
// create requests.
func (id AssetID) Empty() bool {
	return id == ""
}

// String returns the raw id.
func (id AssetID) String() string {
	return string(id)
}

// ComputeAssetID derives the content-addressed id for a payload.
func ComputeAssetID(data []byte) AssetID {
	sum := md5.Sum(data)
	return AssetID(hex.EncodeToString(sum[:]))
}

// DataFormat is a serialization format for asset payloads.
type DataFormat string

const (
	FormatJPG  DataFormat = "jpg"
	FormatJSON DataFormat = "json"
	FormatMP3  DataFormat = "mp3"
	FormatPNG  DataFormat = "png"
	FormatSB   DataFormat = "sb"
	FormatSB2  DataFormat = "sb2"
	FormatSB3  DataFormat = "sb3"
	FormatSVG  DataFormat = "svg"
	FormatWAV  DataFormat = "wav"
)

// Valid reports whether the format belongs to the supported set.
func (f DataFormat) Valid() bool {
	switch f {
	case FormatJPG, FormatJSON, FormatMP3, FormatPNG, FormatSB, FormatSB2, FormatSB3, FormatSVG, FormatWAV:
		return true
	default:
		return false
	}
}

// String returns the format name, which doubles as the file extension.
func (f DataFormat) String() string {
	return string(f)
}

// ContentType returns the MIME type served for payloads in this format.
func (f DataFormat) ContentType() string {
	switch f {
	case FormatJPG:
		return "image/jpeg"
	case FormatJSON:
		return "application/json"
	case FormatMP3:
		return "audio/mpeg"
	case FormatPNG:
		return "image/png"
	case FormatSB, FormatSB2, FormatSB3:
		return "application/zip"
	case FormatSVG:
		return "image/svg+xml"
	case FormatWAV:
		return "audio/x-wav"
	default:
		return "application/octet-stream"
	}
}

// ParseDataFormat validates a format name, typically a file extension from a
// request path.
func ParseDataFormat(name string) (DataFormat, error) {
	f := DataFormat(strings.ToLower(name))
	if !f.Valid() {
		return "", fmt.Errorf("unsupported data format: %q", name)
	}
	return f, nil
}

// AssetType categorizes assets for filtering and store selection.
type AssetType int

const (
	// AssetTypeUnknown is the zero value, never valid in requests.
	AssetTypeUnknown AssetType = iota
	// AssetTypeProject for whole-project data
	AssetTypeProject
	// AssetTypeImageBitmap for raster costume/backdrop images
	AssetTypeImageBitmap
	// AssetTypeImageVector for vector costume/backdrop images
	AssetTypeImageVector
	// AssetTypeSound for audio clips
	AssetTypeSound
)

// String returns the type name used for filtering.
func (at AssetType) String() string {
	switch at {
	case AssetTypeProject:
		return "Project"
	case AssetTypeImageBitmap:
		return "ImageBitmap"
	case AssetTypeImageVector:
		return "ImageVector"
	case AssetTypeSound:
		return "Sound"
	default:
		return "unknown"
	}
}

// RuntimeFormat returns the default serialization format for the type, used
// when a load or store request omits the format.
func (at AssetType) RuntimeFormat() DataFormat {
	switch at {
	case AssetTypeProject:
		return FormatJSON
	case AssetTypeImageBitmap:
		return FormatPNG
	case AssetTypeImageVector:
		return FormatSVG
	case AssetTypeSound:
		return FormatWAV
	default:
		return ""
	}
}

// Immutable reports whether payloads of this type never change once stored.
// Immutable assets are content-named, so a given id always maps to the same
// bytes and responses can be cached indefinitely.
func (at AssetType) Immutable() bool {
	switch at {
	case AssetTypeImageBitmap, AssetTypeImageVector, AssetTypeSound:
		return true
	default:
		return false
	}
}

// Valid reports whether the type belongs to the supported set.
func (at AssetType) Valid() bool {
	switch at {
	case AssetTypeProject, AssetTypeImageBitmap, AssetTypeImageVector, AssetTypeSound:
		return true
	default:
		return false
	}
}

// AllAssetTypes lists every supported type, for registration convenience.
func AllAssetTypes() []AssetType {
	return []AssetType{AssetTypeProject, AssetTypeImageBitmap, AssetTypeImageVector, AssetTypeSound}
}

// ParseAssetType resolves a type by its name.
func ParseAssetType(name string) (AssetType, error) {
	switch name {
	case "Project":
		return AssetTypeProject, nil
	case "ImageBitmap":
		return AssetTypeImageBitmap, nil
	case "ImageVector":
		return AssetTypeImageVector, nil
	case "Sound":
		return AssetTypeSound, nil
	default:
		return AssetTypeUnknown, fmt.Errorf("unsupported asset type: %q", name)
	}
}

// ParseAssetRef splits an "id.format" reference into its parts, the inverse
// of Asset.Ref. A reference without a format extension keeps the whole string
// as the id and falls back to the type's runtime format.
func ParseAssetRef(assetType AssetType, ref string) (AssetID, DataFormat, error) {
	if dot := strings.LastIndexByte(ref, '.'); dot > 0 {
		format, err := ParseDataFormat(ref[dot+1:])
		if err != nil {
			return "", "", err
		}
		return AssetID(ref[:dot]), format, nil
	}
	return AssetID(ref), assetType.RuntimeFormat(), nil
}

// Asset is a typed, formatted, identified blob. It may be constructed empty
// with the payload attached exactly once when a source produces it.
type Asset struct {
	Type   AssetType
	ID     AssetID
	Format DataFormat

	data   []byte
	loaded bool
}

// NewAsset creates an asset with no payload attached yet.
func NewAsset(assetType AssetType, id AssetID, format DataFormat) *Asset {
	if format == "" {
		format = assetType.RuntimeFormat()
	}
	return &Asset{Type: assetType, ID: id, Format: format}
}

// NewAssetWithData creates a fully loaded asset. An empty id is derived from
// the payload.
func NewAssetWithData(assetType AssetType, id AssetID, format DataFormat, data []byte) *Asset {
	a := NewAsset(assetType, id, format)
	if a.ID.Empty() {
		a.ID = ComputeAssetID(data)
	}
	a.data = data
	a.loaded = true
	return a
}

// SetData attaches the payload. A second call returns ErrPayloadAlreadySet;
// the payload is immutable once attached.
func (a *Asset) SetData(data []byte) error {
	if a.loaded {
		return ErrPayloadAlreadySet
	}
	a.data = data
	a.loaded = true
	return nil
}

// Loaded reports whether the payload has been attached.
func (a *Asset) Loaded() bool {
	return a.loaded
}

// Data returns the payload, nil until loaded.
func (a *Asset) Data() []byte {
	return a.data
}

// Size returns the payload length in bytes.
func (a *Asset) Size() int {
	return len(a.data)
}

// Checksum computes the content id of the attached payload.
func (a *Asset) Checksum() AssetID {
	return ComputeAssetID(a.data)
}

// Ref returns the "id.format" form used in object keys and logs.
func (a *Asset) Ref() string {
	return fmt.Sprintf("%s.%s", a.ID, a.Format)
}
