package exr

// MagicNumber is the four magic bytes every OpenEXR file begins with,
// the little-endian encoding of 0x01312F76.
var MagicNumber = []byte{0x76, 0x2f, 0x31, 0x01}

// version_and_flags bit layout: low 8 bits are the format version: the
// remaining bits are feature flags.
const (
	versionMask         = 0x000000ff
	flagTiledSinglePart = 1 << 9
	flagLongNames       = 1 << 10
	flagDeep            = 1 << 11
	flagMultiPart       = 1 << 12
)

// MakeVersionField packs the format version and feature flags into the
// 32-bit word that follows the magic number.
func MakeVersionField(version int, tiled, longNames, deep, multiPart bool) uint32 {
	v := uint32(version) & versionMask
	if tiled {
		v |= flagTiledSinglePart
	}
	if longNames {
		v |= flagLongNames
	}
	if deep {
		v |= flagDeep
	}
	if multiPart {
		v |= flagMultiPart
	}
	return v
}

// ParseVersionField unpacks the version-and-flags word into its format
// version and individual feature flags.
func ParseVersionField(field uint32) (version int, tiled, longNames, deep, multiPart bool) {
	version = int(field & versionMask)
	tiled = field&flagTiledSinglePart != 0
	longNames = field&flagLongNames != 0
	deep = field&flagDeep != 0
	multiPart = field&flagMultiPart != 0
	return
}

// Standard part-level attribute names.
const (
	AttrNameName             = "name"
	AttrNameType             = "type"
	AttrNameVersion          = "version"
	AttrNameChunkCount       = "chunkCount"
	AttrNameView             = "view"
)

// Standard part "type" attribute values.
const (
	PartTypeScanline     = "scanlineimage"
	PartTypeTiled        = "tiledimage"
	PartTypeDeepScanline = "deepscanline"
	PartTypeDeepTiled    = "deeptile"
)

// IsDeepPartType reports whether a part "type" attribute value denotes
// deep data storage.
func IsDeepPartType(t string) bool {
	return t == PartTypeDeepScanline || t == PartTypeDeepTiled
}

// IsTiledPartType reports whether a part "type" attribute value denotes
// tiled storage.
func IsTiledPartType(t string) bool {
	return t == PartTypeTiled || t == PartTypeDeepTiled
}

// TileCoord identifies one tile: its column and row within a resolution
// level, and the level itself (lx, ly differ only in ripmap mode).
type TileCoord struct {
	X, Y   int
	LX, LY int
}

// TilesInOrder enumerates every tile of the header's tiled part in the
// canonical on-disk order: increasing level, then row-major (y outer, x
// inner) within each level. Chunk offset tables and chunk writers both
// rely on this order to agree on chunk index <-> tile coordinate.
func TilesInOrder(h *Header) []TileCoord {
	td := h.TileDescription()
	if td == nil {
		return nil
	}

	var coords []TileCoord
	appendLevel := func(lx, ly int) {
		nx := h.NumXTiles(lx)
		ny := h.NumYTiles(ly)
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				coords = append(coords, TileCoord{X: x, Y: y, LX: lx, LY: ly})
			}
		}
	}

	switch td.Mode {
	case LevelModeMipmap:
		n := h.NumXLevels()
		for l := 0; l < n; l++ {
			appendLevel(l, l)
		}
	case LevelModeRipmap:
		nx := h.NumXLevels()
		ny := h.NumYLevels()
		for ly := 0; ly < ny; ly++ {
			for lx := 0; lx < nx; lx++ {
				appendLevel(lx, ly)
			}
		}
	default: // LevelModeOne
		appendLevel(0, 0)
	}

	return coords
}

// TileChunkIndex returns the index into a tiled part's offset table for the
// tile at (tileX, tileY, levelX, levelY), in the same level-major,
// row-major order TilesInOrder enumerates.
func TileChunkIndex(h *Header, tileX, tileY, levelX, levelY int) int {
	td := h.TileDescription()
	if td == nil || td.Mode == LevelModeOne {
		return tileY*h.NumXTiles(0) + tileX
	}

	offset := 0
	switch td.Mode {
	case LevelModeMipmap:
		for l := 0; l < levelX; l++ {
			offset += h.NumXTiles(l) * h.NumYTiles(l)
		}
		offset += tileY*h.NumXTiles(levelX) + tileX
	case LevelModeRipmap:
		for ly := 0; ly < levelY; ly++ {
			numY := h.NumYTiles(ly)
			for lx := 0; lx < h.NumXLevels(); lx++ {
				offset += h.NumXTiles(lx) * numY
			}
		}
		for lx := 0; lx < levelX; lx++ {
			offset += h.NumXTiles(lx) * h.NumYTiles(levelY)
		}
		offset += tileY*h.NumXTiles(levelX) + tileX
	}
	return offset
}

// ScanlineChunkIndex returns the index into a scanline part's offset
// table for the chunk containing row y of the data window.
func ScanlineChunkIndex(h *Header, y int) int {
	dw := h.DataWindow()
	linesPerChunk := h.Compression().ScanlinesPerChunk()
	return (y - int(dw.Min.Y)) / linesPerChunk
}

// ScanlineChunkStartY returns the first data-window row stored in the
// chunk at the given index.
func ScanlineChunkStartY(h *Header, chunkIndex int) int {
	dw := h.DataWindow()
	linesPerChunk := h.Compression().ScanlinesPerChunk()
	return int(dw.Min.Y) + chunkIndex*linesPerChunk
}

// ScanlineChunkLineCount returns how many scanlines the chunk at the
// given index holds, accounting for a final partial chunk.
func ScanlineChunkLineCount(h *Header, chunkIndex int) int {
	dw := h.DataWindow()
	linesPerChunk := h.Compression().ScanlinesPerChunk()
	startY := ScanlineChunkStartY(h, chunkIndex)
	remaining := int(dw.Max.Y) - startY + 1
	if remaining < linesPerChunk {
		return remaining
	}
	return linesPerChunk
}
