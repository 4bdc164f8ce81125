package exr

import (
	"io"
	"math"

	"github.com/mrjoshuak/go-openexr/half"
)

// TiledWriter writes a single-part tiled image. Like ScanlineWriter, it
// wraps the generic Writer as a single-part (part 0) convenience API.
type TiledWriter struct {
	writer *Writer
	header *Header
	fb     *FrameBuffer
}

// NewTiledWriter starts writing a tiled image described by h. h must be
// tiled; use NewScanlineWriter for scanline parts.
func NewTiledWriter(w io.WriteSeeker, h *Header) (*TiledWriter, error) {
	if h == nil {
		return nil, ErrInvalidHeader
	}
	if !h.IsTiled() {
		return nil, ErrNotTiled
	}

	writer, err := NewMultiPartWriter(w, []*Header{h})
	if err != nil {
		return nil, err
	}
	return &TiledWriter{writer: writer, header: h}, nil
}

// Header returns the part's header.
func (tw *TiledWriter) Header() *Header {
	return tw.header
}

// SetFrameBuffer sets the frame buffer WriteTile/WriteTiles read channel
// data from.
func (tw *TiledWriter) SetFrameBuffer(fb *FrameBuffer) {
	tw.fb = fb
}

// NumTilesX returns the number of tiles spanning the data window at
// level 0.
func (tw *TiledWriter) NumTilesX() int { return tw.header.NumXTiles(0) }

// NumTilesY returns the number of tiles spanning the data window at
// level 0.
func (tw *TiledWriter) NumTilesY() int { return tw.header.NumYTiles(0) }

// NumXTilesAtLevel returns the number of tile columns at the given
// x-resolution level.
func (tw *TiledWriter) NumXTilesAtLevel(level int) int { return tw.header.NumXTiles(level) }

// NumYTilesAtLevel returns the number of tile rows at the given
// y-resolution level.
func (tw *TiledWriter) NumYTilesAtLevel(level int) int { return tw.header.NumYTiles(level) }

// NumXLevels returns the number of x-resolution levels.
func (tw *TiledWriter) NumXLevels() int { return tw.header.NumXLevels() }

// NumYLevels returns the number of y-resolution levels.
func (tw *TiledWriter) NumYLevels() int { return tw.header.NumYLevels() }

// NumLevels returns the single-axis level count for mipmap mode (NumXLevels
// and NumYLevels are equal in that mode).
func (tw *TiledWriter) NumLevels() int { return tw.header.NumXLevels() }

// LevelMode returns the part's tile level mode (one/mipmap/ripmap).
func (tw *TiledWriter) LevelMode() LevelMode { return tw.header.TileDescription().Mode }

// LevelWidth returns the pixel width of the given x-resolution level.
func (tw *TiledWriter) LevelWidth(level int) int { return tw.header.LevelWidth(level) }

// LevelHeight returns the pixel height of the given y-resolution level.
func (tw *TiledWriter) LevelHeight(level int) int { return tw.header.LevelHeight(level) }

// WriteTile writes the tile at (tx, ty) in level 0.
func (tw *TiledWriter) WriteTile(tx, ty int) error {
	return tw.WriteTileLevel(tx, ty, 0, 0)
}

// WriteTiles writes every tile in the level-0 rectangle [x1,x2] x [y1,y2].
func (tw *TiledWriter) WriteTiles(x1, y1, x2, y2 int) error {
	return tw.WriteTilesLevel(x1, y1, x2, y2, 0, 0)
}

// WriteTileLevel writes a single tile at the given tile and level
// coordinate.
func (tw *TiledWriter) WriteTileLevel(tx, ty, lx, ly int) error {
	if tw.fb == nil {
		return ErrNoFrameBuffer
	}
	if err := tw.checkTileLevel(tx, ty, lx, ly); err != nil {
		return err
	}
	return tw.writeTile(tx, ty, lx, ly)
}

// WriteTilesLevel writes every tile in the rectangle [x1,x2] x [y1,y2] at
// the given level.
func (tw *TiledWriter) WriteTilesLevel(x1, y1, x2, y2, lx, ly int) error {
	if tw.fb == nil {
		return ErrNoFrameBuffer
	}
	if x1 > x2 || y1 > y2 {
		return ErrTileOutOfRange
	}
	if err := tw.checkTileLevel(x1, y1, lx, ly); err != nil {
		return err
	}
	if err := tw.checkTileLevel(x2, y2, lx, ly); err != nil {
		return err
	}

	for ty := y1; ty <= y2; ty++ {
		for tx := x1; tx <= x2; tx++ {
			if err := tw.writeTile(tx, ty, lx, ly); err != nil {
				return err
			}
		}
	}
	return nil
}

func (tw *TiledWriter) checkTileLevel(tx, ty, lx, ly int) error {
	h := tw.header
	if lx < 0 || lx >= h.NumXLevels() || ly < 0 || ly >= h.NumYLevels() {
		return ErrTileOutOfRange
	}
	if tx < 0 || tx >= h.NumXTiles(lx) || ty < 0 || ty >= h.NumYTiles(ly) {
		return ErrTileOutOfRange
	}
	return nil
}

func (tw *TiledWriter) writeTile(tx, ty, lx, ly int) error {
	h := tw.header
	td := h.TileDescription()
	dw := h.DataWindow()

	tileW := int(td.XSize)
	tileH := int(td.YSize)
	levelW := h.LevelWidth(lx)
	levelH := h.LevelHeight(ly)

	startX := tx * tileW
	startY := ty * tileH
	endX := startX + tileW
	endY := startY + tileH
	if endX > levelW {
		endX = levelW
	}
	if endY > levelH {
		endY = levelH
	}
	actualW := endX - startX
	actualH := endY - startY
	absStartY := int(dw.Min.Y) + startY

	cl := h.Channels()
	if cl == nil {
		return ErrInvalidHeader
	}
	comp := h.Compression()

	uncompressed := buildTileData(tw.fb, cl, startX, absStartY, actualW, actualH)
	compressed, err := compressChunkData(uncompressed, actualW, actualH, cl, comp)
	if err != nil {
		return err
	}
	return tw.writer.WriteTileChunkPart(0, tx, ty, lx, ly, compressed)
}

// Close flushes the part's offset table.
func (tw *TiledWriter) Close() error {
	return tw.writer.Close()
}

// TiledReader reads a single part's tile chunks into a caller-set frame
// buffer.
type TiledReader struct {
	file *File
	part int
	fb   *FrameBuffer
}

// NewTiledReader returns a reader for part 0 of f.
func NewTiledReader(f *File) (*TiledReader, error) {
	return NewTiledReaderPart(f, 0)
}

// NewTiledReaderPart returns a reader for the given part of f. part must
// name a tiled part.
func NewTiledReaderPart(f *File, part int) (*TiledReader, error) {
	if f == nil {
		return nil, ErrInvalidFile
	}
	if part < 0 || part >= f.NumParts() {
		return nil, ErrWrongPart
	}
	if !f.Header(part).IsTiled() {
		return nil, ErrNotTiled
	}
	return &TiledReader{file: f, part: part}, nil
}

// Header returns the part's header.
func (tr *TiledReader) Header() *Header {
	return tr.file.Header(tr.part)
}

// DataWindow returns the part's data window.
func (tr *TiledReader) DataWindow() Box2i {
	return tr.Header().DataWindow()
}

// SetFrameBuffer sets the frame buffer ReadTile/ReadTiles write channel
// data into.
func (tr *TiledReader) SetFrameBuffer(fb *FrameBuffer) {
	tr.fb = fb
}

// NumTilesX returns the number of tiles spanning the data window at
// level 0.
func (tr *TiledReader) NumTilesX() int { return tr.Header().NumXTiles(0) }

// NumTilesY returns the number of tiles spanning the data window at
// level 0.
func (tr *TiledReader) NumTilesY() int { return tr.Header().NumYTiles(0) }

// NumXTilesAtLevel returns the number of tile columns at the given
// x-resolution level.
func (tr *TiledReader) NumXTilesAtLevel(level int) int { return tr.Header().NumXTiles(level) }

// NumYTilesAtLevel returns the number of tile rows at the given
// y-resolution level.
func (tr *TiledReader) NumYTilesAtLevel(level int) int { return tr.Header().NumYTiles(level) }

// NumXLevels returns the number of x-resolution levels.
func (tr *TiledReader) NumXLevels() int { return tr.Header().NumXLevels() }

// NumYLevels returns the number of y-resolution levels.
func (tr *TiledReader) NumYLevels() int { return tr.Header().NumYLevels() }

// NumLevels returns the single-axis level count for mipmap mode.
func (tr *TiledReader) NumLevels() int { return tr.Header().NumXLevels() }

// LevelMode returns the part's tile level mode (one/mipmap/ripmap).
func (tr *TiledReader) LevelMode() LevelMode { return tr.Header().TileDescription().Mode }

// LevelWidth returns the pixel width of the given x-resolution level.
func (tr *TiledReader) LevelWidth(level int) int { return tr.Header().LevelWidth(level) }

// LevelHeight returns the pixel height of the given y-resolution level.
func (tr *TiledReader) LevelHeight(level int) int { return tr.Header().LevelHeight(level) }

// ReadTile reads the tile at (tx, ty) in level 0.
func (tr *TiledReader) ReadTile(tx, ty int) error {
	return tr.ReadTileLevel(tx, ty, 0, 0)
}

// ReadTiles reads every tile in the level-0 rectangle [x1,x2] x [y1,y2].
func (tr *TiledReader) ReadTiles(x1, y1, x2, y2 int) error {
	return tr.ReadTilesLevel(x1, y1, x2, y2, 0, 0)
}

// ReadTileLevel reads a single tile at the given tile and level
// coordinate.
func (tr *TiledReader) ReadTileLevel(tx, ty, lx, ly int) error {
	if tr.fb == nil {
		return ErrNoFrameBuffer
	}
	if err := tr.checkTileLevel(tx, ty, lx, ly); err != nil {
		return err
	}
	return tr.readTile(tx, ty, lx, ly)
}

// ReadTilesLevel reads every tile in the rectangle [x1,x2] x [y1,y2] at
// the given level.
func (tr *TiledReader) ReadTilesLevel(x1, y1, x2, y2, lx, ly int) error {
	if tr.fb == nil {
		return ErrNoFrameBuffer
	}
	if x1 > x2 || y1 > y2 {
		return ErrTileOutOfRange
	}
	if err := tr.checkTileLevel(x1, y1, lx, ly); err != nil {
		return err
	}
	if err := tr.checkTileLevel(x2, y2, lx, ly); err != nil {
		return err
	}

	for ty := y1; ty <= y2; ty++ {
		for tx := x1; tx <= x2; tx++ {
			if err := tr.readTile(tx, ty, lx, ly); err != nil {
				return err
			}
		}
	}
	return nil
}

func (tr *TiledReader) checkTileLevel(tx, ty, lx, ly int) error {
	h := tr.Header()
	if lx < 0 || lx >= h.NumXLevels() || ly < 0 || ly >= h.NumYLevels() {
		return ErrTileOutOfRange
	}
	if tx < 0 || tx >= h.NumXTiles(lx) || ty < 0 || ty >= h.NumYTiles(ly) {
		return ErrTileOutOfRange
	}
	return nil
}

func (tr *TiledReader) readTile(tx, ty, lx, ly int) error {
	h := tr.Header()
	chunkIndex := TileChunkIndex(h, tx, ty, lx, ly)
	coord, compressed, err := tr.file.ReadTileChunk(tr.part, chunkIndex)
	if err != nil {
		return err
	}

	td := h.TileDescription()
	dw := h.DataWindow()
	tileW := int(td.XSize)
	tileH := int(td.YSize)
	levelW := h.LevelWidth(coord.LX)
	levelH := h.LevelHeight(coord.LY)

	startX := coord.X * tileW
	startY := coord.Y * tileH
	endX := startX + tileW
	endY := startY + tileH
	if endX > levelW {
		endX = levelW
	}
	if endY > levelH {
		endY = levelH
	}
	actualW := endX - startX
	actualH := endY - startY
	absStartY := int(dw.Min.Y) + startY

	cl := h.Channels()
	if cl == nil {
		return ErrInvalidHeader
	}
	comp := h.Compression()

	uncompressed, err := decompressChunkData(compressed, actualW, actualH, cl, comp, actualW*actualH*cl.BytesPerPixel())
	if err != nil {
		return err
	}
	unpackTileData(tr.fb, cl, startX, absStartY, actualW, actualH, uncompressed)
	return nil
}

// unpackTileData is the decode-side counterpart to buildTileData
// (exr/multipart.go): it scatters a tile's packed, per-channel bytes into
// the frame buffer's slices.
func unpackTileData(fb *FrameBuffer, cl *ChannelList, startX, startY, width, height int, data []byte) {
	sortedChannels := cl.SortedByName()

	offset := 0
	for y := 0; y < height; y++ {
		for _, ch := range sortedChannels {
			slice := fb.Get(ch.Name)
			for x := 0; x < width; x++ {
				if slice == nil {
					switch ch.Type {
					case PixelTypeHalf:
						offset += 2
					case PixelTypeFloat, PixelTypeUint:
						offset += 4
					}
					continue
				}

				switch ch.Type {
				case PixelTypeHalf:
					bits := uint16(data[offset]) | uint16(data[offset+1])<<8
					slice.SetHalf(startX+x, startY+y, half.FromBits(bits))
					offset += 2
				case PixelTypeFloat:
					bits := uint32(data[offset]) | uint32(data[offset+1])<<8 | uint32(data[offset+2])<<16 | uint32(data[offset+3])<<24
					slice.SetFloat32(startX+x, startY+y, math.Float32frombits(bits))
					offset += 4
				case PixelTypeUint:
					v := uint32(data[offset]) | uint32(data[offset+1])<<8 | uint32(data[offset+2])<<16 | uint32(data[offset+3])<<24
					slice.SetUint32(startX+x, startY+y, v)
					offset += 4
				}
			}
		}
	}
}
