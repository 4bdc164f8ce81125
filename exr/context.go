package exr

import (
	"fmt"
	"io"
	"sync"

	"github.com/mrjoshuak/go-openexr/internal/xdr"
)

// File is a read-only handle on an OpenEXR file's structure: its magic and
// version, every part's header, and every part's chunk offset table. It
// does not hold decoded pixels; ScanlineReader, TiledReader and the deep
// readers locate and decompress chunks through it on demand.
type File struct {
	r      io.ReaderAt
	size   int64
	closer io.Closer

	version   int
	tiled     bool
	longNames bool
	deep      bool
	multiPart bool

	headers []*Header
	offsets [][]int64
}

// OpenReader parses an OpenEXR file's headers and chunk offset tables from
// r, which must expose size bytes starting at offset 0. It does not take
// ownership of r; callers that need Close to release an underlying
// resource should go through OpenFile or OpenFileMmap instead.
func OpenReader(r io.ReaderAt, size int64) (*File, error) {
	if r == nil {
		return nil, ErrInvalidFile
	}
	if size < 8 {
		return nil, NewError(KindFileBadHeader, ErrInvalidFile)
	}

	var magicVersion [8]byte
	if _, err := r.ReadAt(magicVersion[:], 0); err != nil {
		return nil, NewError(KindFileBadHeader, ErrInvalidMagic)
	}
	for i, b := range MagicNumber {
		if magicVersion[i] != b {
			return nil, NewError(KindFileBadHeader, ErrInvalidMagic)
		}
	}

	versionField := xdr.ByteOrder.Uint32(magicVersion[4:8])
	version, tiled, longNames, deep, multiPart := ParseVersionField(versionField)
	if version < 1 || version > 2 {
		return nil, NewError(KindFileBadHeader, ErrUnsupportedVersion)
	}

	f := &File{
		r: r, size: size,
		version: version, tiled: tiled, longNames: longNames,
		deep: deep, multiPart: multiPart,
	}

	pos := int64(8)
	for {
		if multiPart && len(f.headers) > 0 {
			var term [1]byte
			if _, err := r.ReadAt(term[:], pos); err != nil {
				return nil, NewError(KindFileBadHeader, ErrInvalidHeader)
			}
			if term[0] == 0 {
				pos++
				break
			}
		}

		h, next, err := readHeaderAt(r, pos, size)
		if err != nil {
			return nil, NewErrorf(KindFileBadHeader, ErrInvalidHeader, "part %d: %v", len(f.headers), err)
		}
		f.headers = append(f.headers, h)
		pos = next

		if !multiPart {
			break
		}
	}
	if len(f.headers) == 0 {
		return nil, NewError(KindFileBadHeader, ErrInvalidHeader)
	}

	offsets := make([][]int64, len(f.headers))
	for i, h := range f.headers {
		n := h.ChunksInFile()
		table := make([]int64, n)
		for j := 0; j < n; j++ {
			var buf [8]byte
			if _, err := r.ReadAt(buf[:], pos); err != nil {
				return nil, NewErrorf(KindFileBadHeader, ErrOffsetTableCorrupt, "part %d chunk %d", i, j)
			}
			table[j] = int64(xdr.ByteOrder.Uint64(buf[:]))
			pos += 8
		}
		offsets[i] = table
	}
	f.offsets = offsets

	if offsetTableNeedsReconstruction(offsets) {
		f.reconstructOffsets(pos)
	}

	return f, nil
}

// offsetTableNeedsReconstruction reports whether any part's offset table
// carries an entry that is not a valid stream position: zero (the chunk was
// never written, e.g. the writer crashed before Close, or a later index in
// a random/decreasing-Y part) or negative.
func offsetTableNeedsReconstruction(offsets [][]int64) bool {
	for _, table := range offsets {
		for _, off := range table {
			if off <= 0 {
				return true
			}
		}
	}
	return false
}

// readHeaderAt reads and parses one header starting at start, growing its
// read buffer and retrying until ReadHeader succeeds or the file is
// exhausted. xdr.Reader works over an in-memory slice, not a stream, so the
// header's length must be discovered this way rather than read exactly.
func readHeaderAt(r io.ReaderAt, start, limit int64) (*Header, int64, error) {
	bufSize := int64(4096)
	for {
		avail := limit - start
		if avail <= 0 {
			return nil, 0, ErrInvalidHeader
		}
		sz := bufSize
		if sz > avail {
			sz = avail
		}

		buf := make([]byte, sz)
		n, err := r.ReadAt(buf, start)
		if err != nil && err != io.EOF {
			return nil, 0, err
		}
		buf = buf[:n]

		xr := xdr.NewReader(buf)
		h, herr := ReadHeader(xr)
		if herr == nil {
			return h, start + int64(xr.Pos()), nil
		}
		if sz >= avail {
			return nil, 0, herr
		}
		bufSize *= 2
	}
}

// reconstructOffsets rebuilds every part's offset table by walking the
// file's chunks sequentially from chunkDataStart, the position right after
// the offset tables, mirroring readLineOffsets in the original C++
// implementation. Each part's own chunks are assumed to appear in
// increasing chunk-index order — true of anything this package writes,
// and of any file using the usual interleaved (round-robin across parts)
// or sequential-per-part write order — but chunks from different parts
// may be interleaved arbitrarily; a leading part-number field (present
// whenever the file is multi-part) says which part's running counter to
// advance. This is not guaranteed for arbitrary third-party files with a
// random, non-monotonic chunk write order within a part.
func (f *File) reconstructOffsets(chunkDataStart int64) {
	next := make([]int, len(f.headers))
	pos := chunkDataStart

	for {
		entryPos := pos
		part := 0
		if f.multiPart {
			var pbuf [4]byte
			if _, err := f.r.ReadAt(pbuf[:], pos); err != nil {
				return
			}
			part = int(xdr.ByteOrder.Uint32(pbuf[:]))
			pos += 4
		}
		if part < 0 || part >= len(f.headers) {
			return
		}
		if next[part] >= len(f.offsets[part]) {
			// This part's table is already full, which should only happen
			// once every part's table is full (chunk count exhausted) or
			// the file's chunk stream is corrupt; either way there is
			// nothing more we can safely reconstruct.
			return
		}

		h := f.headers[part]
		leaderSize := int64(8)
		if h.IsTiled() {
			leaderSize = 20
		}

		var leader [20]byte
		if _, err := f.r.ReadAt(leader[:leaderSize], pos); err != nil {
			return
		}
		var size uint32
		if h.IsTiled() {
			size = xdr.ByteOrder.Uint32(leader[16:20])
		} else {
			size = xdr.ByteOrder.Uint32(leader[4:8])
		}

		f.offsets[part][next[part]] = entryPos
		next[part]++
		pos += leaderSize + int64(size)
	}
}

// Header returns the header for the given part index, or nil if out of
// range.
func (f *File) Header(part int) *Header {
	if f == nil || part < 0 || part >= len(f.headers) {
		return nil
	}
	return f.headers[part]
}

// NumParts returns the number of parts in the file.
func (f *File) NumParts() int {
	return len(f.headers)
}

// IsMultiPart reports whether the file carries the multi-part format flag.
func (f *File) IsMultiPart() bool {
	return f.multiPart
}

// IsDeep reports whether the file carries the deep-data format flag.
func (f *File) IsDeep() bool {
	return f.deep
}

// IsTiled reports whether the file's first part is tiled.
func (f *File) IsTiled() bool {
	if len(f.headers) == 0 {
		return false
	}
	return f.headers[0].IsTiled()
}

// OffsetsRef returns the chunk offset table for the given part, or nil if
// out of range. The returned slice is shared with the File and must not be
// modified.
func (f *File) OffsetsRef(part int) []int64 {
	if part < 0 || part >= len(f.offsets) {
		return nil
	}
	return f.offsets[part]
}

// ChunkTableValid reports whether the given part's chunk offset table
// consists entirely of valid stream positions, mirroring
// Context::chunkTableValid. An entry of zero or less means that chunk was
// never written (or was not recovered by OpenReader's best-effort
// reconstruction), so reading it would raise BAD_CHUNK_LEADER.
func (f *File) ChunkTableValid(part int) bool {
	if part < 0 || part >= len(f.offsets) {
		return false
	}
	for _, off := range f.offsets[part] {
		if off <= 0 {
			return false
		}
	}
	return true
}

// Close releases the underlying resource if the File owns one (opened via
// OpenFile or OpenFileMmap). It is a no-op for files opened with
// OpenReader directly.
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

func (f *File) chunkOffset(part, chunkIndex int) (int64, error) {
	offs := f.OffsetsRef(part)
	if chunkIndex < 0 || chunkIndex >= len(offs) {
		return 0, NewErrorf(KindIncorrectChunk, ErrOffsetTableCorrupt, "part %d chunk %d", part, chunkIndex)
	}
	pos := offs[chunkIndex]
	if pos <= 0 {
		return 0, NewErrorf(KindBadChunkLeader, ErrOffsetTableCorrupt, "part %d chunk %d: unwritten offset-table entry", part, chunkIndex)
	}
	if f.multiPart {
		var pbuf [4]byte
		if _, err := f.r.ReadAt(pbuf[:], pos); err != nil {
			return 0, err
		}
		pos += 4
	}
	return pos, nil
}

// ReadScanlineChunk reads the raw, still-compressed bytes of the scanline
// chunk at the given offset-table index, along with the first data-window
// row the chunk's leader records.
func (f *File) ReadScanlineChunk(part, chunkIndex int) (int32, []byte, error) {
	pos, err := f.chunkOffset(part, chunkIndex)
	if err != nil {
		return 0, nil, err
	}

	var leader [8]byte
	if _, err := f.r.ReadAt(leader[:], pos); err != nil {
		return 0, nil, err
	}
	y := int32(xdr.ByteOrder.Uint32(leader[0:4]))
	size := xdr.ByteOrder.Uint32(leader[4:8])
	pos += 8

	data := make([]byte, size)
	if size > 0 {
		if _, err := f.r.ReadAt(data, pos); err != nil {
			return 0, nil, err
		}
	}
	return y, data, nil
}

// ReadTileChunk reads the raw, still-compressed bytes of the tile chunk at
// the given offset-table index, along with its tile and level coordinate.
func (f *File) ReadTileChunk(part, chunkIndex int) (TileCoord, []byte, error) {
	pos, err := f.chunkOffset(part, chunkIndex)
	if err != nil {
		return TileCoord{}, nil, err
	}

	var leader [20]byte
	if _, err := f.r.ReadAt(leader[:], pos); err != nil {
		return TileCoord{}, nil, err
	}
	coord := TileCoord{
		X:  int(int32(xdr.ByteOrder.Uint32(leader[0:4]))),
		Y:  int(int32(xdr.ByteOrder.Uint32(leader[4:8]))),
		LX: int(int32(xdr.ByteOrder.Uint32(leader[8:12]))),
		LY: int(int32(xdr.ByteOrder.Uint32(leader[12:16]))),
	}
	size := xdr.ByteOrder.Uint32(leader[16:20])
	pos += 20

	data := make([]byte, size)
	if size > 0 {
		if _, err := f.r.ReadAt(data, pos); err != nil {
			return TileCoord{}, nil, err
		}
	}
	return coord, data, nil
}

// ReadDeepChunk reads a deep scanline chunk's leader and payload: the row
// number it covers, its packed sample-count table, and its packed pixel
// data. The wire layout here (three fixed-size fields, no separate
// unpacked-size field) matches this package's deep scanline writer.
func (f *File) ReadDeepChunk(part, chunkIndex int) (int32, []byte, []byte, error) {
	pos, err := f.chunkOffset(part, chunkIndex)
	if err != nil {
		return 0, nil, nil, err
	}

	var leader [20]byte
	if _, err := f.r.ReadAt(leader[:], pos); err != nil {
		return 0, nil, nil, err
	}
	y := int32(xdr.ByteOrder.Uint32(leader[0:4]))
	sampleCountSize := xdr.ByteOrder.Uint64(leader[4:12])
	pixelDataSize := xdr.ByteOrder.Uint64(leader[12:20])
	pos += 20

	sampleCountData := make([]byte, sampleCountSize)
	if sampleCountSize > 0 {
		if _, err := f.r.ReadAt(sampleCountData, pos); err != nil {
			return 0, nil, nil, err
		}
	}
	pos += int64(sampleCountSize)

	pixelData := make([]byte, pixelDataSize)
	if pixelDataSize > 0 {
		if _, err := f.r.ReadAt(pixelData, pos); err != nil {
			return 0, nil, nil, err
		}
	}
	return y, sampleCountData, pixelData, nil
}

// ReadDeepTileChunk reads a deep tile chunk's leader and payload: its tile
// coordinate, packed sample-count table, and packed pixel data.
func (f *File) ReadDeepTileChunk(part, chunkIndex int) (TileCoord, []byte, []byte, error) {
	pos, err := f.chunkOffset(part, chunkIndex)
	if err != nil {
		return TileCoord{}, nil, nil, err
	}

	var leader [32]byte
	if _, err := f.r.ReadAt(leader[:], pos); err != nil {
		return TileCoord{}, nil, nil, err
	}
	coord := TileCoord{
		X:  int(int32(xdr.ByteOrder.Uint32(leader[0:4]))),
		Y:  int(int32(xdr.ByteOrder.Uint32(leader[4:8]))),
		LX: int(int32(xdr.ByteOrder.Uint32(leader[8:12]))),
		LY: int(int32(xdr.ByteOrder.Uint32(leader[12:16]))),
	}
	sampleCountSize := xdr.ByteOrder.Uint64(leader[16:24])
	pixelDataSize := xdr.ByteOrder.Uint64(leader[24:32])
	pos += 32

	sampleCountData := make([]byte, sampleCountSize)
	if sampleCountSize > 0 {
		if _, err := f.r.ReadAt(sampleCountData, pos); err != nil {
			return TileCoord{}, nil, nil, err
		}
	}
	pos += int64(sampleCountSize)

	pixelData := make([]byte, pixelDataSize)
	if pixelDataSize > 0 {
		if _, err := f.r.ReadAt(pixelData, pos); err != nil {
			return TileCoord{}, nil, nil, err
		}
	}
	return coord, sampleCountData, pixelData, nil
}

// Writer is the low-level multi-part chunk writer: it writes the magic
// number, version field, every part's header, a placeholder offset table
// per part, and then accepts chunks in any order, recording each one's
// file position. Close flushes the real offset tables over their
// placeholders. ScanlineWriter and TiledWriter build single-part
// convenience APIs on top of it; MultiPartOutputFile uses it directly.
type Writer struct {
	mu        sync.Mutex
	w         io.WriteSeeker
	headers   []*Header
	multiPart bool

	offsetTablePos []int64
	offsets        [][]int64
	closed         bool
}

// NewMultiPartWriter writes the magic number, version field, every header
// in headers, and a placeholder chunk offset table per part, then returns
// a Writer ready to accept chunks via WriteChunkPart / WriteTileChunkPart.
func NewMultiPartWriter(w io.WriteSeeker, headers []*Header) (*Writer, error) {
	if w == nil {
		return nil, ErrInvalidFile
	}
	if len(headers) == 0 {
		return nil, ErrInvalidHeader
	}
	for _, h := range headers {
		if err := h.Validate(); err != nil {
			return nil, err
		}
	}

	multiPart := len(headers) > 1
	if multiPart {
		for i, h := range headers {
			if !h.Has(AttrNameName) {
				h.Set(&Attribute{Name: AttrNameName, Type: AttrTypeString, Value: fmt.Sprintf("part%d", i)})
			}
			if !h.Has(AttrNameType) {
				t := PartTypeScanline
				if h.IsTiled() {
					t = PartTypeTiled
				}
				h.Set(&Attribute{Name: AttrNameType, Type: AttrTypeString, Value: t})
			}
		}
	}

	tiledSinglePart := !multiPart && headers[0].IsTiled()

	if _, err := w.Write(MagicNumber); err != nil {
		return nil, err
	}
	var vbuf [4]byte
	xdr.ByteOrder.PutUint32(vbuf[:], MakeVersionField(2, tiledSinglePart, false, false, multiPart))
	if _, err := w.Write(vbuf[:]); err != nil {
		return nil, err
	}

	for _, h := range headers {
		hb := xdr.NewBufferWriter(1024)
		if err := WriteHeader(hb, h); err != nil {
			return nil, err
		}
		if _, err := w.Write(hb.Bytes()); err != nil {
			return nil, err
		}
	}
	if multiPart {
		if _, err := w.Write([]byte{0}); err != nil {
			return nil, err
		}
	}

	offsetTablePos := make([]int64, len(headers))
	offsets := make([][]int64, len(headers))
	for i, h := range headers {
		pos, err := w.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		offsetTablePos[i] = pos

		n := h.ChunksInFile()
		offsets[i] = make([]int64, n)
		if _, err := w.Write(make([]byte, n*8)); err != nil {
			return nil, err
		}
	}

	return &Writer{
		w: w, headers: headers, multiPart: multiPart,
		offsetTablePos: offsetTablePos, offsets: offsets,
	}, nil
}

// WriteChunkPart writes one scanline chunk for the given part at file row
// y, recording its position in that part's offset table.
func (w *Writer) WriteChunkPart(part int, y int32, compressed []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if part < 0 || part >= len(w.headers) {
		return ErrWrongPart
	}
	h := w.headers[part]
	chunkIndex := ScanlineChunkIndex(h, int(y))
	if chunkIndex < 0 || chunkIndex >= len(w.offsets[part]) {
		return NewErrorf(KindIncorrectChunk, ErrOffsetTableCorrupt, "part %d y %d", part, y)
	}

	pos, err := w.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	var leader [8]byte
	xdr.ByteOrder.PutUint32(leader[0:4], uint32(y))
	xdr.ByteOrder.PutUint32(leader[4:8], uint32(len(compressed)))

	if w.multiPart {
		var pbuf [4]byte
		xdr.ByteOrder.PutUint32(pbuf[:], uint32(part))
		if _, err := w.w.Write(pbuf[:]); err != nil {
			return err
		}
	}
	if _, err := w.w.Write(leader[:]); err != nil {
		return err
	}
	n, err := w.w.Write(compressed)
	if err != nil {
		return err
	}
	if n != len(compressed) {
		return ErrShortWrite
	}

	w.offsets[part][chunkIndex] = pos
	return nil
}

// WriteTileChunkPart writes one tile chunk for the given part, recording
// its position in that part's offset table.
func (w *Writer) WriteTileChunkPart(part, tileX, tileY, levelX, levelY int, compressed []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if part < 0 || part >= len(w.headers) {
		return ErrWrongPart
	}
	h := w.headers[part]
	chunkIndex := TileChunkIndex(h, tileX, tileY, levelX, levelY)
	if chunkIndex < 0 || chunkIndex >= len(w.offsets[part]) {
		return NewErrorf(KindIncorrectChunk, ErrOffsetTableCorrupt, "part %d tile (%d,%d) level (%d,%d)", part, tileX, tileY, levelX, levelY)
	}

	pos, err := w.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	var leader [20]byte
	xdr.ByteOrder.PutUint32(leader[0:4], uint32(tileX))
	xdr.ByteOrder.PutUint32(leader[4:8], uint32(tileY))
	xdr.ByteOrder.PutUint32(leader[8:12], uint32(levelX))
	xdr.ByteOrder.PutUint32(leader[12:16], uint32(levelY))
	xdr.ByteOrder.PutUint32(leader[16:20], uint32(len(compressed)))

	if w.multiPart {
		var pbuf [4]byte
		xdr.ByteOrder.PutUint32(pbuf[:], uint32(part))
		if _, err := w.w.Write(pbuf[:]); err != nil {
			return err
		}
	}
	if _, err := w.w.Write(leader[:]); err != nil {
		return err
	}
	n, err := w.w.Write(compressed)
	if err != nil {
		return err
	}
	if n != len(compressed) {
		return ErrShortWrite
	}

	w.offsets[part][chunkIndex] = pos
	return nil
}

// Close flushes the real chunk offset tables over their placeholders and
// restores the write position to end of file. It is safe to call more
// than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	endPos, err := w.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	for i, table := range w.offsets {
		if _, err := w.w.Seek(w.offsetTablePos[i], io.SeekStart); err != nil {
			return err
		}
		buf := make([]byte, len(table)*8)
		for j, off := range table {
			xdr.ByteOrder.PutUint64(buf[j*8:], uint64(off))
		}
		if _, err := w.w.Write(buf); err != nil {
			return err
		}
	}

	_, err = w.w.Seek(endPos, io.SeekStart)
	return err
}
