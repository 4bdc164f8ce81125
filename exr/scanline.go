package exr

import (
	"io"
	"math"

	"github.com/mrjoshuak/go-openexr/compression"
	"github.com/mrjoshuak/go-openexr/half"
	"github.com/mrjoshuak/go-openexr/internal/predictor"
)

// ScanlineWriter writes a single-part, non-deep scanline image. It wraps
// the generic Writer as a single-part (part 0) convenience API, the same
// role MultiPartOutputFile plays for several parts at once.
type ScanlineWriter struct {
	writer *Writer
	header *Header
	fb     *FrameBuffer
}

// NewScanlineWriter starts writing a scanline image described by h. h must
// not be tiled; use NewTiledWriter for tiled parts.
func NewScanlineWriter(w io.WriteSeeker, h *Header) (*ScanlineWriter, error) {
	if h == nil {
		return nil, ErrInvalidHeader
	}
	if h.IsTiled() {
		return nil, ErrNotTiled
	}

	writer, err := NewMultiPartWriter(w, []*Header{h})
	if err != nil {
		return nil, err
	}
	return &ScanlineWriter{writer: writer, header: h}, nil
}

// Header returns the part's header.
func (sw *ScanlineWriter) Header() *Header {
	return sw.header
}

// SetFrameBuffer sets the frame buffer WritePixels reads channel data from.
func (sw *ScanlineWriter) SetFrameBuffer(fb *FrameBuffer) {
	sw.fb = fb
}

// WritePixels compresses and writes every chunk covering rows y1 through
// y2 inclusive, both within the header's data window.
func (sw *ScanlineWriter) WritePixels(y1, y2 int) error {
	if sw.fb == nil {
		return ErrNoFrameBuffer
	}

	dw := sw.header.DataWindow()
	if y1 > y2 || y1 < int(dw.Min.Y) || y2 > int(dw.Max.Y) {
		return ErrScanlineOutOfRange
	}

	width := int(dw.Width())
	comp := sw.header.Compression()
	linesPerChunk := comp.ScanlinesPerChunk()
	cl := sw.header.Channels()
	if cl == nil {
		return ErrInvalidHeader
	}

	chunkStart := ScanlineChunkStartY(sw.header, ScanlineChunkIndex(sw.header, y1))
	for y := chunkStart; y <= y2; y += linesPerChunk {
		numLines := ScanlineChunkLineCount(sw.header, ScanlineChunkIndex(sw.header, y))
		if y+numLines-1 > int(dw.Max.Y) {
			numLines = int(dw.Max.Y) - y + 1
		}

		uncompressed := buildScanlineData(sw.fb, cl, width, y, numLines)
		compressed, err := compressChunkData(uncompressed, width, numLines, cl, comp)
		if err != nil {
			return err
		}
		if err := sw.writer.WriteChunkPart(0, int32(y), compressed); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes the part's offset table.
func (sw *ScanlineWriter) Close() error {
	return sw.writer.Close()
}

// ScanlineReader reads a single part's scanline chunks into a caller-set
// frame buffer.
type ScanlineReader struct {
	file *File
	part int
	fb   *FrameBuffer
}

// NewScanlineReader returns a reader for part 0 of f.
func NewScanlineReader(f *File) (*ScanlineReader, error) {
	return NewScanlineReaderPart(f, 0)
}

// NewScanlineReaderPart returns a reader for the given part of f.
func NewScanlineReaderPart(f *File, part int) (*ScanlineReader, error) {
	if f == nil {
		return nil, ErrInvalidFile
	}
	if part < 0 || part >= f.NumParts() {
		return nil, ErrWrongPart
	}
	return &ScanlineReader{file: f, part: part}, nil
}

// Header returns the part's header.
func (sr *ScanlineReader) Header() *Header {
	return sr.file.Header(sr.part)
}

// DataWindow returns the part's data window.
func (sr *ScanlineReader) DataWindow() Box2i {
	return sr.Header().DataWindow()
}

// SetFrameBuffer sets the frame buffer ReadPixels writes channel data into.
func (sr *ScanlineReader) SetFrameBuffer(fb *FrameBuffer) {
	sr.fb = fb
}

// ReadPixels reads and decompresses every chunk covering rows y1 through
// y2 inclusive, unpacking them into the frame buffer set by
// SetFrameBuffer.
func (sr *ScanlineReader) ReadPixels(y1, y2 int) error {
	if sr.fb == nil {
		return ErrNoFrameBuffer
	}

	h := sr.Header()
	dw := h.DataWindow()
	if y1 > y2 || y1 < int(dw.Min.Y) || y2 > int(dw.Max.Y) {
		return ErrScanlineOutOfRange
	}

	width := int(dw.Width())
	comp := h.Compression()
	cl := h.Channels()
	if cl == nil {
		return ErrInvalidHeader
	}

	startIdx := ScanlineChunkIndex(h, y1)
	endIdx := ScanlineChunkIndex(h, y2)
	for idx := startIdx; idx <= endIdx; idx++ {
		chunkY, compressed, err := sr.file.ReadScanlineChunk(sr.part, idx)
		if err != nil {
			return err
		}
		numLines := ScanlineChunkLineCount(h, idx)

		uncompressed, err := decompressChunkData(compressed, width, numLines, cl, comp, width*numLines*cl.BytesPerPixel())
		if err != nil {
			return err
		}
		unpackScanlineData(sr.fb, cl, width, int(chunkY), numLines, uncompressed)
	}
	return nil
}

// compressChunkData is defined in multipart.go and shared by both the
// single-part and multi-part write paths.

// decompressChunkData is the decode-side counterpart to
// compressChunkData, dispatching to the same per-codec package as the
// encoder. expectedSize is the uncompressed chunk's byte length.
func decompressChunkData(data []byte, width, height int, cl *ChannelList, comp Compression, expectedSize int) ([]byte, error) {
	switch comp {
	case CompressionNone:
		return data, nil

	case CompressionRLE:
		decoded, err := compression.RLEDecompress(data, expectedSize)
		if err != nil {
			return nil, err
		}
		predictor.DecodeSIMD(decoded)
		return decoded, nil

	case CompressionZIPS, CompressionZIP:
		decompressed, err := compression.ZIPDecompress(data, expectedSize)
		if err != nil {
			return nil, err
		}
		var deinterleaved []byte
		if len(decompressed) >= 32 {
			deinterleaved = compression.DeinterleaveFast(decompressed)
		} else {
			deinterleaved = compression.Deinterleave(decompressed)
		}
		predictor.DecodeSIMD(deinterleaved)
		return deinterleaved, nil

	case CompressionPIZ:
		uint16Data, err := compression.PIZDecompress(data, width, height, cl.Len())
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(uint16Data)*2)
		for i, v := range uint16Data {
			out[i*2] = byte(v)
			out[i*2+1] = byte(v >> 8)
		}
		return out, nil

	case CompressionPXR24:
		sortedChannels := cl.SortedByName()
		channels := make([]compression.ChannelInfo, len(sortedChannels))
		for i, ch := range sortedChannels {
			chWidth := (width + int(ch.XSampling) - 1) / int(ch.XSampling)
			channels[i] = compression.ChannelInfo{Type: pxrTypeFor(ch.Type), Width: chWidth, Height: height}
		}
		return compression.PXR24Decompress(data, channels, width, height, expectedSize)

	case CompressionB44, CompressionB44A:
		sortedChannels := cl.SortedByName()
		channels := make([]compression.B44ChannelInfo, len(sortedChannels))
		for i, ch := range sortedChannels {
			chWidth := (width + int(ch.XSampling) - 1) / int(ch.XSampling)
			channels[i] = compression.B44ChannelInfo{Type: pxrTypeFor(ch.Type), Width: chWidth, Height: height}
		}
		return compression.B44Decompress(data, channels, width, height, expectedSize)

	case CompressionDWAA:
		out := make([]byte, expectedSize)
		if err := compression.DecompressDWAA(data, out, width, height); err != nil {
			return nil, err
		}
		return out, nil

	case CompressionDWAB:
		out := make([]byte, expectedSize)
		if err := compression.DecompressDWAB(data, out, width, height); err != nil {
			return nil, err
		}
		return out, nil

	case CompressionHTJ2K256, CompressionHTJ2K32:
		channels := htj2kChannelInfo(cl, width, height)
		interleaved, err := compression.HTJ2KDecompress(data, expectedSize, channels)
		if err != nil {
			return nil, err
		}
		return htj2kFromPixelInterleaved(interleaved, width, height, channels), nil

	default:
		return data, nil
	}
}

func pxrTypeFor(t PixelType) int {
	switch t {
	case PixelTypeUint:
		return 0
	case PixelTypeHalf:
		return 1
	case PixelTypeFloat:
		return 2
	default:
		return 0
	}
}

// unpackScanlineData is the decode-side counterpart to buildScanlineData:
// it scatters a chunk's packed, per-channel, per-row bytes into the frame
// buffer's slices.
func unpackScanlineData(fb *FrameBuffer, cl *ChannelList, width, startY, numLines int, data []byte) {
	sortedChannels := cl.SortedByName()

	offset := 0
	for y := startY; y < startY+numLines; y++ {
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
					slice.SetHalf(x, y, half.FromBits(bits))
					offset += 2
				case PixelTypeFloat:
					bits := uint32(data[offset]) | uint32(data[offset+1])<<8 | uint32(data[offset+2])<<16 | uint32(data[offset+3])<<24
					slice.SetFloat32(x, y, math.Float32frombits(bits))
					offset += 4
				case PixelTypeUint:
					v := uint32(data[offset]) | uint32(data[offset+1])<<8 | uint32(data[offset+2])<<16 | uint32(data[offset+3])<<24
					slice.SetUint32(x, y, v)
					offset += 4
				}
			}
		}
	}
}
