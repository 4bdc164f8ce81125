package exr

// Compressor abstracts one compression codec behind a uniform interface:
// scanlines-per-chunk, lossiness, and a compress/uncompress pair. It wraps
// the switch in compressChunkData/decompressChunkData (multipart.go,
// scanline.go) — that switch is the match-arm factory; NewCompressor is
// its static registry, one entry per Compression id.
type Compressor interface {
	Compression() Compression
	ScanlinesPerChunk() int
	IsLossy() bool
	SupportsDeep() bool
	Compress(uncompressed []byte, width, height int, cl *ChannelList) ([]byte, error)
	Uncompress(compressed []byte, width, height int, cl *ChannelList, expectedSize int) ([]byte, error)
}

type codecCompressor struct {
	c Compression
}

func (cc codecCompressor) Compression() Compression { return cc.c }
func (cc codecCompressor) ScanlinesPerChunk() int    { return cc.c.ScanlinesPerChunk() }
func (cc codecCompressor) IsLossy() bool             { return cc.c.IsLossy() }
func (cc codecCompressor) SupportsDeep() bool        { return IsDeepCompressionSupported(cc.c) }

func (cc codecCompressor) Compress(uncompressed []byte, width, height int, cl *ChannelList) ([]byte, error) {
	return compressChunkData(uncompressed, width, height, cl, cc.c)
}

func (cc codecCompressor) Uncompress(compressed []byte, width, height int, cl *ChannelList, expectedSize int) ([]byte, error) {
	return decompressChunkData(compressed, width, height, cl, cc.c, expectedSize)
}

// NewCompressor returns the Compressor for a compression id, or
// ErrUnsupportedCompression if c names no known codec.
func NewCompressor(c Compression) (Compressor, error) {
	switch c {
	case CompressionNone, CompressionRLE, CompressionZIPS, CompressionZIP,
		CompressionPIZ, CompressionPXR24, CompressionB44, CompressionB44A,
		CompressionDWAA, CompressionDWAB, CompressionHTJ2K256, CompressionHTJ2K32:
		return codecCompressor{c: c}, nil
	default:
		return nil, ErrUnsupportedCompression
	}
}

// CompressionByName looks up a compression id by its String() form (e.g.
// "piz", "b44a"), the reverse of Compression.String.
func CompressionByName(name string) (Compression, bool) {
	for c := CompressionNone; c <= CompressionHTJ2K32; c++ {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}
