package compression

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// PIZ combines a Haar wavelet decorrelation pass (see wavelet.go) with
// canonical Huffman entropy coding (see huffman.go). The wavelet stage
// operates over the chunk's samples reshaped as a width*numChannels by
// height grid, matching the channel-per-row packing buildScanlineData and
// buildTileData produce; the Huffman stage then flattens the whole
// transformed buffer into one bitstream.
//
// The on-disk layout here is self-consistent rather than a byte-for-byte
// match of the reference C++ PIZ bitstream (which instead carries a
// non-zero-value bitmap plus a min/max index to compact the code-length
// table); a sparse list of (symbol, length) pairs serves the same purpose
// and round-trips identically.

var errPIZHeaderMismatch = errors.New("compression: piz header mismatch")

// PIZCompress wavelet-decorrelates and Huffman-encodes data, a flattened
// width*height*numChannels grid of samples.
func PIZCompress(data []uint16, width, height, numChannels int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	work := make([]uint16, len(data))
	copy(work, data)
	WaveletEncode(work, width*numChannels, height)

	freqs := make([]uint64, 65536)
	for _, v := range work {
		freqs[v]++
	}
	enc := NewHuffmanEncoder(freqs)
	encoded := enc.Encode(work)
	lengths := enc.GetLengths()

	var buf bytes.Buffer
	writeUint32(&buf, uint32(width))
	writeUint32(&buf, uint32(height))
	writeUint32(&buf, uint32(numChannels))
	writeUint32(&buf, uint32(len(work)))

	nonZero := 0
	for _, l := range lengths {
		if l > 0 {
			nonZero++
		}
	}
	writeUint32(&buf, uint32(nonZero))
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		var symBytes [2]byte
		binary.LittleEndian.PutUint16(symBytes[:], uint16(sym))
		buf.Write(symBytes[:])
		buf.WriteByte(byte(l))
	}

	writeUint32(&buf, uint32(len(encoded)))
	buf.Write(encoded)

	return buf.Bytes(), nil
}

// PIZDecompress reverses PIZCompress, returning the flattened
// width*height*numChannels grid of samples.
func PIZDecompress(data []byte, width, height, numChannels int) ([]uint16, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r := bytes.NewReader(data)
	hw, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	hh, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	hc, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if int(hw) != width || int(hh) != height || int(hc) != numChannels {
		return nil, errPIZHeaderMismatch
	}

	numValues, err := readUint32(r)
	if err != nil {
		return nil, err
	}

	nonZero, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	lengths := make([]int, 65536)
	for i := uint32(0); i < nonZero; i++ {
		var symBytes [2]byte
		if _, err := r.Read(symBytes[:]); err != nil {
			return nil, err
		}
		l, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		lengths[binary.LittleEndian.Uint16(symBytes[:])] = int(l)
	}

	encodedLen, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	encoded := make([]byte, encodedLen)
	if encodedLen > 0 {
		if _, err := r.Read(encoded); err != nil {
			return nil, err
		}
	}

	dec := NewHuffmanDecoder(lengths)
	work, err := dec.Decode(encoded, int(numValues))
	if err != nil {
		return nil, err
	}

	WaveletDecode(work, width*numChannels, height)
	return work, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
