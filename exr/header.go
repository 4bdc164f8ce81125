package exr

import (
	"fmt"
	"sort"

	"github.com/mrjoshuak/go-openexr/compression"
	"github.com/mrjoshuak/go-openexr/internal/xdr"
)

// DefaultDWACompressionLevel is the level DWACompressionLevel reports when
// a header does not specify one explicitly. The chunk writers compress
// DWAA/DWAB at this level whatever the header says.
const DefaultDWACompressionLevel float32 = 45.0

// Standard attribute names used by required header fields.
const (
	attrChannels            = "channels"
	attrCompression          = "compression"
	attrDataWindow           = "dataWindow"
	attrDisplayWindow        = "displayWindow"
	attrLineOrder            = "lineOrder"
	attrPixelAspectRatio     = "pixelAspectRatio"
	attrScreenWindowCenter   = "screenWindowCenter"
	attrScreenWindowWidth    = "screenWindowWidth"
	attrTiles                = "tiles"
	attrZIPLevel             = "zipCompressionLevel"
	attrDWACompressionLevel  = "dwaCompressionLevel"
)

// requiredAttrs lists the attributes every part's header must carry
// before it can be written or decoded.
var requiredAttrs = []string{
	attrCompression,
	attrDataWindow,
	attrDisplayWindow,
	attrLineOrder,
	attrPixelAspectRatio,
	attrScreenWindowCenter,
	attrScreenWindowWidth,
}

// Header holds the named attributes describing one image part: its
// channel layout, geometry, compression, and any custom metadata the
// caller attaches.
//
// Strict records a caller's request for strict header checking. No code
// in this package reads it: Validate, ReadHeader and the chunk readers
// behave the same whether it is set or not.
type Header struct {
	attrs map[string]*Attribute

	Strict bool

	detectedFLevel    compression.FLevel
	hasDetectedFLevel bool
}

// NewHeader returns an empty header with no attributes set.
func NewHeader() *Header {
	return &Header{attrs: make(map[string]*Attribute)}
}

// NewScanlineHeader returns a header for a scanline image of the given
// size, with RGB half channels, ZIP compression, and the usual geometry
// defaults.
func NewScanlineHeader(width, height int) *Header {
	h := NewHeader()

	cl := NewChannelList()
	cl.Add(NewChannel("R", PixelTypeHalf))
	cl.Add(NewChannel("G", PixelTypeHalf))
	cl.Add(NewChannel("B", PixelTypeHalf))
	h.SetChannels(cl)

	h.SetCompression(CompressionZIP)
	h.SetDataWindow(Box2i{Min: V2i{0, 0}, Max: V2i{int32(width - 1), int32(height - 1)}})
	h.SetDisplayWindow(Box2i{Min: V2i{0, 0}, Max: V2i{int32(width - 1), int32(height - 1)}})
	h.SetLineOrder(LineOrderIncreasing)
	h.SetPixelAspectRatio(1.0)
	h.SetScreenWindowCenter(V2f{0, 0})
	h.SetScreenWindowWidth(1.0)

	return h
}

// NewTiledHeader returns a header for a single-level tiled image of the
// given image and tile size.
func NewTiledHeader(width, height, tileWidth, tileHeight int) *Header {
	h := NewScanlineHeader(width, height)
	h.SetTileDescription(TileDescription{
		XSize:        uint32(tileWidth),
		YSize:        uint32(tileHeight),
		Mode:         LevelModeOne,
		RoundingMode: LevelRoundDown,
	})
	return h
}

// Set stores an attribute, replacing any existing attribute of the same
// name.
func (h *Header) Set(attr *Attribute) {
	h.attrs[attr.Name] = attr
}

// Get returns the attribute with the given name, or nil if absent.
func (h *Header) Get(name string) *Attribute {
	return h.attrs[name]
}

// Has reports whether an attribute with the given name is present.
func (h *Header) Has(name string) bool {
	_, ok := h.attrs[name]
	return ok
}

// Remove deletes the attribute with the given name, if present.
func (h *Header) Remove(name string) {
	delete(h.attrs, name)
}

// Attributes returns a copy of every attribute currently set, in no
// particular order.
func (h *Header) Attributes() []Attribute {
	out := make([]Attribute, 0, len(h.attrs))
	for _, a := range h.attrs {
		out = append(out, *a)
	}
	return out
}

// Channels returns the part's channel list, or nil if none is set.
func (h *Header) Channels() *ChannelList {
	a := h.Get(attrChannels)
	if a == nil {
		return nil
	}
	cl, _ := a.Value.(*ChannelList)
	return cl
}

// SetChannels sets the part's channel list.
func (h *Header) SetChannels(cl *ChannelList) {
	h.Set(&Attribute{Name: attrChannels, Type: AttrTypeChlist, Value: cl})
}

// Compression returns the part's compression method, defaulting to
// CompressionNone if unset.
func (h *Header) Compression() Compression {
	a := h.Get(attrCompression)
	if a == nil {
		return CompressionNone
	}
	c, _ := a.Value.(Compression)
	return c
}

// SetCompression sets the part's compression method.
func (h *Header) SetCompression(c Compression) {
	h.Set(&Attribute{Name: attrCompression, Type: AttrTypeCompression, Value: c})
}

// DataWindow returns the part's data window, or the zero Box2i if unset.
func (h *Header) DataWindow() Box2i {
	a := h.Get(attrDataWindow)
	if a == nil {
		return Box2i{}
	}
	b, _ := a.Value.(Box2i)
	return b
}

// SetDataWindow sets the part's data window.
func (h *Header) SetDataWindow(b Box2i) {
	h.Set(&Attribute{Name: attrDataWindow, Type: AttrTypeBox2i, Value: b})
}

// DisplayWindow returns the part's display window, or the zero Box2i if
// unset.
func (h *Header) DisplayWindow() Box2i {
	a := h.Get(attrDisplayWindow)
	if a == nil {
		return Box2i{}
	}
	b, _ := a.Value.(Box2i)
	return b
}

// SetDisplayWindow sets the part's display window.
func (h *Header) SetDisplayWindow(b Box2i) {
	h.Set(&Attribute{Name: attrDisplayWindow, Type: AttrTypeBox2i, Value: b})
}

// LineOrder returns the part's scanline order, defaulting to
// LineOrderIncreasing if unset.
func (h *Header) LineOrder() LineOrder {
	a := h.Get(attrLineOrder)
	if a == nil {
		return LineOrderIncreasing
	}
	lo, _ := a.Value.(LineOrder)
	return lo
}

// SetLineOrder sets the part's scanline order.
func (h *Header) SetLineOrder(lo LineOrder) {
	h.Set(&Attribute{Name: attrLineOrder, Type: AttrTypeLineOrder, Value: lo})
}

// PixelAspectRatio returns the part's pixel aspect ratio, defaulting to
// 1.0 if unset.
func (h *Header) PixelAspectRatio() float32 {
	a := h.Get(attrPixelAspectRatio)
	if a == nil {
		return 1.0
	}
	v, _ := a.Value.(float32)
	return v
}

// SetPixelAspectRatio sets the part's pixel aspect ratio.
func (h *Header) SetPixelAspectRatio(v float32) {
	h.Set(&Attribute{Name: attrPixelAspectRatio, Type: AttrTypeFloat, Value: v})
}

// ScreenWindowCenter returns the part's screen window center, defaulting
// to the origin if unset.
func (h *Header) ScreenWindowCenter() V2f {
	a := h.Get(attrScreenWindowCenter)
	if a == nil {
		return V2f{}
	}
	v, _ := a.Value.(V2f)
	return v
}

// SetScreenWindowCenter sets the part's screen window center.
func (h *Header) SetScreenWindowCenter(v V2f) {
	h.Set(&Attribute{Name: attrScreenWindowCenter, Type: AttrTypeV2f, Value: v})
}

// ScreenWindowWidth returns the part's screen window width, defaulting
// to 1.0 if unset.
func (h *Header) ScreenWindowWidth() float32 {
	a := h.Get(attrScreenWindowWidth)
	if a == nil {
		return 1.0
	}
	v, _ := a.Value.(float32)
	return v
}

// SetScreenWindowWidth sets the part's screen window width.
func (h *Header) SetScreenWindowWidth(v float32) {
	h.Set(&Attribute{Name: attrScreenWindowWidth, Type: AttrTypeFloat, Value: v})
}

// TileDescription returns the part's tile description, or nil if the
// part is not tiled.
func (h *Header) TileDescription() *TileDescription {
	a := h.Get(attrTiles)
	if a == nil {
		return nil
	}
	td, _ := a.Value.(TileDescription)
	return &td
}

// SetTileDescription marks the part as tiled with the given tile layout.
func (h *Header) SetTileDescription(td TileDescription) {
	h.Set(&Attribute{Name: attrTiles, Type: AttrTypeTileDesc, Value: td})
}

// IsTiled reports whether the part carries a tile description.
func (h *Header) IsTiled() bool {
	return h.Has(attrTiles)
}

// Width returns the data window's pixel width.
func (h *Header) Width() int {
	return int(h.DataWindow().Width())
}

// Height returns the data window's pixel height.
func (h *Header) Height() int {
	return int(h.DataWindow().Height())
}

// ZIPLevel returns the zlib compression level stored in the header,
// defaulting to the library's default level if unset. The deep writers
// compress ZIP/ZIPS chunks at this level; the scanline, tiled and
// multi-part writers always use the default level.
func (h *Header) ZIPLevel() compression.CompressionLevel {
	a := h.Get(attrZIPLevel)
	if a == nil {
		return compression.CompressionLevelDefault
	}
	v, _ := a.Value.(int32)
	return compression.CompressionLevel(v)
}

// SetZIPLevel sets the zlib compression level used for ZIP/ZIPS chunks.
func (h *Header) SetZIPLevel(level compression.CompressionLevel) {
	h.Set(&Attribute{Name: attrZIPLevel, Type: AttrTypeInt, Value: int32(level)})
}

// DetectedFLevel returns the zlib FLEVEL recorded for this part with
// setDetectedFLevel, if any. None of the readers in this package record
// one, so for a header read from a file it reports false.
func (h *Header) DetectedFLevel() (compression.FLevel, bool) {
	return h.detectedFLevel, h.hasDetectedFLevel
}

// setDetectedFLevel records the zlib FLEVEL observed for this part.
func (h *Header) setDetectedFLevel(fl compression.FLevel) {
	h.detectedFLevel = fl
	h.hasDetectedFLevel = true
}

// DWACompressionLevel returns the DWAA/DWAB quantization level,
// defaulting to DefaultDWACompressionLevel if unset.
func (h *Header) DWACompressionLevel() float32 {
	a := h.Get(attrDWACompressionLevel)
	if a == nil {
		return DefaultDWACompressionLevel
	}
	v, _ := a.Value.(float32)
	return v
}

// SetDWACompressionLevel sets the DWAA/DWAB quantization level.
func (h *Header) SetDWACompressionLevel(level float32) {
	h.Set(&Attribute{Name: attrDWACompressionLevel, Type: AttrTypeFloat, Value: level})
}

// CompressionOptions bundles the tunable parameters of the part's
// compression method.
type CompressionOptions struct {
	ZIPLevel compression.CompressionLevel
}

// CompressionOptions returns the part's current compression tuning.
func (h *Header) CompressionOptions() CompressionOptions {
	return CompressionOptions{ZIPLevel: h.ZIPLevel()}
}

// SetCompressionOptions applies compression tuning to the part.
func (h *Header) SetCompressionOptions(opts CompressionOptions) {
	h.SetZIPLevel(opts.ZIPLevel)
}

// Validate reports whether the header carries every attribute required
// to encode or decode this part, and that their values are sane.
func (h *Header) Validate() error {
	cl := h.Channels()
	if cl == nil || cl.Len() == 0 {
		return fmt.Errorf("exr: header missing required attribute %q", attrChannels)
	}

	for _, name := range requiredAttrs {
		if !h.Has(name) {
			return fmt.Errorf("exr: header missing required attribute %q", name)
		}
	}

	if h.DataWindow().IsEmpty() {
		return fmt.Errorf("exr: data window is empty")
	}

	return nil
}

// numLevels returns the number of resolution levels for a dimension of
// the given size, following the given rounding mode. Matches the level
// count used throughout mipmap/ripmap tile addressing.
func numLevels(size int, rounding LevelRoundingMode) int {
	if size <= 0 {
		return 0
	}
	levels := 1
	w := size
	for w > 1 {
		if rounding == LevelRoundUp {
			w = (w + 1) / 2
		} else {
			w = w / 2
		}
		levels++
	}
	return levels
}

// NumXLevels returns the number of horizontal resolution levels.
func (h *Header) NumXLevels() int {
	td := h.TileDescription()
	if td == nil {
		return 1
	}
	switch td.Mode {
	case LevelModeOne:
		return 1
	case LevelModeMipmap:
		return numLevels(maxInt(h.Width(), h.Height()), td.RoundingMode)
	case LevelModeRipmap:
		return numLevels(h.Width(), td.RoundingMode)
	default:
		return 1
	}
}

// NumYLevels returns the number of vertical resolution levels.
func (h *Header) NumYLevels() int {
	td := h.TileDescription()
	if td == nil {
		return 1
	}
	switch td.Mode {
	case LevelModeOne:
		return 1
	case LevelModeMipmap:
		return numLevels(maxInt(h.Width(), h.Height()), td.RoundingMode)
	case LevelModeRipmap:
		return numLevels(h.Height(), td.RoundingMode)
	default:
		return 1
	}
}

// LevelWidth returns the pixel width of resolution level x. A negative
// level returns the full width; a level beyond the image's levels
// returns the minimum size of 1.
func (h *Header) LevelWidth(level int) int {
	if level < 0 {
		return h.Width()
	}
	rounding := LevelRoundDown
	if td := h.TileDescription(); td != nil {
		rounding = td.RoundingMode
	}
	w := h.Width()
	for l := 0; l < level; l++ {
		if w <= 1 {
			break
		}
		if rounding == LevelRoundUp {
			w = (w + 1) / 2
		} else {
			w = w / 2
		}
	}
	if w < 1 {
		w = 1
	}
	return w
}

// LevelHeight returns the pixel height of resolution level y. A negative
// level returns the full height; a level beyond the image's levels
// returns the minimum size of 1.
func (h *Header) LevelHeight(level int) int {
	if level < 0 {
		return h.Height()
	}
	rounding := LevelRoundDown
	if td := h.TileDescription(); td != nil {
		rounding = td.RoundingMode
	}
	ht := h.Height()
	for l := 0; l < level; l++ {
		if ht <= 1 {
			break
		}
		if rounding == LevelRoundUp {
			ht = (ht + 1) / 2
		} else {
			ht = ht / 2
		}
	}
	if ht < 1 {
		ht = 1
	}
	return ht
}

// NumXTiles returns the number of tile columns at the given horizontal
// resolution level, or 0 if the part is not tiled.
func (h *Header) NumXTiles(level int) int {
	td := h.TileDescription()
	if td == nil {
		return 0
	}
	w := h.LevelWidth(level)
	return (w + int(td.XSize) - 1) / int(td.XSize)
}

// NumYTiles returns the number of tile rows at the given vertical
// resolution level, or 0 if the part is not tiled.
func (h *Header) NumYTiles(level int) int {
	td := h.TileDescription()
	if td == nil {
		return 0
	}
	ht := h.LevelHeight(level)
	return (ht + int(td.YSize) - 1) / int(td.YSize)
}

// ChunksInFile returns the total number of chunks (scanline blocks or
// tiles, across all resolution levels) this part will be encoded as.
func (h *Header) ChunksInFile() int {
	if !h.IsTiled() {
		spc := h.Compression().ScanlinesPerChunk()
		return (h.Height() + spc - 1) / spc
	}

	td := h.TileDescription()
	switch td.Mode {
	case LevelModeMipmap:
		total := 0
		n := h.NumXLevels()
		for l := 0; l < n; l++ {
			total += h.NumXTiles(l) * h.NumYTiles(l)
		}
		return total
	case LevelModeRipmap:
		total := 0
		nx := h.NumXLevels()
		ny := h.NumYLevels()
		for lx := 0; lx < nx; lx++ {
			for ly := 0; ly < ny; ly++ {
				total += h.NumXTiles(lx) * h.NumYTiles(ly)
			}
		}
		return total
	default: // LevelModeOne and anything unrecognized
		return h.NumXTiles(0) * h.NumYTiles(0)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// WriteHeader writes a header's attributes to w, sorted by name for
// determinism, terminated by the standard empty-name marker.
func WriteHeader(w *xdr.BufferWriter, h *Header) error {
	attrs := h.Attributes()
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })
	for i := range attrs {
		if err := WriteAttribute(w, &attrs[i]); err != nil {
			return err
		}
	}
	w.WriteByte(0)
	return nil
}

// ReadHeader reads a header's attributes from r until the empty-name
// terminator.
func ReadHeader(r *xdr.Reader) (*Header, error) {
	h := NewHeader()
	for {
		attr, err := ReadAttribute(r)
		if err != nil {
			return nil, err
		}
		if attr == nil {
			return h, nil
		}
		h.Set(attr)
	}
}
