package exr

import (
	"sort"
	"strings"

	"github.com/mrjoshuak/go-openexr/internal/xdr"
)

// PixelType is the storage type of a channel's samples.
type PixelType int32

const (
	PixelTypeUint PixelType = iota
	PixelTypeHalf
	PixelTypeFloat
)

// String returns the name OpenEXR uses for this pixel type.
func (t PixelType) String() string {
	switch t {
	case PixelTypeUint:
		return "uint"
	case PixelTypeHalf:
		return "half"
	case PixelTypeFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Size returns the number of bytes a single sample of this type occupies
// in its native (non-packed) representation. Unknown types report 0.
func (t PixelType) Size() int {
	switch t {
	case PixelTypeUint:
		return 4
	case PixelTypeHalf:
		return 2
	case PixelTypeFloat:
		return 4
	default:
		return 0
	}
}

// Channel describes one named image plane: its storage type, its
// sub-sampling relative to the part's data window, and whether it carries
// perceptually linear (radiance-like) values.
type Channel struct {
	Name      string
	Type      PixelType
	XSampling int
	YSampling int
	PLinear   bool
}

// NewChannel returns a Channel with the common defaults: 1x1 sampling,
// not perceptually linear.
func NewChannel(name string, t PixelType) Channel {
	return Channel{Name: name, Type: t, XSampling: 1, YSampling: 1}
}

// Layer returns the dot-separated prefix of the channel name, or "" if the
// channel has no layer (e.g. "diffuse.R" -> "diffuse", "R" -> "").
func (c Channel) Layer() string {
	if idx := strings.LastIndex(c.Name, "."); idx >= 0 {
		return c.Name[:idx]
	}
	return ""
}

// BaseName returns the channel name with its layer prefix removed
// (e.g. "diffuse.R" -> "R", "R" -> "R").
func (c Channel) BaseName() string {
	if idx := strings.LastIndex(c.Name, "."); idx >= 0 {
		return c.Name[idx+1:]
	}
	return c.Name
}

// ChannelList is an ordered set of Channels, unique by name. Callers are
// expected to keep it sorted lexicographically (SortByName) before it is
// written to disk; the wire format requires that order.
type ChannelList struct {
	channels []Channel
}

// NewChannelList returns an empty channel list.
func NewChannelList() *ChannelList {
	return &ChannelList{}
}

// Len returns the number of channels.
func (cl *ChannelList) Len() int {
	return len(cl.channels)
}

// Add inserts a channel. Returns false without modifying the list if a
// channel with the same name already exists.
func (cl *ChannelList) Add(ch Channel) bool {
	for _, existing := range cl.channels {
		if existing.Name == ch.Name {
			return false
		}
	}
	cl.channels = append(cl.channels, ch)
	return true
}

// Get returns the channel with the given name, or nil if absent.
func (cl *ChannelList) Get(name string) *Channel {
	for i := range cl.channels {
		if cl.channels[i].Name == name {
			return &cl.channels[i]
		}
	}
	return nil
}

// At returns the channel at index i.
func (cl *ChannelList) At(i int) Channel {
	return cl.channels[i]
}

// Names returns the names of all channels, in current list order.
func (cl *ChannelList) Names() []string {
	names := make([]string, len(cl.channels))
	for i, ch := range cl.channels {
		names[i] = ch.Name
	}
	return names
}

// Channels returns a defensive copy of the channel slice.
func (cl *ChannelList) Channels() []Channel {
	out := make([]Channel, len(cl.channels))
	copy(out, cl.channels)
	return out
}

// HasRGB reports whether R, G, and B channels are all present.
func (cl *ChannelList) HasRGB() bool {
	return cl.Get("R") != nil && cl.Get("G") != nil && cl.Get("B") != nil
}

// HasAlpha reports whether an A channel is present.
func (cl *ChannelList) HasAlpha() bool {
	return cl.Get("A") != nil
}

// HasRGBA reports whether R, G, B, and A channels are all present.
func (cl *ChannelList) HasRGBA() bool {
	return cl.HasRGB() && cl.HasAlpha()
}

// Layers returns the distinct non-empty layer prefixes present in the list.
func (cl *ChannelList) Layers() []string {
	seen := make(map[string]bool)
	var layers []string
	for _, ch := range cl.channels {
		l := ch.Layer()
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		layers = append(layers, l)
	}
	sort.Strings(layers)
	return layers
}

// ChannelsInLayer returns the channels whose Layer() equals the given layer
// name ("" selects root-level channels with no dot prefix).
func (cl *ChannelList) ChannelsInLayer(layer string) []Channel {
	var out []Channel
	for _, ch := range cl.channels {
		if ch.Layer() == layer {
			out = append(out, ch)
		}
	}
	return out
}

// SortByName sorts the list lexicographically by channel name. The wire
// format requires this order; it must hold after every mutation that is
// about to be serialized.
func (cl *ChannelList) SortByName() {
	sort.Slice(cl.channels, func(i, j int) bool {
		return cl.channels[i].Name < cl.channels[j].Name
	})
}

// SortedByName returns a sorted copy without mutating the receiver.
func (cl *ChannelList) SortedByName() []Channel {
	out := cl.Channels()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// SortForCompression sorts the list by type, then by name. Several codecs
// (PIZ, PXR24, B44) split data into per-type planes and expect channels
// grouped this way so runs of identical types compress better.
func (cl *ChannelList) SortForCompression() {
	sort.Slice(cl.channels, func(i, j int) bool {
		if cl.channels[i].Type != cl.channels[j].Type {
			return cl.channels[i].Type < cl.channels[j].Type
		}
		return cl.channels[i].Name < cl.channels[j].Name
	})
}

// BytesPerPixel returns the sum, over all channels, of one sample's byte
// size (ignoring sub-sampling). Used for unsubsampled geometry math.
func (cl *ChannelList) BytesPerPixel() int {
	total := 0
	for _, ch := range cl.channels {
		total += ch.Type.Size()
	}
	return total
}

// BytesPerScanline returns the packed byte size of one scanline of the
// given pixel width, accounting for each channel's sub-sampling.
func (cl *ChannelList) BytesPerScanline(width int) int {
	total := 0
	for _, ch := range cl.channels {
		xs := ch.XSampling
		if xs < 1 {
			xs = 1
		}
		sampledWidth := (width + xs - 1) / xs
		total += sampledWidth * ch.Type.Size()
	}
	return total
}

// WriteChannelList writes the wire encoding of a channel list: one record
// per channel (name, type, pLinear, 3 reserved bytes, xSampling,
// ySampling), terminated by an empty name.
func WriteChannelList(w *xdr.BufferWriter, cl *ChannelList) {
	for _, ch := range cl.channels {
		w.WriteString(ch.Name)
		w.WriteInt32(int32(ch.Type))
		if ch.PLinear {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
		w.WriteByte(0)
		w.WriteByte(0)
		w.WriteByte(0)
		w.WriteInt32(int32(ch.XSampling))
		w.WriteInt32(int32(ch.YSampling))
	}
	w.WriteByte(0) // empty-name terminator
}

// ReadChannelList reads the wire encoding produced by WriteChannelList.
func ReadChannelList(r *xdr.Reader) (*ChannelList, error) {
	cl := NewChannelList()
	for {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		if name == "" {
			return cl, nil
		}

		typ, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		pLinear, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if _, err := r.ReadBytes(3); err != nil {
			return nil, err
		}
		xSampling, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		ySampling, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}

		cl.channels = append(cl.channels, Channel{
			Name:      name,
			Type:      PixelType(typ),
			PLinear:   pLinear != 0,
			XSampling: int(xSampling),
			YSampling: int(ySampling),
		})
	}
}
