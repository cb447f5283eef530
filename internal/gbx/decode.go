package gbx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

var magic = [3]byte{'G', 'B', 'X'}

// ErrBadMagic reports input that is not a Gbx container at all.
var ErrBadMagic = errors.New("gbx: bad magic")

// Transform decompresses a body section in-process.
type Transform func(data []byte, uncompressedSize int) ([]byte, error)

// Decoder turns container bytes into a typed tree. Decompression transforms
// are injected at construction; a compressed body with no registered
// transform yields StatusNeedsExternalDecompress instead of an error. An
// encoding byte outside the known set is a fatal decode error.
type Decoder struct {
	transforms map[Encoding]Transform
}

// NewDecoder builds a decoder with no transforms registered.
func NewDecoder() *Decoder {
	return &Decoder{transforms: map[Encoding]Transform{}}
}

// Register installs an in-process transform for enc.
func (d *Decoder) Register(enc Encoding, t Transform) {
	d.transforms[enc] = t
}

// DecodeStatus classifies the outcome of a decode attempt.
type DecodeStatus int

const (
	// StatusDecoded means Container is populated.
	StatusDecoded DecodeStatus = iota
	// StatusNeedsExternalDecompress means the body is compressed with an
	// encoding the decoder cannot expand; the caller should decompress the
	// file externally and retry.
	StatusNeedsExternalDecompress
	// StatusFatal means the container is unreadable; Err carries detail.
	StatusFatal
)

// DecodeResult is the three-way outcome of Decode.
type DecodeResult struct {
	Status    DecodeStatus
	Container *Container
	Err       error
}

func fatal(err error) DecodeResult {
	return DecodeResult{Status: StatusFatal, Err: err}
}

// DecodeFile reads and decodes the container at path.
func (d *Decoder) DecodeFile(path string) DecodeResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return fatal(fmt.Errorf("read container: %w", err))
	}
	return d.Decode(data)
}

// Decode parses a full container image.
func (d *Decoder) Decode(data []byte) DecodeResult {
	r := &reader{data: data}
	var m [3]byte
	copy(m[:], r.bytes(3))
	if r.err == nil && m != magic {
		return fatal(fmt.Errorf("%w: % x", ErrBadMagic, m[:]))
	}
	c := &Container{}
	c.Version = r.u16()
	format := r.u8()
	enc := Encoding(r.u8())
	c.ClassID = r.u32()
	if r.err != nil {
		return fatal(fmt.Errorf("decode header: %w", r.err))
	}
	if format != 'B' {
		return fatal(fmt.Errorf("decode header: unsupported format %q", format))
	}
	if enc != EncodingUncompressed && enc != EncodingLZO {
		return fatal(fmt.Errorf("decode header: unknown body encoding %q", enc))
	}

	body := r.rest()
	if enc != EncodingUncompressed {
		if len(body) < 4 {
			return fatal(errors.New("decode body: truncated compressed section"))
		}
		size := binary.LittleEndian.Uint32(body[:4])
		transform, ok := d.transforms[enc]
		if !ok {
			return DecodeResult{Status: StatusNeedsExternalDecompress}
		}
		expanded, err := transform(body[4:], int(size))
		if err != nil {
			return fatal(fmt.Errorf("decode body: expand %q section: %w", enc, err))
		}
		body = expanded
	}

	if err := decodeBody(c, body); err != nil {
		return fatal(err)
	}
	return DecodeResult{Status: StatusDecoded, Container: c}
}

func decodeBody(c *Container, body []byte) error {
	r := &reader{data: body}
	for r.len() > 0 {
		id := r.u32()
		length := r.u32()
		payload := r.bytes(int(length))
		if r.err != nil {
			return fmt.Errorf("decode body: chunk %08x: %w", id, r.err)
		}
		if err := decodeChunk(c, id, payload); err != nil {
			return fmt.Errorf("decode body: chunk %08x: %w", id, err)
		}
	}
	return nil
}

func decodeChunk(c *Container, id uint32, payload []byte) error {
	r := &reader{data: payload}
	switch id {
	case chunkMapTimes:
		c.Times = r.times()
	case chunkComments:
		c.Comments = r.str()
	case chunkChallengeParam:
		cp := &ChallengeParameters{}
		cp.AuthorScore = r.i32()
		cp.Times = r.times()
		if r.u8() == 1 {
			cp.Ghost = r.ghost()
		}
		c.Challenge = cp
	case chunkScriptMetadata:
		store := c.Metadata
		if store == nil {
			store = &MetadataStore{}
			c.Metadata = store
		}
		store.Chunks++
		if len(payload) > 0 {
			count := int(r.u32())
			for i := 0; i < count && r.err == nil; i++ {
				key := r.str()
				trait := r.trait(0)
				store.Entries = append(store.Entries, MetadataEntry{Key: key, Trait: trait})
			}
		}
	default:
		c.Extra = append(c.Extra, Chunk{ID: id, Data: append([]byte(nil), payload...)})
	}
	return r.err
}

// DecodeGhost parses a standalone ghost container written by EncodeGhost.
func DecodeGhost(data []byte) (*ValidationGhost, error) {
	r := &reader{data: data}
	var m [3]byte
	copy(m[:], r.bytes(3))
	if r.err == nil && m != magic {
		return nil, ErrBadMagic
	}
	r.u16() // version
	r.u8()  // format
	if enc := Encoding(r.u8()); enc != EncodingUncompressed {
		return nil, fmt.Errorf("gbx: ghost body encoding %q not readable in-process", enc)
	}
	if class := r.u32(); r.err == nil && class != ClassGhost {
		return nil, fmt.Errorf("gbx: class %08x is not a ghost", class)
	}
	id := r.u32()
	length := r.u32()
	payload := r.bytes(int(length))
	if r.err != nil {
		return nil, fmt.Errorf("decode ghost: %w", r.err)
	}
	if id != chunkGhostRecord {
		return nil, fmt.Errorf("decode ghost: unexpected chunk %08x", id)
	}
	gr := &reader{data: payload}
	g := gr.ghost()
	if gr.err != nil {
		return nil, fmt.Errorf("decode ghost: %w", gr.err)
	}
	return g, nil
}

// reader walks a byte slice with a sticky error.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) len() int { return len(r.data) - r.off }

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.len() < n {
		r.err = fmt.Errorf("truncated at offset %d (want %d bytes, have %d)", r.off, n, r.len())
		return nil
	}
	out := r.data[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) rest() []byte {
	out := r.data[r.off:]
	r.off = len(r.data)
	return out
}

func (r *reader) u8() byte {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) i32() int32 { return int32(r.u32()) }

func (r *reader) str() string {
	n := int(r.u32())
	b := r.bytes(n)
	return string(b)
}

func (r *reader) time() Time {
	v := r.i32()
	if r.err != nil || v == -1 {
		return Time{}
	}
	return Milliseconds(v)
}

func (r *reader) times() Times {
	return Times{Author: r.time(), Gold: r.time(), Silver: r.time(), Bronze: r.time()}
}

func (r *reader) ghost() *ValidationGhost {
	g := &ValidationGhost{}
	g.UID = r.str()
	g.RaceSettings = r.str()
	g.ExeVersion = r.str()
	n := int(r.u32())
	g.Payload = append([]byte(nil), r.bytes(n)...)
	return g
}

const maxTraitDepth = 32

func (r *reader) trait(depth int) Trait {
	if depth > maxTraitDepth {
		r.err = errors.New("trait nesting too deep")
		return Trait{}
	}
	kind := TraitKind(r.u8())
	switch kind {
	case TraitText:
		return Text(r.str())
	case TraitInteger:
		return Integer(r.i32())
	case TraitStruct:
		count := int(r.u32())
		fields := make([]Field, 0, count)
		for i := 0; i < count && r.err == nil; i++ {
			name := r.str()
			fields = append(fields, Field{Name: name, Trait: r.trait(depth + 1)})
		}
		return Struct(fields...)
	default:
		if r.err == nil {
			r.err = fmt.Errorf("unknown trait kind %d", kind)
		}
		return Trait{}
	}
}
