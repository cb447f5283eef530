package gbx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// ErrCompressedWrite reports a writer setting the in-process encoder cannot
// honor. Compression is always an external, explicit step.
var ErrCompressedWrite = errors.New("gbx: in-process encoder writes uncompressed sections only")

// WriterSettings enumerates every encoding knob the writer has, one named
// field per option. There is no variant left to discover at runtime.
type WriterSettings struct {
	// Body is the encoding of the container body.
	Body Encoding
	// GhostBody is the encoding of a standalone ghost body.
	GhostBody Encoding
}

// Uncompressed returns settings with every encoding option forced raw.
func Uncompressed() WriterSettings {
	return WriterSettings{
		Body:      EncodingUncompressed,
		GhostBody: EncodingUncompressed,
	}
}

// Encode serializes the container. Only uncompressed settings are accepted.
func Encode(c *Container, settings WriterSettings) ([]byte, error) {
	if settings.Body != EncodingUncompressed || settings.GhostBody != EncodingUncompressed {
		return nil, ErrCompressedWrite
	}
	if c.IsReplay() {
		return nil, fmt.Errorf("gbx: no writer exists for replay containers (class %08x)", c.ClassID)
	}

	w := &writer{}
	w.raw(magic[:])
	w.u16(c.Version)
	w.u8('B')
	w.u8(byte(settings.Body))
	w.u32(c.ClassID)
	w.raw(encodeBody(c))
	return w.buf, nil
}

// EncodeFile serializes the container to path.
func EncodeFile(c *Container, path string, settings WriterSettings) error {
	data, err := Encode(c, settings)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// EncodeGhost serializes an extracted ghost as a standalone container.
func EncodeGhost(g *ValidationGhost, settings WriterSettings) ([]byte, error) {
	if settings.GhostBody != EncodingUncompressed {
		return nil, ErrCompressedWrite
	}
	record := &writer{}
	record.ghost(g)

	w := &writer{}
	w.raw(magic[:])
	w.u16(currentVersion)
	w.u8('B')
	w.u8(byte(settings.GhostBody))
	w.u32(ClassGhost)
	w.chunk(chunkGhostRecord, record.buf)
	return w.buf, nil
}

const currentVersion uint16 = 6

func encodeBody(c *Container) []byte {
	w := &writer{}
	if c.Times.any() {
		times := &writer{}
		times.times(c.Times)
		w.chunk(chunkMapTimes, times.buf)
	}
	if c.Challenge != nil {
		cp := &writer{}
		cp.i32(c.Challenge.AuthorScore)
		cp.times(c.Challenge.Times)
		if c.Challenge.Ghost != nil {
			cp.u8(1)
			cp.ghost(c.Challenge.Ghost)
		} else {
			cp.u8(0)
		}
		w.chunk(chunkChallengeParam, cp.buf)
	}
	if c.Comments != "" {
		comments := &writer{}
		comments.str(c.Comments)
		w.chunk(chunkComments, comments.buf)
	}
	if c.Metadata != nil && c.Metadata.Chunks > 0 {
		meta := &writer{}
		meta.u32(uint32(len(c.Metadata.Entries)))
		for _, e := range c.Metadata.Entries {
			meta.str(e.Key)
			meta.trait(e.Trait)
		}
		w.chunk(chunkScriptMetadata, meta.buf)
		for i := 1; i < c.Metadata.Chunks; i++ {
			w.chunk(chunkScriptMetadata, nil)
		}
	}
	for _, extra := range c.Extra {
		w.chunk(extra.ID, extra.Data)
	}
	return w.buf
}

type writer struct {
	buf []byte
}

func (w *writer) raw(b []byte) { w.buf = append(w.buf, b...) }
func (w *writer) u8(v byte)    { w.buf = append(w.buf, v) }

func (w *writer) u16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *writer) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) i32(v int32) { w.u32(uint32(v)) }

func (w *writer) str(s string) {
	w.u32(uint32(len(s)))
	w.raw([]byte(s))
}

func (w *writer) time(t Time) {
	if !t.Valid {
		w.i32(-1)
		return
	}
	w.i32(t.Millis)
}

func (w *writer) times(t Times) {
	w.time(t.Author)
	w.time(t.Gold)
	w.time(t.Silver)
	w.time(t.Bronze)
}

func (w *writer) ghost(g *ValidationGhost) {
	w.str(g.UID)
	w.str(g.RaceSettings)
	w.str(g.ExeVersion)
	w.u32(uint32(len(g.Payload)))
	w.raw(g.Payload)
}

func (w *writer) chunk(id uint32, payload []byte) {
	w.u32(id)
	w.u32(uint32(len(payload)))
	w.raw(payload)
}

func (w *writer) trait(t Trait) {
	w.u8(byte(t.Kind))
	switch t.Kind {
	case TraitText:
		w.str(t.Text)
	case TraitInteger:
		w.i32(t.Integer)
	case TraitStruct:
		w.u32(uint32(len(t.Fields)))
		for _, f := range t.Fields {
			w.str(f.Name)
			w.trait(f.Trait)
		}
	}
}
