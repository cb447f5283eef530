package gbx

import "fmt"

// Encoding identifies how a container section is stored on disk.
type Encoding byte

const (
	// EncodingUncompressed marks a raw section.
	EncodingUncompressed Encoding = 'U'
	// EncodingLZO marks a section compressed with the external LZO codec.
	EncodingLZO Encoding = 'C'
)

// Well-known class identifiers.
const (
	ClassMap    uint32 = 0x03043000
	ClassGhost  uint32 = 0x03092000
	ClassReplay uint32 = 0x03093000
)

// Body chunk identifiers.
const (
	chunkMapTimes       uint32 = 0x03043002
	chunkComments       uint32 = 0x03043028
	chunkChallengeParam uint32 = 0x03043011
	chunkScriptMetadata uint32 = 0x03043044
	chunkGhostRecord    uint32 = 0x03092002
)

// Time is a track duration in milliseconds. The zero value is unset.
type Time struct {
	Millis int32
	Valid  bool
}

// Milliseconds returns a set Time.
func Milliseconds(ms int32) Time {
	return Time{Millis: ms, Valid: true}
}

// String renders the canonical m:ss.mmm form, or "unset".
func (t Time) String() string {
	if !t.Valid {
		return "unset"
	}
	ms := int64(t.Millis)
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	return fmt.Sprintf("%s%d:%02d.%03d", sign, ms/60000, (ms/1000)%60, ms%1000)
}

// Times groups the four par times of one scope.
type Times struct {
	Author Time
	Gold   Time
	Silver Time
	Bronze Time
}

func (t Times) any() bool {
	return t.Author.Valid || t.Gold.Valid || t.Silver.Valid || t.Bronze.Valid
}

// ValidationGhost is the embedded recorded run that proves the track's
// posted times are achievable.
type ValidationGhost struct {
	UID          string
	RaceSettings string
	ExeVersion   string
	// Payload is the opaque recorded run data, preserved verbatim so the
	// ghost can be written out standalone after extraction.
	Payload []byte
}

// ChallengeParameters holds the par times and the optional validation ghost.
type ChallengeParameters struct {
	AuthorScore int32
	Times       Times
	Ghost       *ValidationGhost
}

// Chunk is an opaque body chunk carried through decode and encode untouched.
type Chunk struct {
	ID   uint32
	Data []byte
}

// Container is a decoded track file: the typed blocks this tool mutates
// plus every other chunk preserved as-is.
type Container struct {
	Version uint16
	ClassID uint32

	// Times is the map-scope fallback for par times.
	Times     Times
	Comments  string
	Challenge *ChallengeParameters
	Metadata  *MetadataStore

	Extra []Chunk
}

// IsReplay reports whether the container holds a replay record. Replays can
// be decoded but there is no writer for them.
func (c *Container) IsReplay() bool {
	return c != nil && c.ClassID == ClassReplay
}

// AppendComment appends note to the comments block, inserting a line break
// when the existing text does not already end with one.
func (c *Container) AppendComment(note string) {
	if note == "" {
		return
	}
	if c.Comments == "" {
		c.Comments = note
		return
	}
	if c.Comments[len(c.Comments)-1] != '\n' {
		c.Comments += "\n"
	}
	c.Comments += note
}

// EnsureMetadata returns the script metadata store, creating it and its
// first backing chunk when missing or structurally empty.
func (c *Container) EnsureMetadata() *MetadataStore {
	if c.Metadata == nil {
		c.Metadata = &MetadataStore{}
	}
	if c.Metadata.Chunks == 0 {
		c.Metadata.Chunks = 1
	}
	return c.Metadata
}
