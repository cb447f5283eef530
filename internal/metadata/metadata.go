// Package metadata builds the typed removal record declared into the
// container's script metadata side channel after ghost extraction.
package metadata

import (
	"encoding/hex"
	"fmt"

	"gbxstrip/internal/gbx"
)

// DefaultKey is the script metadata key the removal record is declared
// under unless overridden.
const DefaultKey = "LibMapType_Extra"

// signature is the provenance marker embedded hex-encoded in every removal
// record. Tamper evidence, not a secret.
const signature = "gbxstrip-validation-removed"

// Field names inside the removal record.
const (
	fieldNote         = "Note"
	fieldSig          = "Sig"
	fieldChallenge    = "ChallengeParameters"
	fieldGhost        = "CGameCtnGhost"
	fieldGhostUID     = "GhostUid"
	fieldRaceSettings = "Validate_RaceSettings"
	fieldExeVersion   = "Validate_ExeVersion"
	fieldAuthorScore  = "intAuthorScore"
)

// AttachRemovalRecord declares the removal record for ghost under key,
// replacing any prior entry. Call only when a ghost was actually present.
func AttachRemovalRecord(c *gbx.Container, key string, ghost *gbx.ValidationGhost) {
	if key == "" {
		key = DefaultKey
	}
	times := ResolveTimes(c)

	ghostTrait := gbx.Struct(
		gbx.Field{Name: fieldGhostUID, Trait: gbx.Text(ghost.UID)},
		gbx.Field{Name: fieldRaceSettings, Trait: gbx.Text(ghost.RaceSettings)},
		gbx.Field{Name: fieldExeVersion, Trait: gbx.Text(ghost.ExeVersion)},
	)

	var score int32
	if c.Challenge != nil {
		score = c.Challenge.AuthorScore
	}
	challengeTrait := gbx.Struct(
		gbx.Field{Name: fieldAuthorScore, Trait: gbx.Integer(score)},
		gbx.Field{Name: "AuthorTime", Trait: gbx.Integer(sentinel(times.Author))},
		gbx.Field{Name: "GoldTime", Trait: gbx.Integer(sentinel(times.Gold))},
		gbx.Field{Name: "SilverTime", Trait: gbx.Integer(sentinel(times.Silver))},
		gbx.Field{Name: "BronzeTime", Trait: gbx.Integer(sentinel(times.Bronze))},
		gbx.Field{Name: fieldGhost, Trait: ghostTrait},
	)

	record := gbx.Struct(
		gbx.Field{Name: fieldNote, Trait: gbx.Text(removalNote(times))},
		gbx.Field{Name: fieldChallenge, Trait: challengeTrait},
		gbx.Field{Name: fieldSig, Trait: gbx.Text(hex.EncodeToString([]byte(signature)))},
	)

	c.EnsureMetadata().Declare(key, record)
}

// removalNote renders the human-readable summary of the original par times.
// Unset times keep the literal "unset" marker.
func removalNote(t gbx.Times) string {
	return fmt.Sprintf(
		"Validation replay removed. Original times: author %s, gold %s, silver %s, bronze %s.",
		t.Author, t.Gold, t.Silver, t.Bronze,
	)
}

// ResolveTimes applies the per-field fallback: challenge-parameters scope
// first, then map scope. Each field falls back independently.
func ResolveTimes(c *gbx.Container) gbx.Times {
	var challenge gbx.Times
	if c.Challenge != nil {
		challenge = c.Challenge.Times
	}
	return gbx.Times{
		Author: pick(challenge.Author, c.Times.Author),
		Gold:   pick(challenge.Gold, c.Times.Gold),
		Silver: pick(challenge.Silver, c.Times.Silver),
		Bronze: pick(challenge.Bronze, c.Times.Bronze),
	}
}

func pick(primary, fallback gbx.Time) gbx.Time {
	if primary.Valid {
		return primary
	}
	return fallback
}

// sentinel encodes an unset time as -1. Integers have no null-safe wire
// form here, so -1 stands in even though it collides with a legitimate
// negative duration.
func sentinel(t gbx.Time) int32 {
	if !t.Valid {
		return -1
	}
	return t.Millis
}
