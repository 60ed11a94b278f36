// Package fingerprint derives stable cache identities for scan inputs.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"

	"github.com/buemura/contractlens/internal/config"
	"github.com/buemura/contractlens/pkg/types"
)

// version is mixed into every fingerprint so a change to the encoding below
// can never collide with fingerprints from an older layout.
const version = "contractlens/fp/v1"

// Fingerprint is the hex-encoded SHA-256 identity of a scan input.
type Fingerprint string

func (f Fingerprint) String() string { return string(f) }

// Short returns an abbreviated form for logs.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// Relevant is the subset of configuration that can change scan output.
type Relevant struct {
	PatternMatching     bool
	AIAnalysis          bool
	SeverityThreshold   types.Severity
	ScoreFilteredIssues bool
}

// RelevantFrom extracts the output-affecting fields of an engine config.
func RelevantFrom(cfg config.Engine) Relevant {
	return Relevant{
		PatternMatching:     cfg.EnablePatternMatching,
		AIAnalysis:          cfg.EnableAIAnalysis,
		SeverityThreshold:   cfg.SeverityThreshold,
		ScoreFilteredIssues: cfg.ScoreFilteredIssues,
	}
}

// Compute returns the fingerprint of source under rc. Every field is length
// prefixed so no two distinct inputs share an encoding.
func Compute(source string, rc Relevant) Fingerprint {
	h := sha256.New()
	writeField(h, []byte(version))
	writeField(h, []byte{flag(rc.PatternMatching), flag(rc.AIAnalysis), flag(rc.ScoreFilteredIssues)})
	writeField(h, []byte(rc.SeverityThreshold))
	writeField(h, []byte(source))
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

func writeField(h hash.Hash, b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	h.Write(n[:])
	h.Write(b)
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}
