package domain

import "time"

// Signature is a comparable fingerprint of a file.
type Signature struct {
	Size    int64  `json:"size"`
	ModTime int64  `json:"mtime,omitzero"`
	Digest  string `json:"digest,omitzero"`
}

// Equal compares content digests when both sides carry one and falls back to
// size and modification time otherwise.
func (s Signature) Equal(other Signature) bool {
	if s.Size != other.Size {
		return false
	}
	if s.Digest != "" && other.Digest != "" {
		return s.Digest == other.Digest
	}
	return s.ModTime == other.ModTime
}

// BuildRecord is what the signature store keeps for one output after its action succeeded:
// the output's own signature and the signature of every input it was built from.
type BuildRecord struct {
	Output     string               `json:"output"`
	Signature  Signature            `json:"signature,omitzero"`
	Inputs     map[string]Signature `json:"inputs,omitempty"`
	RecordedAt time.Time            `json:"recorded_at,omitzero"`
	Generation uint64               `json:"generation,omitzero"`
}
