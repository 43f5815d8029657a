package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Format is an artifact serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ParseFormat accepts "json" or "cbor".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCBOR:
		return Format(s), nil
	}
	return "", fmt.Errorf("artifact: unknown format %q (want json or cbor)", s)
}

// Ext returns the file extension for f.
func (f Format) Ext() string {
	return "." + string(f)
}

// cborEncMode is canonical so equal artifacts encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("artifact: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// EncodeJSON serializes an artifact as indented JSON.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("artifact: encode json: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeCBOR serializes an artifact as canonical CBOR.
func EncodeCBOR(v any) ([]byte, error) {
	data, err := cborEncMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("artifact: encode cbor: %w", err)
	}
	return data, nil
}

// Encode serializes v in format f.
func Encode(v any, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return EncodeJSON(v)
	case FormatCBOR:
		return EncodeCBOR(v)
	}
	return nil, fmt.Errorf("artifact: unknown format %q", f)
}

// DecodeProgramJSON parses a plain program artifact.
func DecodeProgramJSON(data []byte) (*ProgramArtifact, error) {
	var a ProgramArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("artifact: decode program: %w", err)
	}
	return &a, nil
}

// DecodeContractJSON parses a contract class artifact.
func DecodeContractJSON(data []byte) (*ContractArtifact, error) {
	var a ContractArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("artifact: decode contract: %w", err)
	}
	return &a, nil
}

// DecodeProgramCBOR parses a CBOR plain program artifact.
func DecodeProgramCBOR(data []byte) (*ProgramArtifact, error) {
	var a ProgramArtifact
	if err := cbor.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("artifact: unmarshal program: %w", err)
	}
	return &a, nil
}

// DecodeContractCBOR parses a CBOR contract class artifact.
func DecodeContractCBOR(data []byte) (*ContractArtifact, error) {
	var a ContractArtifact
	if err := cbor.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("artifact: unmarshal contract: %w", err)
	}
	return &a, nil
}

// Hash is the SHA-256 of an artifact's canonical CBOR encoding.
type Hash [32]byte

// String returns the lowercase hex form.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// HashOf computes the content hash of v.
func HashOf(v any) (Hash, error) {
	data, err := EncodeCBOR(v)
	if err != nil {
		return Hash{}, err
	}
	return sha256.Sum256(data), nil
}
