// Package export renders a compiled threat model to its downstream artifact
// forms: deterministic JSON for renderers and a snappy-compressed framed
// binary (".tma") for archival and transfer.
package export

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-threatmodel/pkg/compiler"
)

// Artifact framing: [Magic:4][Version:1][DataLen:4][Data:N][Checksum:4]
// where Data is the snappy-compressed JSON model and the checksum covers
// the compressed bytes.
var artifactMagic = [4]byte{'T', 'M', 'A', '\x00'}

const artifactVersion byte = 1

// MaxArtifactSize caps the declared payload length of an artifact being read.
// The length field is attacker-controlled until the checksum passes, so it is
// bounded before any allocation.
const MaxArtifactSize = 256 << 20 // 256 MiB

var (
	ErrBadMagic    = errors.New("not a threat model artifact")
	ErrBadVersion  = errors.New("unsupported artifact version")
	ErrBadChecksum = errors.New("artifact checksum mismatch")
	ErrTooLarge    = errors.New("artifact exceeds maximum size")
)

// EncodeJSON renders the model as indented JSON with a trailing newline.
// Map keys serialize in sorted order, so identical models produce identical
// bytes.
func EncodeJSON(model compiler.CompiledThreatModel) ([]byte, error) {
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteArtifact writes the framed compressed artifact to w and returns the
// number of bytes written.
func WriteArtifact(w io.Writer, model compiler.CompiledThreatModel) (int, error) {
	data, err := json.Marshal(model)
	if err != nil {
		return 0, fmt.Errorf("failed to encode model: %w", err)
	}
	compressed := snappy.Encode(nil, data)

	var buf bytes.Buffer
	buf.Write(artifactMagic[:])
	buf.WriteByte(artifactVersion)
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(compressed))); err != nil {
		return 0, err
	}
	buf.Write(compressed)
	if err := binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(compressed)); err != nil {
		return 0, err
	}

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return n, fmt.Errorf("failed to write artifact: %w", err)
	}
	return n, nil
}

// ReadArtifact reads one framed artifact from r and decodes the model.
func ReadArtifact(r io.Reader) (compiler.CompiledThreatModel, error) {
	var model compiler.CompiledThreatModel

	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return model, fmt.Errorf("failed to read artifact header: %w", err)
	}
	if !bytes.Equal(header[:4], artifactMagic[:]) {
		return model, ErrBadMagic
	}
	if header[4] != artifactVersion {
		return model, fmt.Errorf("%w: %d", ErrBadVersion, header[4])
	}

	var dataLen uint32
	if err := binary.Read(r, binary.BigEndian, &dataLen); err != nil {
		return model, fmt.Errorf("failed to read artifact length: %w", err)
	}
	if dataLen > MaxArtifactSize {
		return model, fmt.Errorf("%w: %d bytes declared, limit %d", ErrTooLarge, dataLen, MaxArtifactSize)
	}
	compressed := make([]byte, dataLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return model, fmt.Errorf("failed to read artifact data: %w", err)
	}

	var checksum uint32
	if err := binary.Read(r, binary.BigEndian, &checksum); err != nil {
		return model, fmt.Errorf("failed to read artifact checksum: %w", err)
	}
	if crc32.ChecksumIEEE(compressed) != checksum {
		return model, ErrBadChecksum
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return model, fmt.Errorf("failed to decompress artifact: %w", err)
	}
	if err := json.Unmarshal(data, &model); err != nil {
		return model, fmt.Errorf("failed to decode model: %w", err)
	}
	return model, nil
}

// WriteArtifactFile writes the artifact to path, creating or truncating it.
func WriteArtifactFile(path string, model compiler.CompiledThreatModel) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create artifact file: %w", err)
	}
	n, werr := WriteArtifact(f, model)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	return n, werr
}

// ReadArtifactFile reads an artifact written by WriteArtifactFile.
func ReadArtifactFile(path string) (compiler.CompiledThreatModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return compiler.CompiledThreatModel{}, fmt.Errorf("failed to open artifact file: %w", err)
	}
	defer f.Close()
	return ReadArtifact(f)
}
