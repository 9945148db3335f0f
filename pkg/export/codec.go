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
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"
	"gopkg.in/yaml.v3"
)

// ErrCorruptSnapshot is returned when a compressed snapshot fails its
// framing or checksum.
var ErrCorruptSnapshot = errors.New("corrupt compressed snapshot")

var magic = [4]byte{'B', 'T', 'S', 'N'}

// frameOverhead is the magic, length and checksum around the payload.
const frameOverhead = 12

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// ReadJSON decodes a snapshot written by WriteJSON.
func ReadJSON(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// ReadYAML decodes a snapshot written by WriteYAML.
func ReadYAML(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// WriteCompressed writes s as snappy-compressed JSON.
// Format: [Magic:4][Length:4][Data:N][Checksum:4], checksum over Data.
func WriteCompressed(w io.Writer, s *Snapshot) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	compressed := snappy.Encode(nil, buf.Bytes())

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(compressed))); err != nil {
		return err
	}
	if _, err := w.Write(compressed); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, crc32.ChecksumIEEE(compressed))
}

// ReadCompressed reads a snapshot written by WriteCompressed. Readers with
// a Size method, such as the section reader Load uses, have the declared
// payload length checked against it before anything is read.
func ReadCompressed(r io.Reader) (*Snapshot, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if head != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptSnapshot, head[:])
	}

	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if sized, ok := r.(interface{ Size() int64 }); ok && int64(length) > sized.Size()-frameOverhead {
		return nil, fmt.Errorf("%w: payload length %d exceeds input size %d", ErrCorruptSnapshot, length, sized.Size())
	}
	compressed, err := io.ReadAll(io.LimitReader(r, int64(length)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if len(compressed) != int(length) {
		return nil, fmt.Errorf("%w: payload truncated at %d of %d bytes", ErrCorruptSnapshot, len(compressed), length)
	}

	var checksum uint32
	if err := binary.Read(r, binary.BigEndian, &checksum); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if crc32.ChecksumIEEE(compressed) != checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptSnapshot)
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return ReadJSON(bytes.NewReader(data))
}

// Save writes s to path. The extension picks the encoding: .snap for
// compressed, .yaml or .yml for YAML, JSON otherwise.
func Save(path string, s *Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".snap":
		err = WriteCompressed(f, s)
	case ".yaml", ".yml":
		err = WriteYAML(f, s)
	default:
		err = WriteJSON(f, s)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to write snapshot to %s: %w", path, err)
	}
	return f.Close()
}

// Load reads a snapshot written by Save. The file is mapped read-only
// for the duration of the decode.
func Load(path string) (*Snapshot, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer m.Close()

	r := io.NewSectionReader(m, 0, int64(m.Len()))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".snap":
		return ReadCompressed(r)
	case ".yaml", ".yml":
		return ReadYAML(r)
	default:
		return ReadJSON(r)
	}
}
