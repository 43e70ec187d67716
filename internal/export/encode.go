package export

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// Artifact file names inside the output directory.
const (
	DataFileName = "meteorological_data.json"
	GzipFileName = DataFileName + ".gz"
)

// Encode serializes p as compact JSON.
func Encode(p *Payload) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return b, nil
}

// Compress gzips b at the maximum compression level.
func Compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(b); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode inflates and parses a compressed payload.
func Decode(r io.Reader) (*Payload, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer zr.Close()

	var p Payload
	if err := json.NewDecoder(zr).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &p, nil
}

// ReadFile decodes a compressed payload from disk.
func ReadFile(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Sizes reports what WriteFiles produced.
type Sizes struct {
	Path         string
	RawPath      string // empty unless the uncompressed copy was written
	Raw          int64
	Compressed   int64
	SHA256       string
	ReductionPct float64
}

// WriteFiles writes the gzip payload into dir and, when writeRaw is set, the
// plain JSON next to it. Files are written to a temp name and renamed so
// readers never observe a partial artifact.
func WriteFiles(dir string, p *Payload, writeRaw bool) (Sizes, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Sizes{}, fmt.Errorf("create output dir: %w", err)
	}
	raw, err := Encode(p)
	if err != nil {
		return Sizes{}, err
	}
	gz, err := Compress(raw)
	if err != nil {
		return Sizes{}, err
	}

	s := Sizes{
		Path:       filepath.Join(dir, GzipFileName),
		Raw:        int64(len(raw)),
		Compressed: int64(len(gz)),
		SHA256:     checksum(gz),
	}
	if s.Raw > 0 {
		s.ReductionPct = (1 - float64(s.Compressed)/float64(s.Raw)) * 100
	}
	if writeRaw {
		s.RawPath = filepath.Join(dir, DataFileName)
		if err := writeAtomic(s.RawPath, raw); err != nil {
			return Sizes{}, err
		}
	}
	if err := writeAtomic(s.Path, gz); err != nil {
		return Sizes{}, err
	}
	return s, nil
}

func writeAtomic(path string, b []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
