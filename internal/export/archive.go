// Package export writes simulation runs to portable files: a checksummed
// gzip archive of the full run and an Arrow IPC table of every walk.
package export

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/stairwalk/internal/store"
	"github.com/nvandessel/stairwalk/internal/walk"
)

// ArchiveVersion is the current archive format version.
const ArchiveVersion = 1

// MaxDecompressedSize is the maximum allowed size of a decompressed archive payload (200MB).
const MaxDecompressedSize = 200 * 1024 * 1024

// maxPayloadSize bounds the payload on both write and read.
var maxPayloadSize int64 = MaxDecompressedSize

// ArchiveHeader is the plain-text first line of an archive file.
type ArchiveHeader struct {
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	Checksum   string    `json:"checksum"`
	RunID      string    `json:"run_id"`
	Trials     int       `json:"trials"`
	Steps      int       `json:"steps"`
	Compressed bool      `json:"compressed"`
}

// Archive is the archive payload: the stored run plus every walk.
type Archive struct {
	Run   store.Run   `json:"run"`
	Walks []walk.Walk `json:"walks"`
}

// WriteArchive writes a header line followed by the gzip-compressed JSON
// payload. The checksum covers the compressed bytes.
func WriteArchive(path string, a *Archive) (*ArchiveHeader, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	if int64(len(payload)) > maxPayloadSize {
		return nil, fmt.Errorf("payload of %d bytes exceeds maximum size of %d bytes", len(payload), maxPayloadSize)
	}

	var compressed bytes.Buffer
	gzw, err := gzip.NewWriterLevel(&compressed, gzip.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := gzw.Write(payload); err != nil {
		return nil, fmt.Errorf("compressing payload: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}

	header := &ArchiveHeader{
		Version:    ArchiveVersion,
		CreatedAt:  a.Run.CreatedAt,
		Checksum:   checksum(compressed.Bytes()),
		RunID:      a.Run.ID,
		Trials:     len(a.Walks),
		Steps:      a.Run.Params.Rules.Steps,
		Compressed: true,
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("marshaling header: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	headerBytes = append(headerBytes, '\n')
	if _, err := f.Write(headerBytes); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	if _, err := f.Write(compressed.Bytes()); err != nil {
		return nil, fmt.Errorf("writing compressed payload: %w", err)
	}

	return header, f.Close()
}

// ReadArchive reads an archive, verifies the checksum, and decompresses the payload.
func ReadArchive(path string) (*Archive, error) {
	header, compressedData, err := readRaw(path)
	if err != nil {
		return nil, err
	}

	if actual := checksum(compressedData); actual != header.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", header.Checksum, actual)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressedData))
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	decompressed, err := io.ReadAll(io.LimitReader(gzr, maxPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompressing payload: %w", err)
	}
	if int64(len(decompressed)) > maxPayloadSize {
		return nil, fmt.Errorf("decompressed payload exceeds maximum size of %d bytes", maxPayloadSize)
	}

	var a Archive
	if err := json.Unmarshal(decompressed, &a); err != nil {
		return nil, fmt.Errorf("parsing archive data: %w", err)
	}
	return &a, nil
}

// ReadArchiveHeader reads only the header line without decompressing.
func ReadArchiveHeader(path string) (*ArchiveHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return readHeader(bufio.NewReader(f))
}

// VerifyChecksum checks the integrity of an archive without decompressing it.
func VerifyChecksum(path string) error {
	header, compressedData, err := readRaw(path)
	if err != nil {
		return err
	}
	if actual := checksum(compressedData); actual != header.Checksum {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", header.Checksum, actual)
	}
	return nil
}

func readRaw(path string) (*ArchiveHeader, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	header, err := readHeader(reader)
	if err != nil {
		return nil, nil, err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("reading compressed payload: %w", err)
	}
	return header, data, nil
}

func readHeader(r *bufio.Reader) (*ArchiveHeader, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading header line: %w", err)
	}

	var header ArchiveHeader
	if err := json.Unmarshal(bytes.TrimSpace(line), &header); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	if header.Version != ArchiveVersion {
		return nil, fmt.Errorf("unsupported archive version %d", header.Version)
	}
	return &header, nil
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}
