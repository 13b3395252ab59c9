// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/blake3"
)

// CompressionTag identifies the compression algorithm used for a
// spooled payload. Tags are stored in the spool file header (1 byte);
// the values are format constants.
type CompressionTag uint8

const (
	// CompressionNone indicates an uncompressed payload, used when
	// the body is too small or too dense for compression to pay off.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 indicates LZ4 block compression, the fallback
	// when zstd is not worthwhile but LZ4 still is.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd indicates zstd at the default level, the usual
	// winner for JSON submission bodies.
	CompressionZstd CompressionTag = 2
)

// String returns the human-readable name of a compression tag.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// spoolHeaderSize is 1 tag byte + 8 bytes of big-endian uncompressed
// length.
const spoolHeaderSize = 1 + 8

// errIncompressible is returned by compression helpers when the
// output would not be smaller than the input.
var errIncompressible = errors.New("data is incompressible")

// zstdEncoder and zstdDecoder are reused across calls. Both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("gateway: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("gateway: zstd decoder initialization failed: " + err.Error())
	}
}

// Spool archives submitted payload bodies to disk. Files are keyed by
// the BLAKE3 digest of the uncompressed body, so resubmitting an
// identical payload is a no-op; the digest doubles as the launch
// idempotency key in logs. Each file is a small header (compression
// tag + uncompressed length) followed by the possibly-compressed
// body.
type Spool struct {
	dir string
}

// NewSpool creates the spool directory if needed and returns a Spool
// over it.
func NewSpool(dir string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating spool directory: %w", err)
	}
	return &Spool{dir: dir}, nil
}

// Write archives body and returns its digest key. The body is probed
// through zstd, then LZ4, then stored raw — whichever first produces
// output smaller than the input.
func (s *Spool) Write(body []byte) (digest string, err error) {
	digest = payloadDigest(body)
	path := s.path(digest)
	if _, err := os.Stat(path); err == nil {
		return digest, nil
	}

	tag := CompressionZstd
	compressed, err := compressZstd(body)
	if errors.Is(err, errIncompressible) {
		tag = CompressionLZ4
		compressed, err = compressLZ4(body)
	}
	if errors.Is(err, errIncompressible) {
		tag = CompressionNone
		compressed, err = body, nil
	}
	if err != nil {
		return "", err
	}

	file := make([]byte, spoolHeaderSize+len(compressed))
	file[0] = byte(tag)
	binary.BigEndian.PutUint64(file[1:spoolHeaderSize], uint64(len(body)))
	copy(file[spoolHeaderSize:], compressed)

	// Write-then-rename so a crashed write never leaves a truncated
	// entry under the digest name.
	temporary := path + ".tmp"
	if err := os.WriteFile(temporary, file, 0o644); err != nil {
		return "", fmt.Errorf("writing spool entry %s: %w", digest, err)
	}
	if err := os.Rename(temporary, path); err != nil {
		return "", fmt.Errorf("finalizing spool entry %s: %w", digest, err)
	}
	return digest, nil
}

// Read returns the uncompressed body spooled under digest.
func (s *Spool) Read(digest string) ([]byte, error) {
	file, err := os.ReadFile(s.path(digest))
	if err != nil {
		return nil, fmt.Errorf("reading spool entry %s: %w", digest, err)
	}
	if len(file) < spoolHeaderSize {
		return nil, fmt.Errorf("spool entry %s is truncated (%d bytes)", digest, len(file))
	}
	tag := CompressionTag(file[0])
	uncompressedSize := int(binary.BigEndian.Uint64(file[1:spoolHeaderSize]))
	compressed := file[spoolHeaderSize:]

	var body []byte
	switch tag {
	case CompressionNone:
		if len(compressed) != uncompressedSize {
			return nil, fmt.Errorf("spool entry %s: size %d does not match header %d",
				digest, len(compressed), uncompressedSize)
		}
		body = compressed
	case CompressionLZ4:
		body, err = decompressLZ4(compressed, uncompressedSize)
	case CompressionZstd:
		body, err = decompressZstd(compressed, uncompressedSize)
	default:
		return nil, fmt.Errorf("spool entry %s: unknown compression tag %d", digest, tag)
	}
	if err != nil {
		return nil, fmt.Errorf("spool entry %s: %w", digest, err)
	}

	if payloadDigest(body) != digest {
		return nil, fmt.Errorf("spool entry %s: digest mismatch after decompression", digest)
	}
	return body, nil
}

// List returns the digests of every spooled payload, sorted.
func (s *Spool) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing spool: %w", err)
	}
	var digests []string
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) == ".spool" {
			digests = append(digests, name[:len(name)-len(".spool")])
		}
	}
	sort.Strings(digests)
	return digests, nil
}

func (s *Spool) path(digest string) string {
	return filepath.Join(s.dir, digest+".spool")
}

// payloadDigest returns the hex BLAKE3 digest of body.
func payloadDigest(body []byte) string {
	sum := blake3.Sum256(body)
	return fmt.Sprintf("%x", sum)
}

func compressLZ4(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	destination := make([]byte, bound)
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 when it determines the data is
	// incompressible.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
	}
	return destination, nil
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, uncompressedSize int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), uncompressedSize)
	}
	return result, nil
}
