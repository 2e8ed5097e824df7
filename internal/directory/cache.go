package directory

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"
)

// cacheMagic prefixes every cache file.
var cacheMagic = []byte("EVDC2")

// headerSize is magic + uint16 source length + uint64 raw length; the
// source string sits between the two lengths.
var headerSize = len(cacheMagic) + 2 + 8

// maxSourceLen bounds the source identity stored in the header.
const maxSourceLen = 1<<16 - 1

// Cache errors.
var (
	ErrCacheStale   = errors.New("dataset cache is stale")
	ErrCacheCorrupt = errors.New("dataset cache is corrupt")
)

// Cache stores a raw dataset on disk as a single LZ4 block, tagged with
// the source it was fetched from.
type Cache struct {
	path   string
	source string
	ttl    time.Duration
	now    func() time.Time
}

// NewCache returns a cache at path for the given source identity. A file
// written for a different source reads as stale. A ttl of zero never
// expires.
func NewCache(path, source string, ttl time.Duration) *Cache {
	return &Cache{path: path, source: source, ttl: ttl, now: time.Now}
}

// SourceKey identifies a dataset by its URL and format.
func SourceKey(url string, format Format) string {
	return string(format) + " " + url
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// Read returns the cached dataset, or ErrCacheStale when missing, expired
// or written for another source.
func (c *Cache) Read() ([]byte, error) {
	info, statErr := os.Stat(c.path)
	if statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return nil, ErrCacheStale
		}

		return nil, fmt.Errorf("stat dataset cache: %w", statErr)
	}

	if c.ttl > 0 && c.now().Sub(info.ModTime()) > c.ttl {
		return nil, ErrCacheStale
	}

	blob, readErr := os.ReadFile(c.path)
	if readErr != nil {
		return nil, fmt.Errorf("read dataset cache: %w", readErr)
	}

	source, data, decodeErr := decodeCache(blob)
	if decodeErr != nil {
		return nil, decodeErr
	}

	if source != c.source {
		return nil, ErrCacheStale
	}

	return data, nil
}

// Write compresses data and replaces the cache file atomically.
func (c *Cache) Write(data []byte) error {
	blob, err := encodeCache(c.source, data)
	if err != nil {
		return err
	}

	mkdirErr := os.MkdirAll(filepath.Dir(c.path), 0o750)
	if mkdirErr != nil {
		return fmt.Errorf("create cache dir: %w", mkdirErr)
	}

	tmp := c.path + ".tmp"

	writeErr := os.WriteFile(tmp, blob, 0o600)
	if writeErr != nil {
		return fmt.Errorf("write dataset cache: %w", writeErr)
	}

	renameErr := os.Rename(tmp, c.path)
	if renameErr != nil {
		return fmt.Errorf("install dataset cache: %w", renameErr)
	}

	return nil
}

func encodeCache(source string, data []byte) ([]byte, error) {
	if len(source) > maxSourceLen {
		return nil, fmt.Errorf("dataset cache source is %d bytes, limit %d", len(source), maxSourceLen)
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(data)))

	written, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("compress dataset: %w", err)
	}

	// Incompressible input yields zero; store it raw.
	stored := compressed[:written]
	if written == 0 {
		stored = data
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(source)+len(stored)))
	buf.Write(cacheMagic)

	var sourceLen [2]byte

	binary.LittleEndian.PutUint16(sourceLen[:], uint16(len(source)))
	buf.Write(sourceLen[:])
	buf.WriteString(source)

	var header [8]byte

	rawLen := uint64(len(data))
	if written == 0 {
		rawLen |= 1 << 63
	}

	binary.LittleEndian.PutUint64(header[:], rawLen)
	buf.Write(header[:])
	buf.Write(stored)

	return buf.Bytes(), nil
}

func decodeCache(blob []byte) (string, []byte, error) {
	if len(blob) < headerSize || !bytes.Equal(blob[:len(cacheMagic)], cacheMagic) {
		return "", nil, ErrCacheCorrupt
	}

	rest := blob[len(cacheMagic):]
	sourceLen := int(binary.LittleEndian.Uint16(rest))
	rest = rest[2:]

	if len(rest) < sourceLen+8 {
		return "", nil, ErrCacheCorrupt
	}

	source := string(rest[:sourceLen])
	rest = rest[sourceLen:]

	rawLen := binary.LittleEndian.Uint64(rest)
	payload := rest[8:]

	if rawLen&(1<<63) != 0 {
		return source, bytes.Clone(payload), nil
	}

	if rawLen > uint64(maxDatasetBytes) {
		return "", nil, ErrCacheCorrupt
	}

	out := make([]byte, rawLen)

	n, err := lz4.UncompressBlock(payload, out)
	if err != nil || uint64(n) != rawLen {
		return "", nil, ErrCacheCorrupt
	}

	return source, out, nil
}
