// Package persistence implements the versioned, chunked "Brain Image"
// binary format: a magic+version header followed by a sequence of tagged
// chunks, v1 stored raw and v2 compressed per chunk with LZ4. Unknown tags
// are skipped for forward compatibility.
package persistence

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/maplumi/braine-sub000/braineerr"
	"github.com/maplumi/braine-sub000/causal"
	"github.com/maplumi/braine-sub000/group"
	"github.com/maplumi/braine-sub000/symbol"
)

// Magic is the fixed 8-byte header that opens every brain image.
const Magic = "BRAINE01"

// Format versions. V1 stores each chunk's payload raw; V2 LZ4-compresses
// each chunk's payload independently.
const (
	V1 uint32 = 1
	V2 uint32 = 2
)

// Chunk tags, each exactly 4 ASCII bytes.
const (
	tagCFG0 = "CFG0"
	tagPRNG = "PRNG"
	tagSTAT = "STAT"
	tagUNIT = "UNIT"
	tagMASK = "MASK"
	tagSALI = "SALI"
	tagGRPS = "GRPS"
	tagSYMB = "SYMB"
	tagCAUS = "CAUS"
)

// UnitChunk is the compacted (no-tombstone) unit/connection snapshot.
// Offsets has unit_count+1 entries; Targets/Weights have connection_count
// entries each.
type UnitChunk struct {
	Amp, Phase, Bias, Decay []float32
	Offsets                 []uint32
	Targets                 []uint32
	Weights                 []float32
}

// MaskChunk carries the reserved/learning-enabled per-unit bitsets.
type MaskChunk struct {
	Reserved        []bool
	LearningEnabled []bool
}

// CausalChunk is the decayed symbolic memory snapshot.
type CausalChunk struct {
	Decay       float32
	Base        []causal.BaseEntry
	Edges       []causal.EdgeEntry
	PrevSymbols []symbol.ID
}

// Image is the full in-memory representation of a brain image: everything
// WriteImage serializes and ReadImage reconstructs. Config is an opaque
// blob (CFG0's payload) whose encoding is owned by the caller (brain.Config
// knows how to marshal/unmarshal itself); persistence never interprets it.
type Image struct {
	Version  uint32
	Config   []byte
	PRNG     []byte // exactly 32 bytes, rng.Source.State()
	AgeSteps uint64
	Neuromod float32

	Units  UnitChunk
	Masks  MaskChunk
	// Salience is optional/back-compat: nil omits the chunk entirely rather
	// than writing an empty one.
	Salience []float32

	Groups  []group.Group
	Symbols []symbol.Entries
	Causal  CausalChunk
}

// WriteImage serializes img to w in img.Version's wire format. Chunk
// order is fixed (CFG0, PRNG, STAT, UNIT, MASK, [SALI], GRPS, SYMB, CAUS)
// so a streaming reader never needs to seek.
func WriteImage(w io.Writer, img *Image) error {
	if img.Version != V1 && img.Version != V2 {
		return braineerr.New(braineerr.InvalidConfig, fmt.Sprintf("persistence: unsupported version %d", img.Version))
	}

	header := make([]byte, 0, 12)
	header = append(header, []byte(Magic)...)
	var vb [4]byte
	binary.LittleEndian.PutUint32(vb[:], img.Version)
	header = append(header, vb[:]...)
	if _, err := w.Write(header); err != nil {
		return braineerr.Wrap(braineerr.IoError, "persistence: write header", err)
	}

	for _, c := range chunkPlan(img) {
		if err := writeChunk(w, img.Version, c.tag, c.body); err != nil {
			return err
		}
	}
	return nil
}

type plannedChunk struct {
	tag  string
	body []byte
}

// chunkPlan builds every chunk body up front, in fixed persistence order.
// Shared by WriteImage and SizeReport so the dry-run report reflects
// exactly what a real write would produce.
func chunkPlan(img *Image) []plannedChunk {
	chunks := []plannedChunk{
		{tagCFG0, img.Config},
		{tagPRNG, img.PRNG},
		{tagSTAT, encodeStat(img.AgeSteps, img.Neuromod)},
		{tagUNIT, encodeUnit(img.Units)},
		{tagMASK, encodeMask(img.Masks)},
	}
	if img.Salience != nil {
		chunks = append(chunks, plannedChunk{tagSALI, encodeF32Array(img.Salience)})
	}
	chunks = append(chunks,
		plannedChunk{tagGRPS, encodeGroups(img.Groups)},
		plannedChunk{tagSYMB, encodeSymbols(img.Symbols)},
		plannedChunk{tagCAUS, encodeCausal(img.Causal)},
	)
	return chunks
}

func writeChunk(w io.Writer, version uint32, tag string, body []byte) error {
	payload := body
	if version == V2 {
		payload = compressPayload(body)
	}

	var head [8]byte
	copy(head[:4], tag)
	binary.LittleEndian.PutUint32(head[4:], uint32(len(payload)))
	if _, err := w.Write(head[:]); err != nil {
		return braineerr.Wrap(braineerr.IoError, "persistence: write chunk header", err)
	}
	if _, err := w.Write(payload); err != nil {
		return braineerr.Wrap(braineerr.IoError, "persistence: write chunk body", err)
	}
	return nil
}

func compressPayload(body []byte) []byte {
	bound := lz4.CompressBlockBound(len(body))
	compressed := make([]byte, bound)
	var c lz4.Compressor
	n, err := c.CompressBlock(body, compressed)
	out := make([]byte, 4+n)
	binary.LittleEndian.PutUint32(out[:4], uint32(len(body)))
	if err != nil || n == 0 {
		// incompressible or too small to benefit: lz4 reports n==0 in that
		// case per its documented contract. Fall back to storing raw bytes
		// with uncompressed_len == compressed_len so the reader can detect
		// this by comparing uncompressed_len to the remaining payload size.
		out = append(out[:4], body...)
		return out
	}
	copy(out[4:], compressed[:n])
	return out
}

// ReadImage parses a brain image from r. Unknown chunk tags are skipped.
// Returns ImageCorrupt on a bad magic/version, truncated chunk, or invalid
// contents.
func ReadImage(r io.Reader) (*Image, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, braineerr.Wrap(braineerr.ImageCorrupt, "persistence: truncated header", err)
	}
	if string(header[:8]) != Magic {
		return nil, braineerr.New(braineerr.ImageCorrupt, "persistence: bad magic")
	}
	version := binary.LittleEndian.Uint32(header[8:])
	if version != V1 && version != V2 {
		return nil, braineerr.New(braineerr.ImageCorrupt, fmt.Sprintf("persistence: unsupported version %d", version))
	}

	img := &Image{Version: version}
	for {
		tag, body, err := readChunk(r, version)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := decodeChunk(img, tag, body); err != nil {
			return nil, err
		}
	}

	if err := validateImage(img); err != nil {
		return nil, err
	}
	return img, nil
}

func readChunk(r io.Reader, version uint32) (tag string, body []byte, err error) {
	var head [8]byte
	if _, err = io.ReadFull(r, head[:]); err != nil {
		if err == io.EOF {
			return "", nil, io.EOF
		}
		return "", nil, braineerr.Wrap(braineerr.ImageCorrupt, "persistence: truncated chunk header", err)
	}
	tag = string(head[:4])
	length := binary.LittleEndian.Uint32(head[4:])
	payload := make([]byte, length)
	if _, err = io.ReadFull(r, payload); err != nil {
		return "", nil, braineerr.Wrap(braineerr.ImageCorrupt, "persistence: truncated chunk body", err)
	}

	if version == V1 {
		return tag, payload, nil
	}
	if len(payload) < 4 {
		return "", nil, braineerr.New(braineerr.ImageCorrupt, "persistence: v2 chunk missing uncompressed_len")
	}
	uncompressedLen := binary.LittleEndian.Uint32(payload[:4])
	compressed := payload[4:]
	if uint32(len(compressed)) == uncompressedLen {
		// stored raw (see compressPayload's incompressible fallback).
		return tag, compressed, nil
	}
	body = make([]byte, uncompressedLen)
	n, derr := lz4.UncompressBlock(compressed, body)
	if derr != nil || uint32(n) != uncompressedLen {
		return "", nil, braineerr.Wrap(braineerr.ImageCorrupt, "persistence: lz4 decompress failed", derr)
	}
	return tag, body, nil
}

func decodeChunk(img *Image, tag string, body []byte) error {
	var err error
	switch tag {
	case tagCFG0:
		img.Config = append([]byte(nil), body...)
	case tagPRNG:
		img.PRNG = append([]byte(nil), body...)
	case tagSTAT:
		img.AgeSteps, img.Neuromod, err = decodeStat(body)
	case tagUNIT:
		img.Units, err = decodeUnit(body)
	case tagMASK:
		img.Masks, err = decodeMask(body, len(img.Units.Amp))
	case tagSALI:
		img.Salience, err = decodeF32Array(body)
	case tagGRPS:
		img.Groups, err = decodeGroups(body)
	case tagSYMB:
		img.Symbols, err = decodeSymbols(body)
	case tagCAUS:
		img.Causal, err = decodeCausal(body)
	default:
		// unknown tag: skip silently (forward compatibility).
	}
	return err
}

func validateImage(img *Image) error {
	u := img.Units
	n := len(u.Amp)
	if len(u.Phase) != n || len(u.Bias) != n || len(u.Decay) != n {
		return braineerr.New(braineerr.ImageCorrupt, "persistence: unit array length mismatch")
	}
	if len(u.Offsets) != n+1 {
		return braineerr.New(braineerr.ImageCorrupt, "persistence: offsets length mismatch")
	}
	for i := 1; i < len(u.Offsets); i++ {
		if u.Offsets[i] < u.Offsets[i-1] {
			return braineerr.New(braineerr.ImageCorrupt, "persistence: offsets not monotone")
		}
	}
	if len(u.Targets) != len(u.Weights) {
		return braineerr.New(braineerr.ImageCorrupt, "persistence: targets/weights length mismatch")
	}
	last := u.Offsets[len(u.Offsets)-1]
	if int(last) != len(u.Targets) {
		return braineerr.New(braineerr.ImageCorrupt, "persistence: offsets do not cover all connections")
	}
	for _, w := range u.Weights {
		if w != w { // NaN check without importing math: NaN != NaN.
			return braineerr.New(braineerr.ImageCorrupt, "persistence: NaN weight")
		}
	}
	return nil
}
