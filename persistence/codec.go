package persistence

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/maplumi/braine-sub000/braineerr"
	"github.com/maplumi/braine-sub000/causal"
	"github.com/maplumi/braine-sub000/group"
	"github.com/maplumi/braine-sub000/symbol"
)

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func putF32(buf *bytes.Buffer, v float32) {
	putU32(buf, math.Float32bits(v))
}

func putString(buf *bytes.Buffer, s string) {
	putU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

type reader struct {
	b   []byte
	pos int
	err error
}

func (r *reader) fail(detail string) {
	if r.err == nil {
		r.err = braineerr.New(braineerr.ImageCorrupt, detail)
	}
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.b) {
		r.fail("persistence: chunk truncated")
		return false
	}
	return true
}

func (r *reader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) u64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.b[r.pos:])
	r.pos += 8
	return v
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *reader) str() string {
	n := int(r.u32())
	if !r.need(n) {
		return ""
	}
	s := string(r.b[r.pos : r.pos+n])
	r.pos += n
	return s
}

func newReader(b []byte) *reader { return &reader{b: b} }

// --- STAT ---

func encodeStat(ageSteps uint64, neuromod float32) []byte {
	var buf bytes.Buffer
	putU64(&buf, ageSteps)
	putF32(&buf, neuromod)
	return buf.Bytes()
}

func decodeStat(body []byte) (uint64, float32, error) {
	r := newReader(body)
	age := r.u64()
	mod := r.f32()
	if r.err != nil {
		return 0, 0, r.err
	}
	return age, mod, nil
}

// --- UNIT ---

func encodeUnit(u UnitChunk) []byte {
	var buf bytes.Buffer
	n := len(u.Amp)
	putU32(&buf, uint32(n))
	for i := 0; i < n; i++ {
		putF32(&buf, u.Amp[i])
		putF32(&buf, u.Phase[i])
		putF32(&buf, u.Bias[i])
		putF32(&buf, u.Decay[i])
	}
	putU32(&buf, uint32(len(u.Targets)))
	for _, o := range u.Offsets {
		putU32(&buf, o)
	}
	for _, t := range u.Targets {
		putU32(&buf, t)
	}
	for _, w := range u.Weights {
		putF32(&buf, w)
	}
	return buf.Bytes()
}

func decodeUnit(body []byte) (UnitChunk, error) {
	r := newReader(body)
	n := int(r.u32())
	var u UnitChunk
	u.Amp = make([]float32, n)
	u.Phase = make([]float32, n)
	u.Bias = make([]float32, n)
	u.Decay = make([]float32, n)
	for i := 0; i < n; i++ {
		u.Amp[i] = r.f32()
		u.Phase[i] = r.f32()
		u.Bias[i] = r.f32()
		u.Decay[i] = r.f32()
	}
	connCount := int(r.u32())
	u.Offsets = make([]uint32, n+1)
	for i := range u.Offsets {
		u.Offsets[i] = r.u32()
	}
	u.Targets = make([]uint32, connCount)
	for i := range u.Targets {
		u.Targets[i] = r.u32()
	}
	u.Weights = make([]float32, connCount)
	for i := range u.Weights {
		u.Weights[i] = r.f32()
	}
	if r.err != nil {
		return UnitChunk{}, r.err
	}
	return u, nil
}

// --- MASK (bitsets) ---

func packBits(bs []bool) []byte {
	out := make([]byte, (len(bs)+7)/8)
	for i, v := range bs {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func unpackBits(data []byte, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		if i/8 >= len(data) {
			break
		}
		out[i] = data[i/8]&(1<<uint(i%8)) != 0
	}
	return out
}

func encodeMask(m MaskChunk) []byte {
	var buf bytes.Buffer
	putU32(&buf, uint32(len(m.Reserved)))
	buf.Write(packBits(m.Reserved))
	putU32(&buf, uint32(len(m.LearningEnabled)))
	buf.Write(packBits(m.LearningEnabled))
	return buf.Bytes()
}

func decodeMask(body []byte, unitCount int) (MaskChunk, error) {
	r := newReader(body)
	n1 := int(r.u32())
	bytes1 := (n1 + 7) / 8
	if !r.need(bytes1) {
		return MaskChunk{}, r.err
	}
	reserved := unpackBits(r.b[r.pos:r.pos+bytes1], n1)
	r.pos += bytes1

	n2 := int(r.u32())
	bytes2 := (n2 + 7) / 8
	if !r.need(bytes2) {
		return MaskChunk{}, r.err
	}
	learning := unpackBits(r.b[r.pos:r.pos+bytes2], n2)
	r.pos += bytes2

	if r.err != nil {
		return MaskChunk{}, r.err
	}
	if unitCount > 0 && (n1 != unitCount || n2 != unitCount) {
		return MaskChunk{}, braineerr.New(braineerr.ImageCorrupt, "persistence: mask length does not match unit count")
	}
	return MaskChunk{Reserved: reserved, LearningEnabled: learning}, nil
}

// --- SALI ---

func encodeF32Array(vals []float32) []byte {
	var buf bytes.Buffer
	putU32(&buf, uint32(len(vals)))
	for _, v := range vals {
		putF32(&buf, v)
	}
	return buf.Bytes()
}

func decodeF32Array(body []byte) ([]float32, error) {
	r := newReader(body)
	n := int(r.u32())
	out := make([]float32, n)
	for i := range out {
		out[i] = r.f32()
	}
	if r.err != nil {
		return nil, r.err
	}
	return out, nil
}

// --- GRPS ---

func encodeGroups(groups []group.Group) []byte {
	var buf bytes.Buffer
	putU32(&buf, uint32(len(groups)))
	for _, g := range groups {
		putString(&buf, g.Name)
		buf.WriteByte(byte(g.Kind))
		putU32(&buf, uint32(len(g.Ids)))
		for _, id := range g.Ids {
			putU32(&buf, uint32(id))
		}
	}
	return buf.Bytes()
}

func decodeGroups(body []byte) ([]group.Group, error) {
	r := newReader(body)
	n := int(r.u32())
	out := make([]group.Group, n)
	for i := 0; i < n; i++ {
		name := r.str()
		if !r.need(1) {
			break
		}
		kind := group.Kind(r.b[r.pos])
		r.pos++
		cnt := int(r.u32())
		ids := make([]int32, cnt)
		for k := range ids {
			ids[k] = int32(r.u32())
		}
		out[i] = group.Group{Name: name, Kind: kind, Ids: ids}
	}
	if r.err != nil {
		return nil, r.err
	}
	return out, nil
}

// --- SYMB ---

func encodeSymbols(entries []symbol.Entries) []byte {
	var buf bytes.Buffer
	putU32(&buf, uint32(len(entries)))
	for _, e := range entries {
		putString(&buf, e.Name)
		putU32(&buf, uint32(e.ID))
	}
	return buf.Bytes()
}

func decodeSymbols(body []byte) ([]symbol.Entries, error) {
	r := newReader(body)
	n := int(r.u32())
	out := make([]symbol.Entries, n)
	for i := 0; i < n; i++ {
		name := r.str()
		id := r.u32()
		out[i] = symbol.Entries{Name: name, ID: symbol.ID(id)}
	}
	if r.err != nil {
		return nil, r.err
	}
	return out, nil
}

// --- CAUS ---

func encodeCausal(c CausalChunk) []byte {
	var buf bytes.Buffer
	putF32(&buf, c.Decay)
	putU32(&buf, uint32(len(c.Base)))
	for _, e := range c.Base {
		putU32(&buf, uint32(e.Symbol))
		putF32(&buf, e.Count)
	}
	putU32(&buf, uint32(len(c.Edges)))
	for _, e := range c.Edges {
		putU64(&buf, e.Key)
		putF32(&buf, e.Count)
	}
	putU32(&buf, uint32(len(c.PrevSymbols)))
	for _, s := range c.PrevSymbols {
		putU32(&buf, uint32(s))
	}
	return buf.Bytes()
}

func decodeCausal(body []byte) (CausalChunk, error) {
	r := newReader(body)
	var c CausalChunk
	c.Decay = r.f32()
	baseN := int(r.u32())
	c.Base = make([]causal.BaseEntry, baseN)
	for i := range c.Base {
		c.Base[i] = causal.BaseEntry{Symbol: symbol.ID(r.u32()), Count: r.f32()}
	}
	edgeN := int(r.u32())
	c.Edges = make([]causal.EdgeEntry, edgeN)
	for i := range c.Edges {
		c.Edges[i] = causal.EdgeEntry{Key: r.u64(), Count: r.f32()}
	}
	prevN := int(r.u32())
	c.PrevSymbols = make([]symbol.ID, prevN)
	for i := range c.PrevSymbols {
		c.PrevSymbols[i] = symbol.ID(r.u32())
	}
	if r.err != nil {
		return CausalChunk{}, r.err
	}
	return c, nil
}
