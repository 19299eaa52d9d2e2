package bitstream

import (
	"math"
	"math/bits"
	"slices"
)

// Encoder appends bits and bytes to a growing buffer. It is a
// single-owner, non-thread-safe object: one Encoder per encode() call,
// exactly as spec.md §5 requires ("no global mutable singletons...
// scoped to a single encode or decode call").
type Encoder struct {
	buf      []byte
	pending  byte
	pendBits int // number of valid bits already packed into pending (0-7)
	bitOrder BitOrder

	// dict is the compression dictionary back_reference encoding uses to
	// deduplicate previously-written values: structural key -> byte
	// offset at which the full value was first written (spec.md §4.4).
	dict map[uint64]uint32

	// arrayPositions/arrayIndex back the same_index/corresponding and
	// first<T>/last<T> computed-field selectors (spec.md §4.3): keyed by
	// "<arrayField>.<Type>", arrayPositions records the byte offset of
	// each item of that type as it is written, arrayIndex is a parallel
	// write counter.
	arrayPositions map[string][]uint32
	arrayIndex     map[string]int

	// iterStack tracks the array-iteration context so a corresponding<T>
	// selector encoded mid-iteration can resolve "the element at the
	// current index" (spec.md §4.4).
	iterStack []iterFrame
}

type iterFrame struct {
	key   string
	index int
}

// NewEncoder returns an empty Encoder using the given bit order for
// sub-byte packing.
func NewEncoder(bitOrder BitOrder) *Encoder {
	return &Encoder{bitOrder: bitOrder}
}

// ByteOffset returns the number of currently-complete bytes in the
// buffer. A partially-filled pending byte is not counted — this is the
// offset used for back-reference dictionary entries and position_of.
func (e *Encoder) ByteOffset() uint32 {
	return uint32(len(e.buf))
}

// Finish flushes any partial byte (zero-padded in the configured bit
// order) and returns the accumulated buffer.
func (e *Encoder) Finish() []byte {
	if e.pendBits > 0 {
		e.buf = append(e.buf, e.pending)
		e.pending = 0
		e.pendBits = 0
	}
	return slices.Clip(e.buf)
}

// WriteBits masks v to n bits (1 <= n <= 64) and writes them in
// value-order: LSB-first if the configured bit order is LSB-first, else
// MSB-first of the value. Byte-level packing obeys the same bit order
// (fill from the left when MSB-first, from the right when LSB-first).
func (e *Encoder) WriteBits(v uint64, n int) error {
	if n < 1 || n > 64 {
		return ErrBitSize
	}
	if n < 64 {
		v &= (uint64(1) << uint(n)) - 1
	}

	for n > 0 {
		var bit uint64
		if e.bitOrder == LSBFirst {
			bit = v & 1
			v >>= 1
		} else {
			bit = (v >> uint(n-1)) & 1
		}
		n--

		if e.bitOrder == LSBFirst {
			e.pending |= byte(bit) << uint(e.pendBits)
		} else {
			e.pending |= byte(bit) << uint(7-e.pendBits)
		}
		e.pendBits++

		if e.pendBits == 8 {
			e.buf = append(e.buf, e.pending)
			e.pending = 0
			e.pendBits = 0
		}
	}
	return nil
}

// WriteUint8 is the byte-aligned fast path: when the stream is
// byte-aligned it appends v directly; otherwise it falls back to 8 LSB-
// first bits regardless of the configured bit order, which is the
// established wire contract for byte values straddling a bit boundary.
func (e *Encoder) WriteUint8(v uint8) {
	if e.pendBits == 0 {
		e.buf = append(e.buf, v)
		return
	}
	order := e.bitOrder
	e.bitOrder = LSBFirst
	_ = e.WriteBits(uint64(v), 8)
	e.bitOrder = order
}

func (e *Encoder) writeWidth(v uint64, width int, end Endianness) {
	b := make([]byte, width)
	if end == BigEndian {
		for i := width - 1; i >= 0; i-- {
			b[i] = byte(v)
			v >>= 8
		}
	} else {
		for i := 0; i < width; i++ {
			b[i] = byte(v)
			v >>= 8
		}
	}
	for _, byt := range b {
		e.WriteUint8(byt)
	}
}

func (e *Encoder) WriteUint16(v uint16, end Endianness) { e.writeWidth(uint64(v), 2, end) }
func (e *Encoder) WriteUint32(v uint32, end Endianness) { e.writeWidth(uint64(v), 4, end) }
func (e *Encoder) WriteUint64(v uint64, end Endianness) { e.writeWidth(v, 8, end) }

func (e *Encoder) WriteInt8(v int8)                   { e.WriteUint8(uint8(v)) }
func (e *Encoder) WriteInt16(v int16, end Endianness) { e.writeWidth(uint64(uint16(v)), 2, end) }
func (e *Encoder) WriteInt32(v int32, end Endianness) { e.writeWidth(uint64(uint32(v)), 4, end) }
func (e *Encoder) WriteInt64(v int64, end Endianness) { e.writeWidth(uint64(v), 8, end) }

func (e *Encoder) WriteFloat32(v float32, end Endianness) {
	e.writeWidth(uint64(math.Float32bits(v)), 4, end)
}

func (e *Encoder) WriteFloat64(v float64, end Endianness) {
	e.writeWidth(math.Float64bits(v), 8, end)
}

// WriteDER writes v in DER length form: short-form 0-127 as a single
// byte, else 0x80|N followed by N big-endian bytes (N minimal, no
// leading zero byte).
func (e *Encoder) WriteDER(v uint64) error {
	if v < 0x80 {
		e.WriteUint8(uint8(v))
		return nil
	}
	n := (bits.Len64(v) + 7) / 8
	if n > 8 {
		return ErrDERTooLong
	}
	e.WriteUint8(0x80 | uint8(n))
	for i := n - 1; i >= 0; i-- {
		e.WriteUint8(uint8(v >> uint(i*8)))
	}
	return nil
}

// WriteLEB128 writes v as unsigned LEB128: 7-bit little-endian groups,
// continuation flagged by the MSB of each byte.
func (e *Encoder) WriteLEB128(v uint64) {
	for {
		b := uint8(v & 0x7F)
		v >>= 7
		if v != 0 {
			e.WriteUint8(b | 0x80)
			continue
		}
		e.WriteUint8(b)
		return
	}
}

func ebmlWidth(v uint64) int {
	for w := 1; w <= 8; w++ {
		if v < (uint64(1) << uint(7*w)) {
			return w
		}
	}
	return 9
}

// WriteEBMLVint writes v as an EBML/Matroska variable-width integer: a
// leading zero run indicates the width, the first 1-bit is the marker,
// and the remaining bits (big-endian) are the value.
func (e *Encoder) WriteEBMLVint(v uint64) error {
	w := ebmlWidth(v)
	if w > 8 {
		return ErrEBMLOverflow
	}
	rep := v | (uint64(1) << uint(7*w))
	for i := w - 1; i >= 0; i-- {
		e.WriteUint8(uint8(rep >> uint(i*8)))
	}
	return nil
}

// --- compression dictionary (back_reference dedup) ---

// DictLookup returns the byte offset previously recorded under key, if
// any.
func (e *Encoder) DictLookup(key uint64) (uint32, bool) {
	if e.dict == nil {
		return 0, false
	}
	off, ok := e.dict[key]
	return off, ok
}

// DictRecord records that the value hashing to key was (or will be)
// written starting at the encoder's current byte offset.
func (e *Encoder) DictRecord(key uint64) {
	if e.dict == nil {
		e.dict = make(map[uint64]uint32)
	}
	e.dict[key] = e.ByteOffset()
}

// --- same_index / corresponding / first<T> / last<T> tables ---

// RecordTypedArrayPosition appends the encoder's current byte offset to
// the per-(arrayField,Type) position table named by key and returns the
// index it was recorded at.
func (e *Encoder) RecordTypedArrayPosition(key string) int {
	if e.arrayPositions == nil {
		e.arrayPositions = make(map[string][]uint32)
		e.arrayIndex = make(map[string]int)
	}
	idx := e.arrayIndex[key]
	e.arrayIndex[key] = idx + 1
	e.arrayPositions[key] = append(e.arrayPositions[key], e.ByteOffset())
	return idx
}

// TypedArrayFirst returns the first recorded offset for key, or
// 0xFFFFFFFF if none were ever recorded — matching the first<T>/last<T>
// "returns 0xFFFFFFFF when absent" contract.
func (e *Encoder) TypedArrayFirst(key string) uint32 {
	list := e.arrayPositions[key]
	if len(list) == 0 {
		return 0xFFFFFFFF
	}
	return list[0]
}

// TypedArrayLast mirrors TypedArrayFirst for the last recorded offset.
func (e *Encoder) TypedArrayLast(key string) uint32 {
	list := e.arrayPositions[key]
	if len(list) == 0 {
		return 0xFFFFFFFF
	}
	return list[len(list)-1]
}

// TypedArrayAt returns the offset recorded at position idx in the table
// named key, or (0xFFFFFFFF, false) if idx is out of range.
func (e *Encoder) TypedArrayAt(key string, idx int) (uint32, bool) {
	list := e.arrayPositions[key]
	if idx < 0 || idx >= len(list) {
		return 0xFFFFFFFF, false
	}
	return list[idx], true
}

// EnterArrayIteration pushes a new iteration context for the array field
// named key, used by corresponding<T> resolution while that array is
// being encoded.
func (e *Encoder) EnterArrayIteration(key string) {
	e.iterStack = append(e.iterStack, iterFrame{key: key})
}

// AdvanceArrayIteration increments the current index of the innermost
// iteration context matching key.
func (e *Encoder) AdvanceArrayIteration(key string) {
	for i := len(e.iterStack) - 1; i >= 0; i-- {
		if e.iterStack[i].key == key {
			e.iterStack[i].index++
			return
		}
	}
}

// ExitArrayIteration pops the innermost iteration context matching key.
func (e *Encoder) ExitArrayIteration(key string) {
	for i := len(e.iterStack) - 1; i >= 0; i-- {
		if e.iterStack[i].key == key {
			e.iterStack = append(e.iterStack[:i], e.iterStack[i+1:]...)
			return
		}
	}
}

// CurrentArrayIterationIndex returns the current index of the innermost
// iteration context matching key, or an error if key is not currently
// being iterated (spec.md §4.4: corresponding<T> encoded outside array
// context must fail with a clear message).
func (e *Encoder) CurrentArrayIterationIndex(key string) (int, error) {
	for i := len(e.iterStack) - 1; i >= 0; i-- {
		if e.iterStack[i].key == key {
			return e.iterStack[i].index, nil
		}
	}
	return 0, ErrNotIterating
}
