package bitstream

import (
	"slices"
	"testing"
)

func TestBitOrderDuality(t *testing.T) {
	for _, order := range []BitOrder{MSBFirst, LSBFirst} {
		for n := 1; n <= 64; n++ {
			var v uint64
			if n == 64 {
				v = 0xDEADBEEFCAFEBABE
			} else {
				v = (uint64(1) << uint(n)) - 1 // all-ones of width n
			}

			e := NewEncoder(order)
			if err := e.WriteBits(v, n); err != nil {
				t.Fatalf("order=%v n=%d: WriteBits: %v", order, n, err)
			}
			buf := e.Finish()

			d := NewDecoder(buf, order)
			got, err := d.ReadBits(n)
			if err != nil {
				t.Fatalf("order=%v n=%d: ReadBits: %v", order, n, err)
			}

			var want uint64
			if n < 64 {
				want = v & ((uint64(1) << uint(n)) - 1)
			} else {
				want = v
			}
			if got != want {
				t.Errorf("order=%v n=%d: got %#x want %#x", order, n, got, want)
			}
		}
	}
}

func TestInvalidBitSize(t *testing.T) {
	e := NewEncoder(MSBFirst)
	if err := e.WriteBits(1, 0); err != ErrBitSize {
		t.Errorf("expected ErrBitSize for n=0, got %v", err)
	}
	if err := e.WriteBits(1, 65); err != ErrBitSize {
		t.Errorf("expected ErrBitSize for n=65, got %v", err)
	}
}

func TestEndiannessDuality(t *testing.T) {
	for _, end := range []Endianness{BigEndian, LittleEndian} {
		e := NewEncoder(MSBFirst)
		e.WriteUint16(0x1234, end)
		e.WriteUint32(0xDEADBEEF, end)
		e.WriteUint64(0x0102030405060708, end)
		e.WriteInt16(-1, end)
		e.WriteInt32(-2, end)
		e.WriteInt64(-3, end)
		e.WriteFloat32(1.5, end)
		e.WriteFloat64(2.5, end)
		buf := e.Finish()

		d := NewDecoder(buf, MSBFirst)
		if v, _ := d.ReadUint16(end); v != 0x1234 {
			t.Errorf("end=%v uint16: got %#x", end, v)
		}
		if v, _ := d.ReadUint32(end); v != 0xDEADBEEF {
			t.Errorf("end=%v uint32: got %#x", end, v)
		}
		if v, _ := d.ReadUint64(end); v != 0x0102030405060708 {
			t.Errorf("end=%v uint64: got %#x", end, v)
		}
		if v, _ := d.ReadInt16(end); v != -1 {
			t.Errorf("end=%v int16: got %d", end, v)
		}
		if v, _ := d.ReadInt32(end); v != -2 {
			t.Errorf("end=%v int32: got %d", end, v)
		}
		if v, _ := d.ReadInt64(end); v != -3 {
			t.Errorf("end=%v int64: got %d", end, v)
		}
		if v, _ := d.ReadFloat32(end); v != 1.5 {
			t.Errorf("end=%v float32: got %v", end, v)
		}
		if v, _ := d.ReadFloat64(end); v != 2.5 {
			t.Errorf("end=%v float64: got %v", end, v)
		}
	}
}

func TestUint8StraddlesBitBoundary(t *testing.T) {
	e := NewEncoder(MSBFirst)
	e.WriteBits(0x1, 4) // leaves the stream unaligned
	e.WriteUint8(0xAB)  // must fall back to 8 LSB-first bits per spec
	buf := e.Finish()

	d := NewDecoder(buf, MSBFirst)
	d.ReadBits(4)
	got, err := d.ReadUint8()
	if err != nil {
		t.Fatalf("ReadUint8: %v", err)
	}
	if got != 0xAB {
		t.Errorf("got %#x want %#x", got, 0xAB)
	}
}

func TestSensorReadingFixedRecord(t *testing.T) {
	// spec.md §8 scenario 1
	e := NewEncoder(MSBFirst)
	e.WriteUint16(0x1234, BigEndian)
	e.WriteFloat32(1.5, BigEndian)
	e.WriteUint8(50)
	e.WriteUint32(1_000_000, BigEndian)
	buf := e.Finish()

	if len(buf) != 11 {
		t.Fatalf("expected 11 bytes, got %d", len(buf))
	}
	if buf[0] != 0x12 || buf[1] != 0x34 {
		t.Errorf("expected first two bytes 0x12 0x34, got %#x %#x", buf[0], buf[1])
	}

	d := NewDecoder(buf, MSBFirst)
	deviceID, _ := d.ReadUint16(BigEndian)
	temp, _ := d.ReadFloat32(BigEndian)
	humidity, _ := d.ReadUint8()
	ts, _ := d.ReadUint32(BigEndian)

	if deviceID != 0x1234 || temp != 1.5 || humidity != 50 || ts != 1_000_000 {
		t.Errorf("round-trip mismatch: %#x %v %v %v", deviceID, temp, humidity, ts)
	}
}

func TestDERVarint(t *testing.T) {
	cases := []uint64{0, 1, 0x7F, 0x80, 0xFF, 0x1234, 0xFFFFFFFF, 0x1_0000_0000}
	for _, v := range cases {
		e := NewEncoder(MSBFirst)
		if err := e.WriteDER(v); err != nil {
			t.Fatalf("WriteDER(%d): %v", v, err)
		}
		buf := e.Finish()

		d := NewDecoder(buf, MSBFirst)
		got, err := d.ReadDER()
		if err != nil {
			t.Fatalf("ReadDER(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("DER round-trip: got %d want %d", got, v)
		}
	}
}

func TestLEB128Varint(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 1 << 40, ^uint64(0)}
	for _, v := range cases {
		e := NewEncoder(MSBFirst)
		e.WriteLEB128(v)
		buf := e.Finish()

		d := NewDecoder(buf, MSBFirst)
		got, err := d.ReadLEB128()
		if err != nil {
			t.Fatalf("ReadLEB128(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("LEB128 round-trip: got %d want %d", got, v)
		}
	}
}

func TestEBMLVarint(t *testing.T) {
	cases := []uint64{0, 1, 0x7E, 0x3FFE, 1 << 20, (uint64(1) << 56) - 2}
	for _, v := range cases {
		e := NewEncoder(MSBFirst)
		if err := e.WriteEBMLVint(v); err != nil {
			t.Fatalf("WriteEBMLVint(%d): %v", v, err)
		}
		buf := e.Finish()

		d := NewDecoder(buf, MSBFirst)
		got, err := d.ReadEBMLVint()
		if err != nil {
			t.Fatalf("ReadEBMLVint(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("EBML round-trip: got %d want %d", got, v)
		}
	}
}

func TestEBMLNoMarker(t *testing.T) {
	d := NewDecoder([]byte{0x00, 0x00}, MSBFirst)
	if _, err := d.ReadEBMLVint(); err != ErrEBMLNoMarker {
		t.Errorf("expected ErrEBMLNoMarker, got %v", err)
	}
}

func TestPositionStackCap(t *testing.T) {
	d := NewDecoder(make([]byte, 1024), MSBFirst)
	for i := 0; i < maxPositionStack; i++ {
		if err := d.PushPosition(); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if err := d.PushPosition(); err != ErrStackOverflow {
		t.Errorf("expected ErrStackOverflow at depth 129, got %v", err)
	}
}

func TestPositionStackUnderflow(t *testing.T) {
	d := NewDecoder(make([]byte, 8), MSBFirst)
	if err := d.PopPosition(); err != ErrStackUnderflow {
		t.Errorf("expected ErrStackUnderflow, got %v", err)
	}
}

func TestSeekRestoresPositionAfterPointer(t *testing.T) {
	// spec.md §8 "Position safety"
	d := NewDecoder(make([]byte, 1024), MSBFirst)
	d.Seek(100)
	if err := d.PushPosition(); err != nil {
		t.Fatal(err)
	}
	d.Seek(5)
	d.ReadUint8()
	if err := d.PopPosition(); err != nil {
		t.Fatal(err)
	}
	if d.ByteOffset() != 100 {
		t.Errorf("expected restored offset 100, got %d", d.ByteOffset())
	}
}

func TestBackRefCycleDetection(t *testing.T) {
	d := NewDecoder(make([]byte, 8), MSBFirst)
	if err := d.BeginBackRef(4); err != nil {
		t.Fatal(err)
	}
	if err := d.BeginBackRef(4); err != ErrCircularBackRef {
		t.Errorf("expected ErrCircularBackRef, got %v", err)
	}
	d.EndBackRef(4)
	if err := d.BeginBackRef(4); err != nil {
		t.Errorf("re-entering after EndBackRef must succeed, got %v", err)
	}
}

func TestPeekRequiresAlignment(t *testing.T) {
	e := NewEncoder(MSBFirst)
	e.WriteBits(1, 4)
	buf := e.Finish()

	d := NewDecoder(buf, MSBFirst)
	d.ReadBits(4)
	if _, err := d.PeekUint8(); err != ErrUnalignedPeek {
		t.Errorf("expected ErrUnalignedPeek, got %v", err)
	}
}

func TestTypedArrayPositionTable(t *testing.T) {
	e := NewEncoder(MSBFirst)
	e.EnterArrayIteration("items")

	idx0 := e.RecordTypedArrayPosition("items.Foo")
	e.WriteUint8(0xAA)
	e.AdvanceArrayIteration("items")

	idx1 := e.RecordTypedArrayPosition("items.Foo")
	e.WriteUint8(0xBB)
	e.AdvanceArrayIteration("items")

	e.ExitArrayIteration("items")

	if idx0 != 0 || idx1 != 1 {
		t.Errorf("expected indices 0,1 got %d,%d", idx0, idx1)
	}
	if e.TypedArrayFirst("items.Foo") != 0 {
		t.Errorf("expected first offset 0, got %d", e.TypedArrayFirst("items.Foo"))
	}
	if e.TypedArrayLast("items.Foo") != 1 {
		t.Errorf("expected last offset 1, got %d", e.TypedArrayLast("items.Foo"))
	}
	if e.TypedArrayFirst("items.Missing") != 0xFFFFFFFF {
		t.Errorf("expected sentinel 0xFFFFFFFF for absent table")
	}
}

func TestCorrespondingOutsideIterationFails(t *testing.T) {
	e := NewEncoder(MSBFirst)
	if _, err := e.CurrentArrayIterationIndex("items"); err != ErrNotIterating {
		t.Errorf("expected ErrNotIterating, got %v", err)
	}
}

func TestStructuralKeyDictionary(t *testing.T) {
	e := NewEncoder(MSBFirst)
	payload := []byte{1, 2, 3, 4}
	key := StructuralKey(payload)

	if _, ok := e.DictLookup(key); ok {
		t.Fatal("dictionary must start empty")
	}
	e.DictRecord(key)
	off, ok := e.DictLookup(key)
	if !ok || off != 0 {
		t.Errorf("expected offset 0 recorded, got %d ok=%v", off, ok)
	}
}

func TestFinishFlushesPartialByteZeroPadded(t *testing.T) {
	e := NewEncoder(MSBFirst)
	e.WriteBits(0b101, 3)
	buf := e.Finish()
	if !slices.Equal(buf, []byte{0b10100000}) {
		t.Errorf("got %08b want %08b", buf[0], byte(0b10100000))
	}
}
