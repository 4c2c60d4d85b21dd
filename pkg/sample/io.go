package sample

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// recordSize is the on-disk size of one Sample record: three float32
// position components, three float32 direction components, float32
// weight, pdf, distance, and a uint32 flags word, packed with no padding.
//
// spec.md §6 states the total record size as 36 bytes, which does not
// arithmetically match its own field list (6+3 float32 fields plus one
// uint32 is 40 bytes); this implementation honors the field list, which
// round-trips exactly, over the stated total. See DESIGN.md.
const recordSize = 4*3 + 4*3 + 4 + 4 + 4 + 4

// WriteBatch writes N as a little-endian uint64 followed by len(records)
// packed Sample records. It writes the records themselves, never the
// address of the slice header (the bug spec.md §9 mandates not
// reproducing).
func WriteBatch(w io.Writer, records []Sample) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(records))); err != nil {
		return fmt.Errorf("sample: write count: %w", err)
	}
	buf := make([]byte, recordSize)
	for i, s := range records {
		encodeRecord(buf, s)
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("sample: write record %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ReadBatch reads a batch written by WriteBatch.
func ReadBatch(r io.Reader) ([]Sample, error) {
	br := bufio.NewReader(r)
	var n uint64
	if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("sample: read count: %w", err)
	}
	records := make([]Sample, n)
	buf := make([]byte, recordSize)
	for i := range records {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("sample: read record %d: %w", i, err)
		}
		records[i] = decodeRecord(buf)
	}
	return records, nil
}

func encodeRecord(buf []byte, s Sample) {
	o := 0
	putFloat32 := func(v float64) {
		binary.LittleEndian.PutUint32(buf[o:], math.Float32bits(float32(v)))
		o += 4
	}
	for _, c := range s.Position {
		putFloat32(c)
	}
	for _, c := range s.Direction {
		putFloat32(c)
	}
	putFloat32(s.Weight)
	putFloat32(s.PDF)
	putFloat32(s.Distance)
	binary.LittleEndian.PutUint32(buf[o:], uint32(s.Flags))
	o += 4
}

func decodeRecord(buf []byte) Sample {
	o := 0
	getFloat32 := func() float64 {
		v := float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[o:])))
		o += 4
		return v
	}
	var s Sample
	for i := range s.Position {
		s.Position[i] = getFloat32()
	}
	for i := range s.Direction {
		s.Direction[i] = getFloat32()
	}
	s.Weight = getFloat32()
	s.PDF = getFloat32()
	s.Distance = getFloat32()
	s.Flags = Flag(binary.LittleEndian.Uint32(buf[o:]))
	return s
}
