package suffstats

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// statisticsVersion is written ahead of the payload so a future format
// change can be detected on read rather than silently misparsed.
const statisticsVersion uint32 = 1

// Encode writes s in declared-field order as fixed-width little-endian
// values: version, K, the three per-component arrays (only the first K
// entries of each), then the four totals.
func (s *Statistics) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fields := []interface{}{
		statisticsVersion,
		uint32(s.K),
	}
	for _, v := range fields {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("suffstats: encode header: %w", err)
		}
	}
	for k := 0; k < s.K; k++ {
		if err := binary.Write(bw, binary.LittleEndian, s.GammaSum[k]); err != nil {
			return fmt.Errorf("suffstats: encode gammaSum[%d]: %w", k, err)
		}
		if err := binary.Write(bw, binary.LittleEndian, s.VectorMoment[k]); err != nil {
			return fmt.Errorf("suffstats: encode vectorMoment[%d]: %w", k, err)
		}
		if err := binary.Write(bw, binary.LittleEndian, s.InvDistMoment[k]); err != nil {
			return fmt.Errorf("suffstats: encode invDistMoment[%d]: %w", k, err)
		}
	}
	totals := []interface{}{s.TotalResponsibility, s.TotalWeight, s.N, s.B}
	for _, v := range totals {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("suffstats: encode totals: %w", err)
		}
	}
	return bw.Flush()
}

// Decode reads a Statistics written by Encode. It returns
// ErrSerializationMismatch-compatible errors (via fmt.Errorf with %w) when
// the version or component count fail sanity bounds.
func Decode(r io.Reader) (*Statistics, error) {
	br := bufio.NewReader(r)
	var version, k uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("suffstats: decode version: %w", err)
	}
	if version != statisticsVersion {
		return nil, fmt.Errorf("suffstats: %w: version %d", ErrSerializationMismatch, version)
	}
	if err := binary.Read(br, binary.LittleEndian, &k); err != nil {
		return nil, fmt.Errorf("suffstats: decode K: %w", err)
	}
	if k > MaxComponents {
		return nil, fmt.Errorf("suffstats: %w: component count %d exceeds %d", ErrSerializationMismatch, k, MaxComponents)
	}

	s := &Statistics{K: int(k)}
	for i := 0; i < s.K; i++ {
		if err := binary.Read(br, binary.LittleEndian, &s.GammaSum[i]); err != nil {
			return nil, fmt.Errorf("suffstats: decode gammaSum[%d]: %w", i, err)
		}
		if err := binary.Read(br, binary.LittleEndian, &s.VectorMoment[i]); err != nil {
			return nil, fmt.Errorf("suffstats: decode vectorMoment[%d]: %w", i, err)
		}
		if err := binary.Read(br, binary.LittleEndian, &s.InvDistMoment[i]); err != nil {
			return nil, fmt.Errorf("suffstats: decode invDistMoment[%d]: %w", i, err)
		}
	}
	if err := binary.Read(br, binary.LittleEndian, &s.TotalResponsibility); err != nil {
		return nil, fmt.Errorf("suffstats: decode totalResponsibility: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, &s.TotalWeight); err != nil {
		return nil, fmt.Errorf("suffstats: decode totalWeight: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, &s.N); err != nil {
		return nil, fmt.Errorf("suffstats: decode N: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, &s.B); err != nil {
		return nil, fmt.Errorf("suffstats: decode B: %w", err)
	}
	if !s.Valid() {
		return nil, fmt.Errorf("suffstats: %w: non-finite sums after decode", ErrSerializationMismatch)
	}
	return s, nil
}
