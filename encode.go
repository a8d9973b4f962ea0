package hdrhistogram

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Serialized form: a 17-byte header carrying the three construction
// parameters (two big-endian uint64s plus one byte of significant digits),
// followed by the counter array as signed LEB128 varints. The counter array
// length is not stored; Decode re-derives it from the header. A positive
// varint is a literal count, a negative varint -k is a run of k empty slots.
const encodedHeaderLen = 8 + 8 + 1

// Encode writes the histogram to w in the serialized form above. Writes are
// buffered and flushed before returning; an error from w may leave a partial
// stream behind, but the histogram itself is never modified.
func (h *Histogram) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)

	var header [encodedHeaderLen]byte
	binary.BigEndian.PutUint64(header[0:8], uint64(h.lowestDiscernible))
	binary.BigEndian.PutUint64(header[8:16], uint64(h.highestTrackable))
	header[16] = byte(h.significantDigits)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("writing histogram header: %w", err)
	}

	if err := writeCounts(bw, h.counts); err != nil {
		return fmt.Errorf("writing histogram counts: %w", err)
	}
	return bw.Flush()
}

// Decode reads a histogram previously written by Encode. The bucket layout
// is rebuilt from the header, so the result is Merge-compatible with the
// original.
func Decode(r io.Reader) (*Histogram, error) {
	var header [encodedHeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("reading histogram header: %w", err)
	}

	h, err := New(
		int64(binary.BigEndian.Uint64(header[0:8])),
		int64(binary.BigEndian.Uint64(header[8:16])),
		int(header[16]),
	)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(r)
	idx := 0
	for idx < len(h.counts) {
		v, err := readILEB128(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading histogram counts: %w", err)
		}
		if v < 0 {
			idx += int(-v)
			continue
		}
		h.counts[idx] = v
		h.totalCount += v
		idx++
	}
	if idx > len(h.counts) {
		return nil, fmt.Errorf("malformed counter stream: %d slots for a layout of %d", idx, len(h.counts))
	}
	return h, nil
}

// writeCounts emits the counter array with zero runs collapsed into a single
// negative varint each.
func writeCounts(w *bufio.Writer, counts []int64) error {
	buf := make([]byte, 0, 10)
	var zeros int64
	for _, c := range counts {
		if c == 0 {
			zeros++
			continue
		}
		buf = buf[:0]
		if zeros > 0 {
			buf = appendILEB128(buf, -zeros)
			zeros = 0
		}
		buf = appendILEB128(buf, c)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	if zeros > 0 {
		if _, err := w.Write(appendILEB128(buf[:0], -zeros)); err != nil {
			return err
		}
	}
	return nil
}

// appendILEB128 appends v as a signed little-endian base-128 varint: 7 bits
// per byte, high bit marking continuation, the last group sign-extended.
func appendILEB128(buf []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}

// readILEB128 reads one signed varint. io.EOF is returned untouched only at
// a group boundary; inside a group it becomes io.ErrUnexpectedEOF.
func readILEB128(r io.ByteReader) (int64, error) {
	var result int64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && shift > 0 {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		if shift > 63 {
			return 0, fmt.Errorf("varint exceeds 64 bits")
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				result |= -1 << shift
			}
			return result, nil
		}
	}
}
