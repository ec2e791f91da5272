package replacement

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"strings"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
)

// CompressionType represents the compression algorithm used for a history
type CompressionType uint8

const (
	CompressionNone   CompressionType = 0
	CompressionLZ4    CompressionType = 1
	CompressionSnappy CompressionType = 2
)

// String returns the configuration name of the compression type
func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionSnappy:
		return "snappy"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompressionType maps a configuration name to a CompressionType
func ParseCompressionType(name string) (CompressionType, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "snappy":
		return CompressionSnappy, nil
	default:
		return CompressionNone, fmt.Errorf("unsupported history compression: %s (must be none, lz4, or snappy)", name)
	}
}

// History header layout:
// [0-1]: Magic number (0x5053)
// [2]: Compression type (0=none, 1=LZ4, 2=Snappy)
// [3]: Reserved
// [4-7]: Uncompressed body size
// [8-11]: Compressed body size
// [12-15]: CRC32 of the uncompressed body
// [16+]: Body

const (
	HistoryMagic          = 0x5053
	HistoryHeaderSize     = 16
	MinCompressionSavings = 32       // Minimum bytes saved to keep a compressed body
	MaxHistoryBodySize    = 64 << 20 // Largest body DecodeHistory will allocate

	historyVersion = 1
	flagFault      = 1 << 0
)

// EncodeHistory serializes a result into a self-describing binary snapshot
func EncodeHistory(result *SimulationResult, compression CompressionType) ([]byte, error) {
	body := marshalHistoryBody(result)

	compressed, compression, err := compressBody(body, compression)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, HistoryHeaderSize+len(compressed))
	binary.LittleEndian.PutUint16(buf[0:2], HistoryMagic)
	buf[2] = uint8(compression)
	buf[3] = 0
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(body)))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(compressed)))
	binary.LittleEndian.PutUint32(buf[12:16], crc32.ChecksumIEEE(body))
	copy(buf[HistoryHeaderSize:], compressed)

	return buf, nil
}

// DecodeHistory restores a result written by EncodeHistory
func DecodeHistory(data []byte) (*SimulationResult, error) {
	const op = "DecodeHistory"

	if len(data) < HistoryHeaderSize {
		return nil, ErrHistoryCorrupted(op, fmt.Sprintf("data too short for history header: %d bytes", len(data)), nil)
	}

	magic := binary.LittleEndian.Uint16(data[0:2])
	if magic != HistoryMagic {
		return nil, ErrHistoryCorrupted(op, fmt.Sprintf("invalid magic number: got %04x, expected %04x", magic, HistoryMagic), nil)
	}

	compression := CompressionType(data[2])
	uncompressedSize := binary.LittleEndian.Uint32(data[4:8])
	compressedSize := binary.LittleEndian.Uint32(data[8:12])
	checksum := binary.LittleEndian.Uint32(data[12:16])

	if uncompressedSize > MaxHistoryBodySize {
		return nil, ErrHistoryCorrupted(op, fmt.Sprintf("history body too large: %d bytes", uncompressedSize), nil)
	}

	if uint64(HistoryHeaderSize)+uint64(compressedSize) > uint64(len(data)) {
		return nil, ErrHistoryCorrupted(op, fmt.Sprintf("insufficient data for history body: need %d bytes, have %d",
			HistoryHeaderSize+int(compressedSize), len(data)), nil)
	}

	body, err := decompressBody(data[HistoryHeaderSize:HistoryHeaderSize+int(compressedSize)], compression, int(uncompressedSize))
	if err != nil {
		return nil, ErrHistoryCorrupted(op, "body decompression failed", err)
	}

	if got := crc32.ChecksumIEEE(body); got != checksum {
		return nil, ErrHistoryCorrupted(op, fmt.Sprintf("checksum mismatch: got %08x, expected %08x", got, checksum), nil)
	}

	result, err := unmarshalHistoryBody(body)
	if err != nil {
		return nil, ErrHistoryCorrupted(op, "malformed history body", err)
	}
	return result, nil
}

func compressBody(body []byte, compression CompressionType) ([]byte, CompressionType, error) {
	var compressed []byte

	switch compression {
	case CompressionNone:
		return body, CompressionNone, nil

	case CompressionLZ4:
		compressed = make([]byte, lz4.CompressBlockBound(len(body)))
		n, err := lz4.CompressBlock(body, compressed, nil)
		if err != nil {
			return nil, CompressionNone, fmt.Errorf("LZ4 compression failed: %w", err)
		}
		// n == 0 means the block is incompressible
		if n == 0 {
			return body, CompressionNone, nil
		}
		compressed = compressed[:n]

	case CompressionSnappy:
		compressed = snappy.Encode(nil, body)

	default:
		return nil, CompressionNone, fmt.Errorf("unsupported compression type: %d", compression)
	}

	if len(body)-len(compressed) < MinCompressionSavings {
		return body, CompressionNone, nil
	}
	return compressed, compression, nil
}

func decompressBody(data []byte, compression CompressionType, size int) ([]byte, error) {
	switch compression {
	case CompressionNone:
		if len(data) != size {
			return nil, fmt.Errorf("body size mismatch: got %d, expected %d", len(data), size)
		}
		return data, nil

	case CompressionLZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("LZ4 decompression failed: %w", err)
		}
		if n != size {
			return nil, fmt.Errorf("LZ4 decompression size mismatch: got %d, expected %d", n, size)
		}
		return out, nil

	case CompressionSnappy:
		out, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("snappy decompression failed: %w", err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("snappy decompression size mismatch: got %d, expected %d", len(out), size)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported compression type: %d", compression)
	}
}

// Body layout (all integers varint encoded):
// version, algorithm (length-prefixed), frame count, total faults, step count,
// then per step: page, flags, replaced slot, evicted page,
// hit slot count + hit slots, frame count slots (EmptySlot = -1).

func marshalHistoryBody(result *SimulationResult) []byte {
	buf := make([]byte, 0, 64+len(result.Steps)*(6+result.FrameCount))

	buf = binary.AppendUvarint(buf, historyVersion)
	buf = binary.AppendUvarint(buf, uint64(len(result.Algorithm)))
	buf = append(buf, string(result.Algorithm)...)
	buf = binary.AppendUvarint(buf, uint64(result.FrameCount))
	buf = binary.AppendUvarint(buf, uint64(result.TotalFaults))
	buf = binary.AppendUvarint(buf, uint64(len(result.Steps)))

	for _, step := range result.Steps {
		buf = binary.AppendUvarint(buf, uint64(step.Page))
		var flags byte
		if step.IsFault {
			flags |= flagFault
		}
		buf = append(buf, flags)
		buf = binary.AppendVarint(buf, int64(step.ReplacedSlot))
		buf = binary.AppendVarint(buf, int64(step.EvictedPage))
		buf = binary.AppendUvarint(buf, uint64(len(step.HitSlots)))
		for _, slot := range step.HitSlots {
			buf = binary.AppendUvarint(buf, uint64(slot))
		}
		for _, page := range step.FramesAfter {
			buf = binary.AppendVarint(buf, int64(page))
		}
	}
	return buf
}

// bodyReader walks a history body, remembering the first error
type bodyReader struct {
	data []byte
	off  int
	err  error
}

func (r *bodyReader) uvarint() int {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.data[r.off:])
	if n <= 0 || v > math.MaxInt32 {
		r.err = fmt.Errorf("bad unsigned varint at offset %d", r.off)
		return 0
	}
	r.off += n
	return int(v)
}

func (r *bodyReader) varint() int {
	if r.err != nil {
		return 0
	}
	v, n := binary.Varint(r.data[r.off:])
	if n <= 0 || v < math.MinInt32 || v > math.MaxInt32 {
		r.err = fmt.Errorf("bad signed varint at offset %d", r.off)
		return 0
	}
	r.off += n
	return int(v)
}

func (r *bodyReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("need %d bytes at offset %d, have %d", n, r.off, len(r.data)-r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// count reads a length bounded by the remaining body, so a corrupt length
// cannot trigger a huge allocation
func (r *bodyReader) count() int {
	n := r.uvarint()
	if r.err == nil && n > len(r.data)-r.off {
		r.err = fmt.Errorf("count %d exceeds remaining %d bytes", n, len(r.data)-r.off)
		return 0
	}
	return n
}

func unmarshalHistoryBody(body []byte) (*SimulationResult, error) {
	r := &bodyReader{data: body}

	if version := r.uvarint(); r.err == nil && version != historyVersion {
		return nil, fmt.Errorf("unsupported history version %d", version)
	}

	result := &SimulationResult{}
	result.Algorithm = Algorithm(r.bytes(r.count()))
	result.FrameCount = r.count()
	result.TotalFaults = r.uvarint()
	stepCount := r.count()
	if r.err != nil {
		return nil, r.err
	}

	result.References = make([]int, 0, stepCount)
	result.Steps = make([]Step, 0, stepCount)
	for i := 0; i < stepCount && r.err == nil; i++ {
		step := Step{Index: i + 1}
		step.Page = r.uvarint()
		flags := r.bytes(1)
		if len(flags) == 1 {
			step.IsFault = flags[0]&flagFault != 0
		}
		step.ReplacedSlot = r.varint()
		step.EvictedPage = r.varint()

		hits := r.count()
		step.HitSlots = make([]int, 0, hits)
		for j := 0; j < hits && r.err == nil; j++ {
			step.HitSlots = append(step.HitSlots, r.uvarint())
		}

		step.FramesAfter = make(FrameState, result.FrameCount)
		for j := range step.FramesAfter {
			step.FramesAfter[j] = r.varint()
		}

		result.References = append(result.References, step.Page)
		result.Steps = append(result.Steps, step)
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(body) {
		return nil, fmt.Errorf("%d trailing bytes", len(body)-r.off)
	}
	return result, nil
}
