package segment

import (
	"encoding/binary"
	"math"
)

// BlockHeaderSize is the encoded size of a block header.
const BlockHeaderSize = 12

// PointSize is the encoded size of one point payload.
const PointSize = 8

// BlockHeader precedes a run of Point values sharing one metric/series.
type BlockHeader struct {
	MetricID   uint16
	SeriesID   uint16
	StartTS    uint32
	PointCount uint32
}

func (h BlockHeader) encode() [BlockHeaderSize]byte {
	var buf [BlockHeaderSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], h.MetricID)
	binary.LittleEndian.PutUint16(buf[2:4], h.SeriesID)
	binary.LittleEndian.PutUint32(buf[4:8], h.StartTS)
	binary.LittleEndian.PutUint32(buf[8:12], h.PointCount)
	return buf
}

func decodeBlockHeader(buf []byte) BlockHeader {
	return BlockHeader{
		MetricID:   binary.LittleEndian.Uint16(buf[0:2]),
		SeriesID:   binary.LittleEndian.Uint16(buf[2:4]),
		StartTS:    binary.LittleEndian.Uint32(buf[4:8]),
		PointCount: binary.LittleEndian.Uint32(buf[8:12]),
	}
}

// DecodeBlockHeader decodes a BlockHeader from its on-flash encoding,
// for readers (like a query path) scanning a segment's pre-header
// region directly rather than through an Appender.
func DecodeBlockHeader(buf []byte) BlockHeader { return decodeBlockHeader(buf) }

// Point is one on-flash sample: a Unix-seconds timestamp and a float32 value.
type Point struct {
	TS    uint32
	Value float32
}

func (p Point) encode() [PointSize]byte {
	var buf [PointSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], p.TS)
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(p.Value))
	return buf
}

func decodePoint(buf []byte) Point {
	return Point{
		TS:    binary.LittleEndian.Uint32(buf[0:4]),
		Value: math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])),
	}
}

// DecodePoint decodes a Point from its on-flash encoding.
func DecodePoint(buf []byte) Point { return decodePoint(buf) }
