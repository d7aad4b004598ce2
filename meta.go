package shp

import (
	"encoding/binary"
	"math"
)

const (
	SPACE = 0x20
	EOF   = 0x1A
	NUL   = 0x00

	// fieldTerminator closes the field descriptor table of a DBF header.
	fieldTerminator = 0x0D
	deletedFlag     = '*'

	dbfVersion = 0x03

	fileCode    = 9994
	fileVersion = 1000

	shpHeaderLength  = 100
	dbfHeaderLength  = 32
	descriptorLength = 32
	recordHeaderLen  = 8
	shxEntryLength   = 8
)

// DBFHeader represents the structure of the DBF file header.
type DBFHeader struct {
	Version          byte
	LastUpdateYear   byte
	LastUpdateMonth  byte
	LastUpdateDay    byte
	NumRecords       uint32
	HeaderLength     uint16
	RecordLength     uint16
	Reserved         [2]byte
	Flag             byte
	EncryptFlag      byte
	Reserved2        [12]byte
	MDXFlag          byte
	LanguageDriverID byte
	Reserved3        [2]byte
}

// fieldDescriptor is the on-disk layout of one entry of the field table.
type fieldDescriptor struct {
	Name     [11]byte
	Type     byte
	Address  [4]byte
	Length   byte
	Decimal  byte
	Reserved [14]byte
}

// Header is the fixed 100-byte header shared by .shp and .shx files.
type Header struct {
	ShapeType ShapeType
	// FileLength is the file size in bytes.
	FileLength int64
	Box        Box
}

func (h *Header) marshal() []byte {
	buf := make([]byte, shpHeaderLength)
	binary.BigEndian.PutUint32(buf[0:], fileCode)
	binary.BigEndian.PutUint32(buf[24:], uint32(h.FileLength/2))
	binary.LittleEndian.PutUint32(buf[28:], fileVersion)
	binary.LittleEndian.PutUint32(buf[32:], uint32(h.ShapeType))
	putFloats(buf[36:], h.Box.MinX, h.Box.MinY, h.Box.MaxX, h.Box.MaxY,
		h.Box.MinZ, h.Box.MaxZ, h.Box.MinM, h.Box.MaxM)
	return buf
}

func (h *Header) unmarshal(buf []byte) error {
	if len(buf) < shpHeaderLength {
		return ErrMalformedHeader
	}
	if binary.BigEndian.Uint32(buf[0:]) != fileCode {
		return ErrMalformedHeader
	}
	h.FileLength = int64(binary.BigEndian.Uint32(buf[24:])) * 2
	h.ShapeType = ShapeType(binary.LittleEndian.Uint32(buf[32:]))
	if !h.ShapeType.valid() {
		return ErrUnknownShapeType
	}
	f := getFloats(buf[36:], 8)
	h.Box = Box{
		MinX: f[0], MinY: f[1], MaxX: f[2], MaxY: f[3],
		MinZ: f[4], MaxZ: f[5], MinM: f[6], MaxM: f[7],
	}
	return nil
}

func putFloats(buf []byte, vals ...float64) {
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
}

func getFloats(buf []byte, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out
}
