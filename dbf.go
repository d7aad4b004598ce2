package shp

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// dbfFile is an attribute file opened for reading. Records are fetched
// with ReadAt, so reads do not depend on a shared file offset.
type dbfFile struct {
	fileName string
	f        *os.File
	fileSize int64
	header   DBFHeader
	schema   Schema
}

func openDBF(fileName string, conf *config) (*dbfFile, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "opening attribute file")
	}
	fileStat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "opening attribute file")
	}
	dbf := &dbfFile{
		fileName: fileName,
		f:        f,
		fileSize: fileStat.Size(),
	}
	if err := dbf.initMetaData(conf); err != nil {
		_ = f.Close()
		return nil, err
	}
	glog.V(2).Infof("opened %s: %d records of %d bytes, %d fields",
		fileName, dbf.header.NumRecords, dbf.header.RecordLength, len(dbf.schema))
	return dbf, nil
}

func (dbf *dbfFile) initMetaData(conf *config) error {
	if err := dbf.initHeader(); err != nil {
		return err
	}
	return dbf.initFields(conf)
}

func (dbf *dbfFile) initHeader() error {
	sr := io.NewSectionReader(dbf.f, 0, dbfHeaderLength)
	if err := binary.Read(sr, binary.LittleEndian, &dbf.header); err != nil {
		return errors.Wrapf(ErrMalformedHeader, "%s: reading header: %v", dbf.fileName, err)
	}
	if dbf.header.HeaderLength < dbfHeaderLength+1 || dbf.header.RecordLength < 1 ||
		int64(dbf.header.HeaderLength) > dbf.fileSize {
		return errors.Wrapf(ErrMalformedHeader, "%s: header length %d, record length %d",
			dbf.fileName, dbf.header.HeaderLength, dbf.header.RecordLength)
	}
	return nil
}

func (dbf *dbfFile) initFields(conf *config) error {
	table := make([]byte, int(dbf.header.HeaderLength)-dbfHeaderLength)
	if _, err := dbf.f.ReadAt(table, dbfHeaderLength); err != nil {
		return errors.Wrapf(ErrMalformedSchema, "%s: reading field table: %v", dbf.fileName, err)
	}
	schema, err := DecodeSchema(table, int(dbf.header.RecordLength))
	if err != nil {
		return errors.Wrap(err, dbf.fileName)
	}
	for i := range schema {
		schema[i].Name = conf.decodeName(schema[i].Name)
	}
	dbf.schema = schema
	return nil
}

func (dbf *dbfFile) NumRecords() uint32 {
	return dbf.header.NumRecords
}

// readRecord returns the raw bytes of record index, deletion flag first.
func (dbf *dbfFile) readRecord(index int) ([]byte, error) {
	start := int64(dbf.header.HeaderLength) + int64(dbf.header.RecordLength)*int64(index)
	data := make([]byte, dbf.header.RecordLength)
	n, err := dbf.f.ReadAt(data, start)
	if n < len(data) {
		if err == nil || err == io.EOF {
			return nil, errors.Wrapf(ErrTruncatedRecord,
				"attribute record at offset %d has %d of %d bytes", start, n, len(data))
		}
		return nil, errors.Wrap(err, "reading attribute record")
	}
	return data, nil
}

func (dbf *dbfFile) Close() error {
	return dbf.f.Close()
}
