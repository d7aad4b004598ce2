package shp

import (
	"strings"

	"github.com/axgle/mahonia"
	"github.com/pkg/errors"
)

// Progress receives notifications while a Reader iterates. Start is
// called once per iteration with the record count.
type Progress interface {
	Start(total int)
	Advance(n int)
	Done()
}

type config struct {
	encoding string
	decoder  mahonia.Decoder
	encoder  mahonia.Encoder
	progress Progress
}

// Option configures a Reader or a Writer.
type Option func(*config) error

// WithEncoding sets the character set of DBF text fields, for example
// "gbk" or "latin1". Text is passed through untouched by default.
func WithEncoding(name string) Option {
	return func(c *config) error {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "", "utf8", "utf-8":
			c.encoding, c.decoder, c.encoder = "", nil, nil
			return nil
		}
		dec := mahonia.NewDecoder(name)
		enc := mahonia.NewEncoder(name)
		if dec == nil || enc == nil {
			return errors.Errorf("shp: unsupported encoding %q", name)
		}
		c.encoding, c.decoder, c.encoder = name, dec, enc
		return nil
	}
}

// WithProgress reports iteration progress to p.
func WithProgress(p Progress) Option {
	return func(c *config) error {
		c.progress = p
		return nil
	}
}

func newConfig(opts []Option) (*config, error) {
	c := &config{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *config) decodeText(rec *Record) {
	if c.decoder != nil {
		rec.transformStrings(c.decoder.ConvertString)
	}
}

func (c *config) encodeText(rec *Record) *Record {
	if c.encoder == nil {
		return rec
	}
	rec = rec.Clone()
	rec.transformStrings(c.encoder.ConvertString)
	return rec
}

func (c *config) decodeName(name string) string {
	if c.decoder != nil {
		return c.decoder.ConvertString(name)
	}
	return name
}

func (c *config) encodeName(name string) string {
	if c.encoder != nil {
		return c.encoder.ConvertString(name)
	}
	return name
}
