package snapshot

import (
	"context"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/okian/xpts/internal/domain/model"
)

// Option applies a configuration option to the Codec.
type Option func(*Codec)

// WithLimits sets the lookback windows enforced on decoded snapshots.
func WithLimits(l model.Limits) Option {
	return func(c *Codec) { c.limits = l }
}

// Codec reads and writes snapshot documents.
type Codec struct {
	validate *validator.Validate
	limits   model.Limits
}

// NewCodec creates a Codec.
func NewCodec(opts ...Option) *Codec {
	v := validator.New()
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("position", func(fl validator.FieldLevel) bool {
		_, err := model.ParsePosition(fl.Field().String())
		return err == nil
	})

	c := &Codec{validate: v, limits: model.DefaultLimits()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DecodeDocument parses and validates a document. Malformed or invalid input is
// ErrValidation.
func (c *Codec) DecodeDocument(ctx context.Context, r io.Reader) (Document, error) {
	var doc Document
	if err := sonic.ConfigDefault.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, errors.Mark(errors.Wrap(err, "decode snapshot"), model.ErrValidation)
	}
	if err := c.validate.StructCtx(ctx, doc); err != nil {
		return Document{}, errors.Mark(errors.Wrap(err, "validate snapshot"), model.ErrValidation)
	}
	return doc, nil
}

// Decode parses a document and builds the model snapshot. Structural problems
// in otherwise valid documents are ErrDataIntegrity.
func (c *Codec) Decode(ctx context.Context, r io.Reader) (*model.Snapshot, error) {
	doc, err := c.DecodeDocument(ctx, r)
	if err != nil {
		return nil, err
	}
	return doc.Snapshot(c.limits)
}

// Encode writes doc as JSON.
func (c *Codec) Encode(w io.Writer, doc Document) error {
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(doc); err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	return nil
}

// LoadFile decodes the snapshot stored at path.
func (c *Codec) LoadFile(ctx context.Context, path string) (*model.Snapshot, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, errors.Wrapf(err, "open snapshot %s", path)
	}
	defer func() { _ = f.Close() }()
	return c.Decode(ctx, f)
}
