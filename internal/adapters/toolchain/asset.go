package toolchain

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/zerr"
)

// Compression names accepted by COMPRESS:.
const (
	CompressGzip = "gzip"
	CompressXZ   = "xz"
	CompressZstd = "zstd"
)

// AssetCompressor copies its first input into the output, compressed.
// It runs in-process; no external tool is involved.
type AssetCompressor struct{}

// Execute compresses the asset. The output only appears once it is complete.
func (a *AssetCompressor) Execute(ctx context.Context, req domain.ActionRequest, out io.Writer) error {
	method := CompressGzip
	if v, ok := req.Options.Value(OptCompress); ok {
		method = v
	}
	open, err := compressor(method)
	if err != nil {
		return zerr.With(err, "target", req.Output)
	}

	src, err := os.Open(abs(req, req.Inputs[0]))
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open asset"), "input", req.Inputs[0])
	}
	defer func() { _ = src.Close() }()

	dst := abs(req, req.Output)
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temporary output")
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	w, err := open(tmp)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to start compressor"), "compress", method)
	}
	n, err := io.Copy(w, contextReader{ctx: ctx, r: src})
	if err != nil {
		_ = w.Close()
		return zerr.With(zerr.Wrap(err, "failed to compress asset"), "input", req.Inputs[0])
	}
	if err := w.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to finish compression"), "compress", method)
	}
	if err := tmp.Chmod(domain.FilePerm); err != nil {
		return zerr.Wrap(err, "failed to set output permissions")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to close temporary output")
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return zerr.Wrap(err, "failed to move output into place")
	}
	committed = true

	_, _ = fmt.Fprintf(out, "compressed %s (%d bytes, %s)\n", req.Inputs[0], n, method)
	return nil
}

func compressor(method string) (func(io.Writer) (io.WriteCloser, error), error) {
	switch method {
	case CompressGzip:
		return func(w io.Writer) (io.WriteCloser, error) {
			return pgzip.NewWriterLevel(w, pgzip.BestCompression)
		}, nil
	case CompressXZ:
		return func(w io.Writer) (io.WriteCloser, error) {
			return xz.NewWriter(w)
		}, nil
	case CompressZstd:
		return func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		}, nil
	default:
		return nil, zerr.With(domain.ErrUnknownCompression, "compress", method)
	}
}

// contextReader stops a copy once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
