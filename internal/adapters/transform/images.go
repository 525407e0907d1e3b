package transform

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"go.trai.ch/sitepipe/internal/adapters/fs"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
	"go.trai.ch/zerr"
)

// Images compresses the newer images into the output directory. SVGs are
// minified and PNGs re-encoded at best compression. Other formats are copied.
type Images struct {
	cfg      domain.BuildConfig
	resolver ports.InputResolver
	minifier *minify.M
}

// NewImages creates a new Images action.
func NewImages(cfg domain.BuildConfig, resolver ports.InputResolver, m *minify.M) *Images {
	return &Images{cfg: cfg, resolver: resolver, minifier: m}
}

// Run implements ports.Action.
func (a *Images) Run(ctx context.Context, task *domain.Task, out io.Writer) (domain.RunResult, error) {
	files, err := a.resolver.ResolveInputs(task.Inputs, task.Excludes, a.cfg.Root)
	if err != nil {
		return domain.RunResult{}, err
	}

	var res domain.RunResult
	sizes := sizeTracker{title: "images"}
	for _, in := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		dst := outputPath(a.cfg.Root, task, in, "")
		stale, err := fs.IsStale(in.Path, dst)
		if err != nil {
			return res, err
		}
		if !stale {
			res.Skipped++
			continue
		}

		data, err := os.ReadFile(in.Path)
		if err != nil {
			return res, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", in.Path)
		}
		compressed, err := a.compress(in.Path, data)
		if err != nil {
			return res, err
		}
		if _, err := fs.WriteFileIfChanged(dst, compressed); err != nil {
			return res, err
		}
		if err := fs.MatchModTime(dst, in.Path); err != nil {
			return res, err
		}
		sizes.add(len(data), len(compressed))
		res.Processed++
	}
	res.Sizes = sizes.report(a.cfg.ReportSizes, out)
	return res, nil
}

func (a *Images) compress(path string, data []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		out, err := a.minifier.Bytes(mediaSVG, data)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrTransformFailed.Error()), "path", path)
		}
		return out, nil
	case ".png":
		return recompressPNG(data), nil
	default:
		return data, nil
	}
}

// recompressPNG re-encodes data at best compression and keeps whichever
// encoding is smaller. Undecodable files are passed through.
func recompressPNG(data []byte) []byte {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil || buf.Len() >= len(data) {
		return data
	}
	return buf.Bytes()
}
