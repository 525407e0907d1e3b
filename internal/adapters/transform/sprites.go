package transform

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/tdewolff/minify/v2"
	"go.trai.ch/sitepipe/internal/adapters/fs"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
	"go.trai.ch/sitepipe/internal/engine/composite"
	"go.trai.ch/zerr"
)

const svgNamespace = "http://www.w3.org/2000/svg"

// Sprites builds one SVG symbol sprite from the top-level icons and one per
// icon subfolder. An icon directory without subfolders is left alone, and so
// is every unit without icons.
type Sprites struct {
	cfg      domain.BuildConfig
	resolver ports.InputResolver
	minifier *minify.M
}

// NewSprites creates a new Sprites action.
func NewSprites(cfg domain.BuildConfig, resolver ports.InputResolver, m *minify.M) *Sprites {
	return &Sprites{cfg: cfg, resolver: resolver, minifier: m}
}

// Run implements ports.Action.
func (a *Sprites) Run(ctx context.Context, task *domain.Task, out io.Writer) (domain.RunResult, error) {
	source := task.Option(domain.OptionSource, a.cfg.Paths.Icons)

	var res domain.RunResult
	ct := &composite.Task[int]{
		Discover: composite.FolderUnits(filepath.Join(a.cfg.Root, filepath.FromSlash(source))),
		RunUnit: func(ctx context.Context, u composite.Unit) (int, error) {
			return a.buildSprite(ctx, task, source, u)
		},
	}

	err := ct.Run(ctx, func(outcomes []composite.Outcome[int]) {
		for _, o := range outcomes {
			name := domain.SpriteName(o.Unit.Name)
			if o.Err != nil {
				_, _ = fmt.Fprintf(out, "%s: %v\n", name, o.Err)
				continue
			}
			if o.Result == 0 {
				continue
			}
			_, _ = fmt.Fprintf(out, "%s: %d icon(s)\n", name, o.Result)
			res.Processed += o.Result
		}
	})
	return res, err
}

func (a *Sprites) buildSprite(ctx context.Context, task *domain.Task, source string, u composite.Unit) (int, error) {
	pattern := path.Join(source, "*.svg")
	if u.Recursive {
		pattern = path.Join(source, u.Name, "**/*.svg")
	}
	icons, err := a.resolver.ResolveInputs([]string{pattern}, nil, a.cfg.Root)
	if err != nil || len(icons) == 0 {
		return 0, err
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	sprite := doc.CreateElement("svg")
	sprite.CreateAttr("xmlns", svgNamespace)

	for _, icon := range icons {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := addSymbol(sprite, icon); err != nil {
			return 0, err
		}
	}

	data, err := doc.WriteToBytes()
	if err != nil {
		return 0, zerr.Wrap(err, domain.ErrTransformFailed.Error())
	}
	data, err = a.minifier.Bytes(mediaSVG, data)
	if err != nil {
		return 0, zerr.Wrap(err, domain.ErrTransformFailed.Error())
	}

	dst := filepath.Join(a.cfg.Root, filepath.FromSlash(task.OutputDir), domain.SpriteName(u.Name))
	if _, err := fs.WriteFileIfChanged(dst, data); err != nil {
		return 0, err
	}
	return len(icons), nil
}

// addSymbol appends icon to sprite as a symbol named after its path below
// the unit directory.
func addSymbol(sprite *etree.Element, icon domain.InputFile) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(icon.Path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrTransformFailed.Error()), "path", icon.Path)
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return zerr.With(zerr.With(domain.ErrTransformFailed, "path", icon.Path), "reason", "not an svg document")
	}

	// Namespace declarations such as xmlns:xlink move to the sprite root.
	for _, attr := range root.Attr {
		if attr.Space == "xmlns" && sprite.SelectAttr(attr.FullKey()) == nil {
			sprite.CreateAttr(attr.FullKey(), attr.Value)
		}
	}

	symbol := sprite.CreateElement("symbol")
	symbol.CreateAttr("id", symbolID(icon.Rel))
	if viewBox := root.SelectAttrValue("viewBox", ""); viewBox != "" {
		symbol.CreateAttr("viewBox", viewBox)
	}
	for _, child := range root.ChildElements() {
		symbol.AddChild(child.Copy())
	}
	return nil
}

// symbolID turns "arrows/left.svg" into "arrows-left".
func symbolID(rel string) string {
	id := strings.TrimSuffix(rel, path.Ext(rel))
	return strings.ReplaceAll(id, "/", "-")
}
