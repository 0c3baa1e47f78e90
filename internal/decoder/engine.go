package decoder

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gobwas/glob"

	"github.com/Prapti-044/simple-optparser/internal/config"
	"github.com/Prapti-044/simple-optparser/internal/logger"
	"github.com/Prapti-044/simple-optparser/internal/objfile"
)

var errNoFunctions = errors.New("no functions in file")

// Engine decodes ELF files with the built-in disassembler.
// It is not safe for concurrent use.
type Engine struct {
	opts    Options
	filters []glob.Glob
	log     *slog.Logger
	art     *artifact
}

var _ Decoder = (*Engine)(nil)

// NewEngine compiles the function filters in opts.
func NewEngine(opts Options) (*Engine, error) {
	if opts.MaxNameLength <= 0 {
		opts.MaxNameLength = config.DefaultMaxNameLength
	}
	e := &Engine{opts: opts, log: logger.WithComponent("decoder")}
	for _, pattern := range opts.Functions {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid function pattern %q: %w", pattern, err)
		}
		e.filters = append(e.filters, g)
	}
	return e, nil
}

func (e *Engine) keep(name string) bool {
	if len(e.filters) == 0 {
		return true
	}
	for _, g := range e.filters {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Decode loads path and makes it the current artifact. On failure the
// previous artifact is dropped.
func (e *Engine) Decode(path string) error {
	e.art = nil
	if path == "" {
		return &DecodeError{Err: ErrEmptyPath}
	}

	f, err := objfile.Open(path)
	if err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	art, err := buildArtifact(f, e.keep, e.log)
	if err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	e.log.Debug("decoded", "path", path, "arch", art.arch, "functions", len(art.funcs), "lines", len(art.lines))
	e.art = art
	return nil
}

func (e *Engine) current() (*artifact, error) {
	if e.art == nil {
		return nil, ErrNotDecoded
	}
	return e.art, nil
}

// JSON returns the structural parse of the current artifact.
func (e *Engine) JSON() (string, error) {
	art, err := e.current()
	if err != nil {
		return "", err
	}
	return renderJSON(art.parse(e.opts.MaxNameLength))
}

// DOT returns the control-flow graph of the current artifact.
func (e *Engine) DOT() (string, error) {
	art, err := e.current()
	if err != nil {
		return "", err
	}
	return art.dot(e.opts.MaxNameLength), nil
}

// SourceFiles returns the source files named by the artifact's line tables
// as a JSON array.
func (e *Engine) SourceFiles() (string, error) {
	art, err := e.current()
	if err != nil {
		return "", err
	}
	files := art.sourceFiles
	if files == nil {
		files = []string{}
	}
	return renderJSON(files)
}

// Assembly returns the per-function instruction listing as JSON.
func (e *Engine) Assembly() (string, error) {
	art, err := e.current()
	if err != nil {
		return "", err
	}
	return renderJSON(art.assembly(e.opts.MaxNameLength))
}
