package prerender

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lerrors "git.home.luguber.info/inful/litho/internal/errors"
	"git.home.luguber.info/inful/litho/internal/logfields"
	"git.home.luguber.info/inful/litho/internal/site"
)

// SinkFile is one output file derived from a rendered document, with its
// path relative to the output root.
type SinkFile struct {
	Path    string
	Content []byte
}

// DocumentSink receives output files instead of the filesystem. It is called
// once per file; a document with a serialized context produces two calls.
type DocumentSink func(ctx context.Context, doc *site.RenderedDocument, file SinkFile) error

// DocumentPath derives the output-root-relative path for a document body.
// The root URL maps to index.html; any other URL either nests into its own
// directory or, when nesting is suppressed, becomes a single .html file.
func DocumentPath(url string, suppressNesting bool) string {
	if url == "/" {
		return "index.html"
	}
	trimmed := strings.Trim(url, "/")
	if suppressNesting {
		return trimmed + ".html"
	}
	return trimmed + "/index.html"
}

// ContextPath derives the sidecar path for a serialized context. The sidecar
// is always placed directly, never nested into a directory.
func ContextPath(url string) string {
	if url == "/" {
		return "index.pageContext.json"
	}
	return strings.Trim(url, "/") + ".pageContext.json"
}

// Writer persists rendered documents under a root directory, or forwards
// them to a caller-supplied sink instead of touching storage. With a sink
// attached, per-file logging drops to debug verbosity.
type Writer struct {
	root   string
	sink   DocumentSink
	logger *slog.Logger
}

func NewWriter(root string, sink DocumentSink, logger *slog.Logger) *Writer {
	return &Writer{root: root, sink: sink, logger: logger}
}

// Write produces one or two files for the document and returns how many were
// handed off or persisted.
func (w *Writer) Write(ctx context.Context, doc *site.RenderedDocument) (int, error) {
	files := []SinkFile{{Path: DocumentPath(doc.URL, doc.SuppressNesting), Content: doc.Body}}
	if doc.SerializedContext != nil {
		files = append(files, SinkFile{Path: ContextPath(doc.URL), Content: doc.SerializedContext})
	}

	written := 0
	for _, f := range files {
		if w.sink != nil {
			if err := w.sink(ctx, doc, f); err != nil {
				return written, lerrors.SinkFault(doc.URL, err)
			}
			w.logger.Debug("document handed to sink", logfields.URL(doc.URL), logfields.Path(f.Path))
			written++
			continue
		}
		abs := filepath.Join(w.root, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return written, lerrors.WriteFault(f.Path, err)
		}
		if err := os.WriteFile(abs, f.Content, 0o644); err != nil {
			return written, lerrors.WriteFault(f.Path, err)
		}
		w.logger.Info("wrote file", logfields.Path(f.Path))
		written++
	}
	return written, nil
}

// stageWriteOutput fans the rendered documents out through the bounded
// runner, writing each to storage or to the sink.
func stageWriteOutput(ctx context.Context, st *RunState) error {
	pool := st.newPool()
	for _, doc := range st.documents() {
		pool.Submit(ctx, func(ctx context.Context) error {
			n, err := st.Writer.Write(ctx, doc)
			st.addFilesWritten(n)
			return err
		})
	}
	return pool.Wait()
}
