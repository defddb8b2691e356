package log

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
)

type PrettyJSONHandlerOptions struct {
	slog.HandlerOptions
	PrettyPrint bool
}

// NewPrettyJSONHandler returns a [slog.JSONHandler] which indents every record if PrettyPrint is
// set. Meant for reading logs during local development.
func NewPrettyJSONHandler(w io.Writer, opts *PrettyJSONHandlerOptions) slog.Handler {
	if opts == nil {
		opts = &PrettyJSONHandlerOptions{}
	}

	if opts.PrettyPrint {
		w = indentWriter{w}
	}

	return slog.NewJSONHandler(w, &opts.HandlerOptions)
}

// indentWriter relies on the JSONHandler writing exactly one record per call to Write.
type indentWriter struct {
	w io.Writer
}

func (iw indentWriter) Write(p []byte) (int, error) {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, p, "", "  "); err != nil {
		return iw.w.Write(p)
	}

	if _, err := iw.w.Write(prettyJSON.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}
