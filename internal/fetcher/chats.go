package fetcher

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-classifier/internal/model"
)

// ErrNoItems is returned for a chat export without a top-level "items"
// collection.
var ErrNoItems = eris.New("fetcher: chat export has no items collection")

// DecodeChatExport decodes a chat export JSON document.
func DecodeChatExport(r io.Reader) ([]model.Message, error) {
	var raw struct {
		Items *[]model.Message `json:"items"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "fetcher: decode chat export")
	}
	if raw.Items == nil {
		return nil, ErrNoItems
	}
	return *raw.Items, nil
}

// ReadChatExport reads a chat export from path. Supported containers are
// .json, .docx (JSON typed into the document body) and .zip (holding a
// single .json or .docx).
func ReadChatExport(ctx context.Context, path string) ([]model.Message, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return DecodeChatExport(f)

	case ".docx":
		text, err := DocxText(ctx, path)
		if err != nil {
			return nil, err
		}
		return DecodeChatExport(strings.NewReader(text))

	case ".zip":
		zr, err := zip.OpenReader(path)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", path)
		}
		defer zr.Close() //nolint:errcheck

		entry, err := soleEntry(zr.File)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: unpack %s", path)
		}
		data, err := readEntry(entry)
		if err != nil {
			return nil, err
		}
		return decodeArchivedExport(ctx, entry.Name, data)
	}
	return nil, eris.Errorf("fetcher: unsupported chat export format %q", filepath.Ext(path))
}

// decodeArchivedExport decodes an export that arrived inside a .zip.
// Archives do not nest.
func decodeArchivedExport(ctx context.Context, name string, data []byte) ([]model.Message, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return DecodeChatExport(bytes.NewReader(data))
	case ".docx":
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open docx %s", name)
		}
		text, err := docxBodyText(ctx, zr)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: read docx %s", name)
		}
		return DecodeChatExport(strings.NewReader(text))
	case ".zip":
		return nil, eris.Errorf("fetcher: nested archive %s", filepath.Base(name))
	}
	return nil, eris.Errorf("fetcher: unsupported archived export %q", filepath.Base(name))
}
