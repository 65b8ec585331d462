package fetcher

import (
	"archive/zip"
	"io"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// maxEntryBytes bounds how much of one archive entry is read into memory.
const maxEntryBytes = 256 << 20

// skipEntry reports whether an archive entry is packaging noise: directories
// and the resource forks macOS Finder adds when compressing.
func skipEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() {
		return true
	}
	return strings.HasPrefix(f.Name, "__MACOSX/") || strings.HasPrefix(path.Base(f.Name), "._")
}

// soleEntry returns the one meaningful file of an archive.
func soleEntry(files []*zip.File) (*zip.File, error) {
	var found *zip.File
	n := 0
	for _, f := range files {
		if skipEntry(f) {
			continue
		}
		found = f
		n++
	}
	if n != 1 {
		return nil, eris.Errorf("fetcher: archive must hold exactly one export, found %d", n)
	}
	return found, nil
}

// namedEntry returns the archive entry called name.
func namedEntry(files []*zip.File, name string) (*zip.File, error) {
	for _, f := range files {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, eris.Errorf("fetcher: archive has no %s", name)
}

// readEntry decompresses f into memory, refusing entries that inflate past
// maxEntryBytes.
func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: inflate entry %s", f.Name)
	}
	if len(data) > maxEntryBytes {
		return nil, eris.Errorf("fetcher: entry %s exceeds %d bytes", f.Name, maxEntryBytes)
	}
	return data, nil
}
