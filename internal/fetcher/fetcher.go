// Package fetcher reads chat exports and attribution tables from local
// files, HTTP(S) URLs and FTP URLs.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher downloads remote files.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into path and returns the bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Resolver turns an input source into a local file path.
type Resolver struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewResolver returns a Resolver with the default HTTP and FTP fetchers.
func NewResolver(httpOpts HTTPOptions, ftpOpts FTPOptions) *Resolver {
	return &Resolver{
		HTTP: NewHTTPFetcher(httpOpts),
		FTP:  NewFTPFetcher(ftpOpts),
	}
}

// Resolve returns a local path for src. http(s) and ftp sources are
// downloaded to a temporary file that keeps the source extension; cleanup
// removes it. Local paths are returned unchanged with a no-op cleanup.
func (r *Resolver) Resolve(ctx context.Context, src string) (string, func(), error) {
	noop := func() {}

	scheme := ""
	if i := strings.Index(src, "://"); i > 0 {
		scheme = strings.ToLower(src[:i])
	}

	var f Fetcher
	switch scheme {
	case "":
		if _, err := os.Stat(src); err != nil {
			return "", noop, eris.Wrapf(err, "fetcher: stat %s", src)
		}
		return src, noop, nil
	case "http", "https":
		f = r.HTTP
	case "ftp":
		f = r.FTP
	default:
		return "", noop, eris.Errorf("fetcher: unsupported source scheme %q", scheme)
	}

	u, err := url.Parse(src)
	if err != nil {
		return "", noop, eris.Wrapf(err, "fetcher: parse source %s", src)
	}

	tmp, err := os.CreateTemp("", "lead-classifier-*"+path.Ext(u.Path))
	if err != nil {
		return "", noop, eris.Wrap(err, "fetcher: create temp file")
	}
	_ = tmp.Close()
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	n, err := f.DownloadToFile(ctx, src, tmp.Name())
	if err != nil {
		cleanup()
		return "", noop, eris.Wrapf(err, "fetcher: download %s", src)
	}

	zap.L().Info("fetcher: downloaded source",
		zap.String("source", u.Redacted()),
		zap.Int64("bytes", n),
	)
	return tmp.Name(), cleanup, nil
}

// writeToFile copies body into a new file at path.
func writeToFile(body io.Reader, path string) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, body)
	if err != nil {
		return n, eris.Wrap(err, "fetcher: write file")
	}
	return n, nil
}
