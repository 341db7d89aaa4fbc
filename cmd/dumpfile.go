package cmd

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const stdio = "-"

// dumpFile is an opened dump, possibly behind a gzip layer. Close closes every layer, innermost first.
type dumpFile struct {
	closers []io.Closer
}

func (d *dumpFile) push(c io.Closer) { d.closers = append([]io.Closer{c}, d.closers...) }

func (d *dumpFile) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// compressed reports whether a dump should go through gzip; a .gz name implies it.
func compressed(path string, flag bool) bool {
	return flag || (path != stdio && strings.HasSuffix(strings.ToLower(path), ".gz"))
}

func createDump(path string, stdout io.Writer, gz bool) (io.Writer, *dumpFile, error) {
	d := &dumpFile{}
	w := stdout
	if path != stdio {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create output directory: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("create dump file: %w", err)
		}
		d.push(f)
		w = f
	}
	if gz {
		zw := gzip.NewWriter(w)
		d.push(zw)
		w = zw
	}
	return w, d, nil
}

func openDump(path string, stdin io.Reader, gz bool) (io.Reader, *dumpFile, error) {
	d := &dumpFile{}
	r := stdin
	if path != stdio {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, nil, fmt.Errorf("open dump: %w", err)
		}
		d.push(f)
		r = f
	}
	if gz {
		zr, err := gzip.NewReader(r)
		if err != nil {
			_ = d.Close()
			return nil, nil, fmt.Errorf("open gzip dump: %w", err)
		}
		d.push(zr)
		r = zr
	}
	return r, d, nil
}

func defaultDumpName(gz bool) string {
	name := "jamdict-" + time.Now().UTC().Format("20060102-150405") + ".jsonl"
	if gz {
		name += ".gz"
	}
	return name
}
