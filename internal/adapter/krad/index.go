// Package krad maps kanji to their visual components (KRADFILE) and back.
package krad

import (
	"bufio"
	"bytes"
	"compress/gzip"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

//go:embed kradfile-mini.txt
var embedded []byte

// Index is built once, on first use, from a KRADFILE-U style resource.
type Index struct {
	path   string
	logger logrus.FieldLogger

	once    sync.Once
	err     error
	forward map[string][]string
	inverse map[string]map[string]struct{}
}

// Option configures an Index.
type Option func(*Index)

// WithFile reads components from path instead of the embedded resource. A .gz suffix is decompressed.
func WithFile(path string) Option {
	return func(i *Index) { i.path = path }
}

// WithLogger sets the logger used when the resource is loaded.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(i *Index) { i.logger = logger }
}

// New returns an index that loads lazily.
func New(opts ...Option) *Index {
	i := &Index{}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		i.logger = l
	}
	return i
}

// ComponentsOf returns the components of char in resource order, empty when unknown.
func (i *Index) ComponentsOf(char string) ([]string, error) {
	if err := i.load(); err != nil {
		return nil, err
	}
	return slices.Clone(i.forward[char]), nil
}

// CharactersWith returns every character containing component, sorted, empty when unknown.
func (i *Index) CharactersWith(component string) ([]string, error) {
	if err := i.load(); err != nil {
		return nil, err
	}
	chars := lo.Keys(i.inverse[component])
	slices.Sort(chars)
	return chars, nil
}

// Len is the number of decomposed characters.
func (i *Index) Len() (int, error) {
	if err := i.load(); err != nil {
		return 0, err
	}
	return len(i.forward), nil
}

func (i *Index) load() error {
	i.once.Do(func() {
		r, closeFn, err := i.open()
		if err != nil {
			i.err = err
			return
		}
		defer closeFn()
		i.forward, i.inverse, i.err = parse(r)
		if i.err == nil {
			i.logger.WithFields(logrus.Fields{"source": i.source(), "chars": len(i.forward)}).Debug("component index loaded")
		}
	})
	return i.err
}

func (i *Index) source() string {
	if i.path == "" {
		return "embedded"
	}
	return i.path
}

func (i *Index) open() (io.Reader, func(), error) {
	if i.path == "" {
		return bytes.NewReader(embedded), func() {}, nil
	}
	f, err := os.Open(i.path)
	if err != nil {
		return nil, nil, fmt.Errorf("open component resource: %w", err)
	}
	if !strings.HasSuffix(i.path, ".gz") {
		return f, func() { _ = f.Close() }, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("open gzip component resource: %w", err)
	}
	return gz, func() { _ = gz.Close(); _ = f.Close() }, nil
}

func parse(r io.Reader) (map[string][]string, map[string]map[string]struct{}, error) {
	forward := make(map[string][]string)
	inverse := make(map[string]map[string]struct{})
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		char, comps, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		char = strings.TrimSpace(char)
		// A character listed twice gets the union of its components.
		for _, p := range strings.Fields(comps) {
			if slices.Contains(forward[char], p) {
				continue
			}
			forward[char] = append(forward[char], p)
			set, ok := inverse[p]
			if !ok {
				set = make(map[string]struct{})
				inverse[p] = set
			}
			set[char] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read component resource: %w", err)
	}
	return forward, inverse, nil
}
