package xmldict

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"

	"github.com/antchfx/xmlquery"
)

// maxPrologSize bounds how much of a document is scanned for the internal DTD subset.
const maxPrologSize = 8 << 20

var entityDecl = regexp.MustCompile(`<!ENTITY\s+([^\s%"]+)\s+"([^"]*)"\s*>`)

// readProlog scans the document head up to the end of the internal DTD subset (or the root
// element) and collects the general entities it declares. The returned reader replays the
// whole document.
func readProlog(r io.Reader) (io.Reader, map[string]string, error) {
	br := bufio.NewReader(r)
	var head bytes.Buffer
	inSubset := false
	for {
		line, err := br.ReadBytes('\n')
		head.Write(line)
		if !inSubset && bytes.Contains(line, []byte("<!DOCTYPE")) && bytes.Contains(line, []byte("[")) {
			inSubset = true
		}
		if inSubset && bytes.Contains(line, []byte("]>")) {
			break
		}
		if !inSubset && isRootStart(bytes.TrimSpace(line)) {
			break
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read document prolog: %w", err)
		}
		if head.Len() > maxPrologSize {
			return nil, nil, fmt.Errorf("document prolog larger than %d bytes", maxPrologSize)
		}
	}

	entities := make(map[string]string)
	for _, m := range entityDecl.FindAllSubmatch(head.Bytes(), -1) {
		entities[string(m[1])] = string(m[2])
	}
	return io.MultiReader(bytes.NewReader(head.Bytes()), br), entities, nil
}

func isRootStart(line []byte) bool {
	return len(line) > 1 && line[0] == '<' && line[1] != '?' && line[1] != '!'
}

// newStreamParser prepares a streaming parser that yields each element matched by xpath.
func newStreamParser(r io.Reader, xpath string) (*xmlquery.StreamParser, error) {
	body, entities, err := readProlog(r)
	if err != nil {
		return nil, err
	}
	opts := xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict: true,
			Entity: entities,
		},
	}
	sp, err := xmlquery.CreateStreamParserWithOptions(body, opts, xpath)
	if err != nil {
		return nil, fmt.Errorf("create stream parser: %w", err)
	}
	return sp, nil
}
