// Package fixture embeds small JMdict, KANJIDIC2 and JMnedict documents used by tests.
package fixture

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"path/filepath"
)

var (
	//go:embed JMdict_mini.xml
	JMdictXML []byte
	//go:embed kanjidic2_mini.xml
	Kanjidic2XML []byte
	//go:embed JMnedict_mini.xml
	JMnedictXML []byte
)

// Number of records in each document.
const (
	JMdictEntries    = 7
	Kanjidic2Chars   = 3
	JMnedictEntries  = 4
	Kanjidic2FileVer = "4"
)

func JMdict() io.Reader    { return bytes.NewReader(JMdictXML) }
func Kanjidic2() io.Reader { return bytes.NewReader(Kanjidic2XML) }
func JMnedict() io.Reader  { return bytes.NewReader(JMnedictXML) }

// Paths locates the documents written by WriteFiles.
type Paths struct {
	JMdict    string
	Kanjidic2 string
	JMnedict  string
}

// WriteFiles writes the three documents into dir.
func WriteFiles(dir string) (Paths, error) {
	p := Paths{
		JMdict:    filepath.Join(dir, "JMdict_mini.xml"),
		Kanjidic2: filepath.Join(dir, "kanjidic2_mini.xml"),
		JMnedict:  filepath.Join(dir, "JMnedict_mini.xml"),
	}
	for path, data := range map[string][]byte{p.JMdict: JMdictXML, p.Kanjidic2: Kanjidic2XML, p.JMnedict: JMnedictXML} {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return Paths{}, err
		}
	}
	return p, nil
}
