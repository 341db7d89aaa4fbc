package entity

// Source document kinds.
const (
	SourceJMdict    = "jmdict"
	SourceKanjidic2 = "kanjidic2"
	SourceJMnedict  = "jmnedict"
)

// Metadata keys stored alongside the dictionary tables.
const (
	MetaJMdictVersion    = "jmdict.version"
	MetaJMdictURL        = "jmdict.url"
	MetaKanjidic2Version = "kanjidic2.version"
	MetaKanjidic2URL     = "kanjidic2.url"
	MetaKanjidic2FileVer = "kanjidic2.file_version"
	MetaKanjidic2DBVer   = "kanjidic2.database_version"
	MetaKanjidic2Created = "kanjidic2.date_of_creation"
	MetaJMnedictVersion  = "jmnedict.version"
	MetaJMnedictURL      = "jmnedict.url"
	MetaGenerator        = "generator"
	MetaGeneratorVersion = "generator_version"
	MetaGeneratorURL     = "generator_url"
	MetaImportRunID      = "import.run_id"
	MetaDigestSuffix     = ".blake3"
)

// Provenance defaults written on import.
const (
	DefaultJMdictURL     = "https://www.edrdg.org/wiki/index.php/JMdict-EDICT_Dictionary_Project"
	DefaultKanjidic2URL  = "https://www.edrdg.org/wiki/index.php/KANJIDIC_Project"
	DefaultJMnedictURL   = "https://www.edrdg.org/enamdict/enamdict_doc.html"
	DefaultJMdictVersion = "1.08"
	DefaultKd2Version    = "1.6"
	DefaultJMneVersion   = "1.08"
	DefaultGeneratorName = "jamdict"
	DefaultGeneratorURL  = "https://github.com/eslsoft/jamdict"
	DefaultGeneratorVer  = "0.1.0"
)

// Meta is one provenance key/value row.
type Meta struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
