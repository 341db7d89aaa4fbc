package entity

// NameType codes used by JMnedict, paired with the descriptions the source document spells out.
var nameTypes = [...]struct{ code, desc string }{
	{"surname", "family or surname"},
	{"place", "place name"},
	{"unclass", "unclassified name"},
	{"company", "company name"},
	{"product", "product name"},
	{"work", "work of art, literature, music, etc. name"},
	{"masc", "male given name or forename"},
	{"fem", "female given name or forename"},
	{"person", "full name of a particular person"},
	{"given", "given name or forename, gender not specified"},
	{"station", "railway station"},
	{"organization", "organization name"},
	{"ok", "old or irregular kana form"},
}

// NameTypeCode maps a name_type description to its short code. Unknown values pass through.
func NameTypeCode(desc string) string {
	for _, nt := range nameTypes {
		if nt.desc == desc {
			return nt.code
		}
	}
	return desc
}

// NameTypeDescription maps a short code back to its description. Unknown values pass through.
func NameTypeDescription(code string) string {
	for _, nt := range nameTypes {
		if nt.code == code {
			return nt.desc
		}
	}
	return code
}

// NameTypeDescriptions maps every code in codes.
func NameTypeDescriptions(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = NameTypeDescription(c)
	}
	return out
}
