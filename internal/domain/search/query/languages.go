package query

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ISO 639-1 codes whose languages can be looked up by name.
const iso6391 = "aa ab ae af ak am an ar as av ay az ba be bg bh bi bm bn bo br bs ca ce " +
	"ch co cr cs cu cv cy da de dv dz ee el en eo es et eu fa ff fi fj fo fr fy ga gd gl " +
	"gn gu gv ha he hi ho hr ht hu hy hz ia id ie ig ii ik io is it iu ja jv ka kg ki kj " +
	"kk kl km kn ko kr ks ku kv kw ky la lb lg li ln lo lt lu lv mg mh mi mk ml mn mr ms " +
	"mt my na nb nd ne ng nl nn no nr nv ny oc oj om or os pa pi pl ps pt qu rm rn ro ru " +
	"rw sa sc sd se sg si sk sl sm sn so sq sr ss st su sv sw ta te tg th ti tk tl tn to " +
	"tr ts tt tw ty ug uk ur uz ve vi vo wa wo xh yi yo za zh zu"

// Catalog records use the bibliographic ISO 639-2 code where it differs
// from the terminologic one.
var bibliographicCodes = map[string]string{
	"sqi": "alb", "hye": "arm", "eus": "baq", "bod": "tib", "mya": "bur",
	"ces": "cze", "zho": "chi", "cym": "wel", "deu": "ger", "ell": "gre",
	"fas": "per", "fra": "fre", "kat": "geo", "isl": "ice", "mkd": "mac",
	"mri": "mao", "msa": "may", "nld": "dut", "ron": "rum", "slk": "slo",
}

var languageNames = sync.OnceValue(func() map[string]string {
	names := make(map[string]string)
	add := func(name, code string) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return
		}
		if _, taken := names[name]; !taken {
			names[name] = code
		}
		if plain := stripDiacritics(name); plain != name {
			if _, taken := names[plain]; !taken {
				names[plain] = code
			}
		}
	}

	english := display.English.Languages()
	for _, two := range strings.Fields(iso6391) {
		base, err := language.ParseBase(two)
		if err != nil {
			continue
		}
		code := base.ISO3()
		if b, ok := bibliographicCodes[code]; ok {
			code = b
		}
		add(english.Name(base), code)
		if tag, err := language.Parse(two); err == nil {
			add(display.Self.Name(tag), code)
		}
	}
	add("castellano", "spa")
	return names
})

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// LanguageCode maps an English or native language name to its ISO 639-2
// code. Anything else, including codes, comes back unchanged.
func LanguageCode(name string) string {
	if code, ok := languageNames()[strings.ToLower(strings.TrimSpace(name))]; ok {
		return code
	}
	return name
}
