package slug

import (
	"fmt"
	"regexp"
	"strings"
)

// cyrillicToLatin maps Cyrillic characters to Latin transliteration
var cyrillicToLatin = map[rune]string{
	'а': "a", 'А': "a",
	'б': "b", 'Б': "b",
	'в': "v", 'В': "v",
	'г': "g", 'Г': "g",
	'д': "d", 'Д': "d",
	'е': "e", 'Е': "e",
	'ё': "e", 'Ё': "e",
	'ж': "zh", 'Ж': "zh",
	'з': "z", 'З': "z",
	'и': "i", 'И': "i",
	'й': "y", 'Й': "y",
	'к': "k", 'К': "k",
	'л': "l", 'Л': "l",
	'м': "m", 'М': "m",
	'н': "n", 'Н': "n",
	'о': "o", 'О': "o",
	'п': "p", 'П': "p",
	'р': "r", 'Р': "r",
	'с': "s", 'С': "s",
	'т': "t", 'Т': "t",
	'у': "u", 'У': "u",
	'ф': "f", 'Ф': "f",
	'х': "h", 'Х': "h",
	'ц': "c", 'Ц': "c",
	'ч': "ch", 'Ч': "ch",
	'ш': "sh", 'Ш': "sh",
	'щ': "sh", 'Щ': "sh",
	'ъ': "", 'Ъ': "",
	'ы': "y", 'Ы': "y",
	'ь': "", 'Ь': "",
	'э': "e", 'Э': "e",
	'ю': "iu", 'Ю': "iu",
	'я': "ia", 'Я': "ia",
}

// maxBaseLength caps the transliterated title part of a slug
const maxBaseLength = 60

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate builds a URL-friendly slug from a title and a uniqueness suffix.
// Format: {transliterated-title}-{suffix}
// Example: "Мой проект: API" + "3f9a" -> "moy-proekt-api-3f9a"
func Generate(title, suffix string) string {
	var b strings.Builder
	for _, char := range strings.ToLower(title) {
		if latin, ok := cyrillicToLatin[char]; ok {
			b.WriteString(latin)
		} else {
			b.WriteRune(char)
		}
	}

	base := strings.Trim(nonAlnum.ReplaceAllString(b.String(), "-"), "-")
	if len(base) > maxBaseLength {
		base = strings.TrimRight(base[:maxBaseLength], "-")
	}

	switch {
	case base == "":
		return suffix
	case suffix == "":
		return base
	default:
		return fmt.Sprintf("%s-%s", base, suffix)
	}
}
