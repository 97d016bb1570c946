package locale

import "strings"

const (
	LanguageEnglish = "en"
	LanguageTurkish = "tr"
)

// NormalizeLanguage 把任意语言标记归一为受支持的语言，无法识别时返回空串。
func NormalizeLanguage(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "tr") {
		return LanguageTurkish
	}
	if strings.HasPrefix(trimmed, "en") {
		return LanguageEnglish
	}
	return ""
}

// LanguageFromAcceptLanguage 从 Accept-Language 头中挑选语言。
func LanguageFromAcceptLanguage(header string) string {
	trimmed := strings.ToLower(strings.TrimSpace(header))
	if trimmed == "" {
		return ""
	}
	for _, part := range strings.Split(trimmed, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if normalized := NormalizeLanguage(tag); normalized != "" {
			return normalized
		}
	}
	return ""
}

// IsSupported 判断 language 是否为受支持的语言代码。
func IsSupported(language string) bool {
	return NormalizeLanguage(language) != "" && NormalizeLanguage(language) == strings.ToLower(strings.TrimSpace(language))
}
