package cache

import "html/template"

var syntaxCache = NewCache[string, template.CSS]()

func GetSyntaxCSS(theme string) (template.CSS, bool) {
	return syntaxCache.Get(theme)
}

// SyntaxCSS returns the stylesheet cached for theme, generating it on a miss.
func SyntaxCSS(theme string, generate func() template.CSS) template.CSS {
	return syntaxCache.GetOrCompute(theme, generate)
}
