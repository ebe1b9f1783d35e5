package cache

// Highlighted code blocks, keyed by style, language and code hash.
var highlightCache = NewCache[string, string]()

func highlightKey(style, language, codeHash string) string {
	return style + ":" + language + ":" + codeHash
}

func GetHighlightedBlock(style, language, codeHash string) (string, bool) {
	return highlightCache.Get(highlightKey(style, language, codeHash))
}

func SetHighlightedBlock(style, language, codeHash, html string) {
	highlightCache.Set(highlightKey(style, language, codeHash), html)
}

func ClearHighlightCache() {
	highlightCache.Clear()
}
