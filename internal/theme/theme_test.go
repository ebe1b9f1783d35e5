package theme

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/debemdeboas/the-archive-writer/internal/cache"
	"github.com/debemdeboas/the-archive-writer/internal/config"
)

func init() {
	config.AppConfig = config.Default()
}

func TestGenerateSyntaxCSS(t *testing.T) {
	testCases := []struct {
		name  string
		theme string
	}{
		{"Valid Theme - Monokai", "monokai"},
		{"Valid Theme - Github", "github"},
		{"Non-existent Theme - Fallback", "nonexistent-theme-12345"},
		{"Empty Theme Name", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			css1 := GenerateSyntaxCSS(tc.theme)
			if css1 == "" {
				t.Fatal("Expected non-empty CSS, fallback style should apply")
			}
			if !strings.Contains(string(css1), ".chroma") {
				t.Errorf("Expected CSS scoped to .chroma, got %q", css1[:min(len(css1), 80)])
			}

			cached, ok := cache.GetSyntaxCSS(tc.theme)
			if !ok {
				t.Error("Expected CSS to be cached")
			}
			if cached != css1 {
				t.Error("Expected cached CSS to match generated CSS")
			}
			if css2 := GenerateSyntaxCSS(tc.theme); css2 != css1 {
				t.Error("Expected second call to return identical CSS")
			}
		})
	}
}

func TestGetSyntaxThemes(t *testing.T) {
	themes := GetSyntaxThemes()
	if len(themes) == 0 {
		t.Fatal("Expected chroma to ship styles")
	}
	for i := 1; i < len(themes); i++ {
		if themes[i-1] > themes[i] {
			t.Fatalf("Expected sorted themes, %q before %q", themes[i-1], themes[i])
		}
	}
	if !HasSyntaxTheme("monokai") {
		t.Error("Expected monokai to be available")
	}
	if HasSyntaxTheme("definitely-not-a-style") {
		t.Error("Expected unknown style to be reported missing")
	}
}

func TestGetThemeFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetThemeFromRequest(req); got != config.DarkTheme {
		t.Errorf("Expected default theme %q, got %q", config.DarkTheme, got)
	}

	req.AddCookie(&http.Cookie{Name: config.CookieTheme, Value: config.LightTheme})
	if got := GetThemeFromRequest(req); got != config.LightTheme {
		t.Errorf("Expected cookie theme %q, got %q", config.LightTheme, got)
	}
}

func TestGetSyntaxThemeFromRequest(t *testing.T) {
	testCases := []struct {
		name    string
		cookies []*http.Cookie
		want    string
	}{
		{"no cookies uses dark default", nil, "gruvbox"},
		{"light theme uses light default", []*http.Cookie{{Name: config.CookieTheme, Value: config.LightTheme}}, "catppuccin-latte"},
		{"explicit syntax theme wins", []*http.Cookie{
			{Name: config.CookieTheme, Value: config.LightTheme},
			{Name: config.CookieSyntaxTheme, Value: "monokai"},
		}, "monokai"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, c := range tc.cookies {
				req.AddCookie(c)
			}
			if got := GetSyntaxThemeFromRequest(req); got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestToggleAndIcon(t *testing.T) {
	if Toggle(config.DarkTheme) != config.LightTheme {
		t.Error("Expected dark to toggle to light")
	}
	if Toggle(config.LightTheme) != config.DarkTheme {
		t.Error("Expected light to toggle to dark")
	}
	if Toggle("unknown") != config.DarkTheme {
		t.Error("Expected unknown theme to toggle to dark")
	}
	if GetThemeIcon(config.LightTheme) != config.DarkThemeIcon {
		t.Error("Expected light theme to offer the dark icon")
	}
	if GetThemeIcon(config.DarkTheme) != config.LightThemeIcon {
		t.Error("Expected dark theme to offer the light icon")
	}
}

func BenchmarkGenerateSyntaxCSS(b *testing.B) {
	GenerateSyntaxCSS("monokai")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GenerateSyntaxCSS("monokai")
	}
}
