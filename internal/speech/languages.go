package speech

// Language is one entry in the static supported-language catalog.
type Language struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

// Languages returns the supported-language catalog. The list is static;
// availability of individual voices still depends on the provider.
func Languages() []Language {
	return []Language{
		{Code: "en-US", Name: "English (US)", Region: "United States"},
		{Code: "en-GB", Name: "English (UK)", Region: "United Kingdom"},
		{Code: "en-AU", Name: "English (AU)", Region: "Australia"},
		{Code: "es-ES", Name: "Spanish (Spain)", Region: "Spain"},
		{Code: "es-US", Name: "Spanish (US)", Region: "United States"},
		{Code: "fr-FR", Name: "French (France)", Region: "France"},
		{Code: "fr-CA", Name: "French (Canada)", Region: "Canada"},
		{Code: "de-DE", Name: "German (Germany)", Region: "Germany"},
		{Code: "it-IT", Name: "Italian (Italy)", Region: "Italy"},
		{Code: "pt-BR", Name: "Portuguese (Brazil)", Region: "Brazil"},
		{Code: "ja-JP", Name: "Japanese (Japan)", Region: "Japan"},
		{Code: "ko-KR", Name: "Korean (South Korea)", Region: "South Korea"},
		{Code: "zh-CN", Name: "Chinese (Simplified)", Region: "China"},
		{Code: "hi-IN", Name: "Hindi (India)", Region: "India"},
		{Code: "ar-XA", Name: "Arabic", Region: "Multi-region"},
	}
}
