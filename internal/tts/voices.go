package tts

import "strings"

// Catalog groups provider voices by technology tier.
type Catalog struct {
	Standard []Voice `json:"standard"`
	Wavenet  []Voice `json:"wavenet"`
	Neural2  []Voice `json:"neural2"`
	News     []Voice `json:"news"`
	Studio   []Voice `json:"studio"`
	Total    int     `json:"total"`
}

// Categorize buckets voices by the tier embedded in their names.
func Categorize(voices []Voice) Catalog {
	cat := Catalog{Total: len(voices)}
	for _, v := range voices {
		switch {
		case strings.Contains(v.Name, "Wavenet"):
			cat.Wavenet = append(cat.Wavenet, v)
		case strings.Contains(v.Name, "Neural2"):
			cat.Neural2 = append(cat.Neural2, v)
		case strings.Contains(v.Name, "News"):
			cat.News = append(cat.News, v)
		case strings.Contains(v.Name, "Studio"):
			cat.Studio = append(cat.Studio, v)
		default:
			cat.Standard = append(cat.Standard, v)
		}
	}
	return cat
}
