package imagegen

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Style is a cloud-pruning style the visualiser can render.
type Style string

const (
	StyleSpherical    Style = "spherical"
	StyleTiered       Style = "tiered"
	StyleWindswept    Style = "windswept"
	StyleNaturalistic Style = "naturalistic"
)

// Styles lists every supported style in display order.
var Styles = []Style{StyleSpherical, StyleTiered, StyleWindswept, StyleNaturalistic}

// Frequency is how much maintenance the owner is prepared to give.
type Frequency string

const (
	FrequencyMinimal Frequency = "minimal"
	FrequencyMonthly Frequency = "monthly"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyExpert  Frequency = "expert"
)

// Resolution is the output quality tier.
type Resolution string

const (
	ResolutionLow    Resolution = "low"
	ResolutionMedium Resolution = "medium"
	ResolutionHigh   Resolution = "high"
)

var styleNames = map[Style]string{
	StyleSpherical:    "Spherical Clouds",
	StyleTiered:       "Tiered Layers",
	StyleWindswept:    "Windswept",
	StyleNaturalistic: "Naturalistic",
}

// Valid reports whether s is a supported style.
func (s Style) Valid() bool {
	_, ok := styleNames[s]
	return ok
}

// DisplayName returns the human-readable name of the style.
func (s Style) DisplayName() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(s), "-", " "))
}

// Valid reports whether f is a supported maintenance level.
func (f Frequency) Valid() bool {
	_, ok := complexityDescriptions[f]
	return ok
}

// Valid reports whether r is a supported resolution tier.
func (r Resolution) Valid() bool {
	_, ok := resolutionConfig[r]
	return ok
}

type resolutionSpec struct {
	Width   int
	Height  int
	Quality string
}

var resolutionConfig = map[Resolution]resolutionSpec{
	ResolutionLow:    {Width: 512, Height: 512, Quality: "fast preview"},
	ResolutionMedium: {Width: 768, Height: 768, Quality: "balanced"},
	ResolutionHigh:   {Width: 1024, Height: 1024, Quality: "high detail"},
}

// Dimensions returns the target pixel size for the tier.
func (r Resolution) Dimensions() (int, int) {
	spec, ok := resolutionConfig[r]
	if !ok {
		spec = resolutionConfig[ResolutionMedium]
	}
	return spec.Width, spec.Height
}
