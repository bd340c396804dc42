package imagegen

import (
	"fmt"
	"strings"
)

var maturityDescriptions = [...]string{
	1:  "very early-stage with initial shaping just begun, basic structure being established, training wire may still be visible, first tentative cloud shapes emerging",
	2:  "early formation stage with emerging cloud shapes starting to take form, training structure visible, branch selection beginning to define the future form",
	3:  "developing with distinct foliage pads beginning to form, branch structure becoming visible between cloud layers, the characteristic niwaki silhouette emerging",
	4:  "progressing nicely with cloud pads becoming more defined, spacing between tiers becoming clearer, trunk and primary branches showing deliberate training",
	5:  "maturing with well-defined cloud layers and exposed branch architecture, showing years of careful cultivation, distinct separation between foliage masses",
	6:  "well-established with refined cloud formations, excellent branch ramification, the tree showing clear artistic intent and horticultural skill",
	7:  "approaching maturity with elegant sculptural presence, clouds showing excellent density and definition, visible signs of patient long-term development",
	8:  "mature specimen with dramatic cloud formations, bark beginning to show character, branch structure displaying years of skilled manipulation",
	9:  "highly refined with exceptional sculptural quality, clouds showing perfect balance and proportion, approaching the character of ancient specimens",
	10: "fully mature masterpiece with dramatic sculptural cloud formations showing ancient character, refined over a decade of patient pruning, museum-quality presence",
}

var complexityDescriptions = map[Frequency]string{
	FrequencyMinimal: "simple, approachable rounded forms requiring only seasonal maintenance - natural and relaxed appearance suitable for beginners",
	FrequencyMonthly: "refined cloud shapes with moderate sculptural detail showing balanced elegance - the sweet spot between effort and impact",
	FrequencyWeekly:  "intricate multi-layered formations with fine definition and artistic precision - showing dedicated craftsmanship",
	FrequencyExpert:  "competition-grade precision with exquisite artistic detail - museum-quality craftsmanship demanding constant attention",
}

var styleNotes = map[Style]string{
	StyleSpherical: `SPHERICAL/TAMATSUKURI STYLE:
- Round, ball-shaped cloud pads arranged in elegant tiers
- Each cloud should be distinctly spherical with even foliage density
- Clear negative space between clouds revealing branch structure
- Trunk and primary branches visible and highlighted
- Classic, formal Japanese garden aesthetic
- Clouds should vary in size - larger at bottom, smaller toward top`,
	StyleTiered: `TIERED/DAN-ZUKURI STYLE:
- Horizontal layers of foliage creating distinct flat platforms
- Each tier should be clearly defined and separate from others
- Branch structure dramatically visible between layers
- Creates a sense of great age and architectural gravitas
- Reminiscent of ancient pines on windswept mountainsides
- Tiers should have slight variation - not perfectly identical`,
	StyleWindswept: `WINDSWEPT/FUKINAGASHI STYLE:
- Asymmetrical clouds suggesting persistent wind direction
- More naturalistic and dynamic appearance than formal styles
- Foliage concentrated on the leeward side of branches
- Trunk and branches may show slight lean or sweep
- Evokes coastal trees or mountain-top survivors
- Dramatic, storytelling quality with movement implied`,
	StyleNaturalistic: `NATURALISTIC/INFORMAL STYLE:
- Organic cloud shapes that enhance the plant's natural character
- Softer, flowing forms rather than strict geometric shapes
- Maintains niwaki essence while appearing almost effortless
- Branch selection emphasises the tree's innate beauty
- Suitable for informal garden settings and mixed borders
- Should look like nature perfected, not overtly manicured`,
}

// PromptParams are the per-style inputs to BuildPrompt.
type PromptParams struct {
	Style      Style
	Years      int
	Frequency  Frequency
	Resolution Resolution
}

func maturityDescription(years int) string {
	switch {
	case years <= 1:
		return maturityDescriptions[1]
	case years >= 10:
		return maturityDescriptions[10]
	default:
		return maturityDescriptions[years]
	}
}

func pluralYears(years int) string {
	if years > 1 {
		return fmt.Sprintf("%d years", years)
	}
	return fmt.Sprintf("%d year", years)
}

// BuildPrompt renders the image-generation prompt for one style.
func BuildPrompt(p PromptParams) string {
	complexity, ok := complexityDescriptions[p.Frequency]
	if !ok {
		complexity = complexityDescriptions[FrequencyMonthly]
	}
	res, ok := resolutionConfig[p.Resolution]
	if !ok {
		p.Resolution = ResolutionMedium
		res = resolutionConfig[ResolutionMedium]
	}

	var detail string
	switch p.Resolution {
	case ResolutionLow:
		detail = "Focus on overall shape and silhouette. Simplify fine details."
	case ResolutionHigh:
		detail = "Render with maximum detail - fine foliage texture, bark detail, subtle shadow gradations."
	default:
		detail = "Balance detail with efficiency - clear forms with good definition."
	}
	span := pluralYears(p.Years)

	parts := []string{
		fmt.Sprintf("Transform the plants in this garden photograph to show authentic %s style Japanese cloud pruning (niwaki).", p.Style),
		fmt.Sprintf("MATURITY: %s of development - %s", span, maturityDescription(p.Years)),
		"MAINTENANCE LEVEL: " + complexity,
	}
	if notes, ok := styleNotes[p.Style]; ok {
		parts = append(parts, notes)
	}
	parts = append(parts,
		fmt.Sprintf("OUTPUT QUALITY: %s (%dx%d)\n%s", res.Quality, res.Width, res.Height, detail),
		`ABSOLUTE REQUIREMENTS:
1. PRESERVE the exact background - all structures, sky, ground, walls, paths, lighting must be identical
2. MAINTAIN the original photograph's perspective, depth of field, and camera angle
3. KEEP the same lighting direction, shadows, and colour temperature
4. ONLY modify plants, shrubs, and trees to show cloud-pruned forms
5. Each cloud pad must have visible branch structure connecting to the trunk
6. Result must be photorealistic - indistinguishable from a real photograph
7. Do NOT add or remove any plants - transform only what exists
8. Preserve all hardscaping, fencing, garden ornaments exactly`,
		strings.Join([]string{
			"AUTHENTICITY:",
			"- The transformation must look achievable through real horticultural techniques",
			"- Show forms that a skilled gardener could actually create over " + span,
			"- Include realistic details like slightly irregular cloud edges, natural bark texture",
			"- Foliage should look healthy with appropriate density for the species",
		}, "\n"),
	)
	return strings.Join(parts, "\n\n")
}

const analysisPrompt = `Analyse this garden photograph for Japanese cloud pruning (niwaki) potential.

Examine each plant, shrub, and tree visible in the image and assess its suitability for niwaki transformation.

Return a valid JSON object with this exact structure:
{
  "plants": [
    {
      "id": "plant_1",
      "species": "suspected species name or general description",
      "location": "description of position in the image (e.g., 'left foreground', 'centre back')",
      "niwakiSuitability": 8,
      "recommendedStyle": "spherical"
    }
  ],
  "overallAssessment": "Brief 2-3 sentence description of this garden's overall niwaki potential and what styles would work best."
}

SUITABILITY GUIDELINES:
- 9-10: Pines, junipers, yew, boxwood - classic niwaki subjects
- 7-8: Privet, holly, azaleas, podocarpus - excellent candidates
- 5-6: Most evergreen shrubs, some conifers - good potential
- 3-4: Deciduous trees, less dense shrubs - challenging but possible
- 1-2: Annual flowers, herbaceous perennials, very young plants - not suitable

STYLE RECOMMENDATIONS:
- "spherical": Best for dense, fine-textured evergreens
- "tiered": Suits trees with horizontal branching habit
- "windswept": Good for naturally asymmetrical specimens
- "naturalistic": Works with most plants, especially informal gardens

Only return the JSON object, no additional text or markdown.`

// BuildAnalysisPrompt returns the prompt for the garden assessment call.
func BuildAnalysisPrompt() string {
	return analysisPrompt
}

// FallbackAnalysis is returned when the vision model's reply cannot be parsed.
func FallbackAnalysis() *GardenAnalysis {
	return &GardenAnalysis{
		Plants: []PlantAnalysis{{
			ID:                "plant_1",
			Species:           "Unknown plant",
			Location:          "Garden area",
			NiwakiSuitability: 5,
			RecommendedStyle:  StyleNaturalistic,
		}},
		OverallAssessment: "This garden has potential for niwaki transformation. We recommend trying different styles to see what works best.",
	}
}
