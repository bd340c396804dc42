package imagegen

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt(PromptParams{
		Style:      StyleTiered,
		Years:      5,
		Frequency:  FrequencyWeekly,
		Resolution: ResolutionHigh,
	})

	checks := []string{
		"authentic tiered style Japanese cloud pruning",
		"MATURITY: 5 years of development - maturing with well-defined cloud layers",
		"MAINTENANCE LEVEL: intricate multi-layered formations",
		"TIERED/DAN-ZUKURI STYLE",
		"OUTPUT QUALITY: high detail (1024x1024)",
		"Render with maximum detail",
		"ABSOLUTE REQUIREMENTS",
		"could actually create over 5 years",
	}
	for _, expect := range checks {
		if !strings.Contains(got, expect) {
			t.Fatalf("prompt missing %q: %s", expect, got)
		}
	}
}

func TestBuildPromptSingularYearAndDefaults(t *testing.T) {
	got := BuildPrompt(PromptParams{Style: StyleSpherical, Years: 1, Frequency: "unknown", Resolution: ""})
	if !strings.Contains(got, "MATURITY: 1 year of development") {
		t.Fatalf("expected singular year: %s", got)
	}
	if !strings.Contains(got, complexityDescriptions[FrequencyMonthly]) {
		t.Fatalf("expected monthly fallback complexity")
	}
	if !strings.Contains(got, "OUTPUT QUALITY: balanced (768x768)") {
		t.Fatalf("expected medium fallback resolution: %s", got)
	}
}

func TestMaturityDescriptionClamps(t *testing.T) {
	if maturityDescription(0) != maturityDescriptions[1] {
		t.Fatalf("years below range should clamp to 1")
	}
	if maturityDescription(12) != maturityDescriptions[10] {
		t.Fatalf("years above range should clamp to 10")
	}
	for y := 1; y <= 10; y++ {
		if maturityDescription(y) == "" {
			t.Fatalf("missing maturity description for %d", y)
		}
	}
}

func TestStyleDisplayName(t *testing.T) {
	cases := map[Style]string{
		StyleSpherical:    "Spherical Clouds",
		StyleTiered:       "Tiered Layers",
		StyleWindswept:    "Windswept",
		StyleNaturalistic: "Naturalistic",
		Style("moyogi-informal"): "Moyogi Informal",
	}
	for style, want := range cases {
		if got := style.DisplayName(); got != want {
			t.Fatalf("DisplayName(%q) = %q, want %q", style, got, want)
		}
	}
}

func TestDecodeImagePayload(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff}
	enc := base64.StdEncoding.EncodeToString(raw)

	src, err := DecodeImagePayload(enc)
	if err != nil {
		t.Fatalf("raw base64: %v", err)
	}
	if src.MIMEType != "image/jpeg" || string(src.Data) != string(raw) {
		t.Fatalf("unexpected decode: %+v", src)
	}

	src, err = DecodeImagePayload("data:image/png;base64," + enc)
	if err != nil {
		t.Fatalf("data url: %v", err)
	}
	if src.MIMEType != "image/png" {
		t.Fatalf("expected png mime, got %s", src.MIMEType)
	}

	for _, bad := range []string{"", "data:image/png," + enc, "data:text/plain;base64," + enc, "not base64!!"} {
		if _, err := DecodeImagePayload(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestImageDataURI(t *testing.T) {
	img := Image{Data: []byte("abc"), MIMEType: "image/jpeg"}
	if got := img.DataURI(); got != "data:image/jpeg;base64,YWJj" {
		t.Fatalf("unexpected data uri %q", got)
	}
}
