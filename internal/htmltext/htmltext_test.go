package htmltext

import "testing"

func TestStrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"tags removed",
			"<p>Low-dust <strong>ceramic</strong> pads.</p>",
			"Low-dust ceramic pads.",
		},
		{
			"block elements become spaces",
			"<p>Front axle.</p><p>Rear axle.</p>",
			"Front axle. Rear axle.",
		},
		{
			"list items separated",
			"<ul><li>Hardware included</li><li>OEM fit</li></ul>",
			"Hardware included OEM fit",
		},
		{
			"entities resolved",
			"Fits 2015&ndash;2020 models &amp; trims",
			"Fits 2015–2020 models & trims",
		},
		{"plain text passthrough", "Just text", "Just text"},
		{"empty", "", ""},
		{"whitespace collapsed", "a\n\n   b\tc", "a b c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.input); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	body := "<p>Low-dust ceramic pads with hardware.</p>"

	if got := Summary(body, 13); got != "Low-dust cera…" {
		t.Errorf("Summary truncated = %q", got)
	}
	if got := Summary(body, 500); got != "Low-dust ceramic pads with hardware." {
		t.Errorf("Summary untruncated = %q", got)
	}
	if got := Summary(body, 0); got != "Low-dust ceramic pads with hardware." {
		t.Errorf("Summary max<=0 = %q", got)
	}
}
