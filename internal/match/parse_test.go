package match

import "testing"

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected CategoryInfo
	}{
		{
			"Adult / Black / Gi / 85KG (Sun)",
			CategoryInfo{Category: "Adult", Belt: "Black", Type: "Gi", Weight: "85KG", Day: "Sun"},
		},
		{
			"Adult / Black / Gi / 85KG",
			CategoryInfo{Category: "Adult", Belt: "Black", Type: "Gi", Weight: "85KG"},
		},
		{
			"Adult / Black / Gi",
			CategoryInfo{Category: "Adult", Belt: "Black", Type: "Gi"},
		},
		{
			"Master 1 / Brown / No-Gi / Open Class",
			CategoryInfo{Category: "Master 1", Belt: "Brown", Type: "No-Gi", Weight: "Open Class"},
		},
		{
			"Youth / White / Gi / 62KG(Sat)",
			CategoryInfo{Category: "Youth", Belt: "White", Type: "Gi", Weight: "62KG", Day: "Sat"},
		},
		{
			"Adult",
			CategoryInfo{Category: "Adult"},
		},
		{
			"",
			CategoryInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseCategory(tt.input)
			if got != tt.expected {
				t.Errorf("ParseCategory(%q) = %+v, expected %+v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseVictory(t *testing.T) {
	tests := []struct {
		input   string
		via     string
		elapsed string
	}{
		{"Won by Submission - 03:45", "Submission", "03:45"},
		{"Won by Points", "Points", ""},
		{"Won by Referee Decision - 10:00", "Referee Decision", "10:00"},
		{"Won by Walkover", "Walkover", ""},
		{"JOHN DOE Won by Advantages - 06:12", "Advantages", "06:12"},
		{"Lost by Points", "", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			via, elapsed := ParseVictory(tt.input)
			if via != tt.via || elapsed != tt.elapsed {
				t.Errorf("ParseVictory(%q) = (%q, %q), expected (%q, %q)",
					tt.input, via, elapsed, tt.via, tt.elapsed)
			}
		})
	}
}
