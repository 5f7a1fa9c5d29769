package ingest

import "testing"

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		isNil bool
	}{
		{name: "plain", input: "42", want: 42},
		{name: "grouped thousands", input: "31,079.00", want: 31079},
		{name: "parenthesized negative", input: "(1,234)", want: -1234},
		{name: "rupee symbol", input: "₹ 1,200", want: 1200},
		{name: "dollar symbol", input: "$ 3.50", want: 3.5},
		{name: "percent keeps face value", input: "12.5%", want: 12.5},
		{name: "negative percent", input: "(2.5%)", want: -2.5},
		{name: "leading whitespace", input: "  7 ", want: 7},
		{name: "empty", input: "", isNil: true},
		{name: "dash placeholder", input: "-", isNil: true},
		{name: "em dash placeholder", input: "—", isNil: true},
		{name: "not applicable", input: "N/A", isNil: true},
		{name: "na", input: "NA", isNil: true},
		{name: "nil word", input: "nil", isNil: true},
		{name: "none word", input: "None", isNil: true},
		{name: "garbage", input: "abc", isNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFloat(tt.input)
			if tt.isNil {
				if got != nil {
					t.Fatalf("ParseFloat(%q) = %v, want nil", tt.input, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseFloat(%q) = nil, want %v", tt.input, tt.want)
			}
			if *got != tt.want {
				t.Fatalf("ParseFloat(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		isNil bool
	}{
		{input: "1,500", want: 1500},
		{input: "2.6", want: 3},
		{input: "2.4", want: 2},
		{input: "(10)", want: -10},
		{input: "-", isNil: true},
		{input: "abc", isNil: true},
	}

	for _, tt := range tests {
		got := ParseInt(tt.input)
		if tt.isNil {
			if got != nil {
				t.Errorf("ParseInt(%q) = %v, want nil", tt.input, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("ParseInt(%q) = %v, want %d", tt.input, got, tt.want)
		}
	}
}
