package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"12", 1200, false},
		{"0.01", 1, false},
		{"12.345", 1234, false},
		{"12.346", 1235, false},
		{".5", 50, false},
		{"", 0, true},
		{"0", 0, true},
		{"-5", 0, true},
		{"+5", 0, true},
		{"1.2.3", 0, true},
		{"abc", 0, true},
		{"12a", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"number", `950.5`, 95050},
		{"integer", `1000`, 100000},
		{"string", `"12.34"`, 1234},
		{"zero", `0`, 0},
		{"negative", `-3.5`, -350},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Money
			if err := json.Unmarshal([]byte(tt.in), &m); err != nil {
				t.Fatalf("unmarshal %q: %v", tt.in, err)
			}
			if m.Cents != tt.want {
				t.Errorf("Cents = %d, want %d", m.Cents, tt.want)
			}
		})
	}

	out, err := json.Marshal(Money{Cents: 95050})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "950.5" {
		t.Errorf("marshal = %s, want 950.5", out)
	}
}

func TestMoneyFloat(t *testing.T) {
	if got := (Money{Cents: 1234}).Float(); got != 12.34 {
		t.Errorf("Float() = %v, want 12.34", got)
	}
}
