package money

import "testing"

func TestServiceTax(t *testing.T) {
	cases := []struct {
		name string
		base Money
		want Money
	}{
		{"whole", 10000, 1000},     // 100.00 -> 10.00
		{"rounds down", 3333, 333}, // 33.33 -> 3.333 -> 3.33
		{"half rounds up", 45, 5},  // 0.45 -> 0.045 -> 0.05
		{"rounds up", 3336, 334},   // 33.36 -> 3.336 -> 3.34
		{"zero", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ServiceTax(tc.base); got != tc.want {
				t.Fatalf("ServiceTax(%d) = %d, want %d", tc.base, got, tc.want)
			}
		})
	}
}

func TestAccumulateIsExact(t *testing.T) {
	var total Money
	values := []Money{4000, 6000, 1, 99, 12345}
	var want Money
	for _, v := range values {
		total = Accumulate(total, v)
		want += v
	}
	if total != want {
		t.Fatalf("total = %d, want %d", total, want)
	}
	// order independence
	var reversed Money
	for i := len(values) - 1; i >= 0; i-- {
		reversed = Accumulate(reversed, values[i])
	}
	if reversed != total {
		t.Fatalf("reversed total = %d, want %d", reversed, total)
	}
}

func TestSumRounded(t *testing.T) {
	if got := SumRounded(4000, 400); got != 4400 {
		t.Fatalf("SumRounded = %d, want 4400", got)
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{"40.00", 4000, false},
		{"33.33", 3333, false},
		{"40", 4000, false},
		{"40.5", 4050, false},
		{"0.05", 5, false},
		{"0", 0, false},
		{" 12.34 ", 1234, false},
		{"", 0, true},
		{"-1.00", 0, true},
		{"+1.00", 0, true},
		{"1.234", 0, true},
		{"1.", 0, true},
		{".5", 0, true},
		{"abc", 0, true},
		{"1,50", 0, true},
		// int64 boundary: 92233720368547758.07 cents is MaxInt64 exactly.
		{"92233720368547758.07", 1<<63 - 1, false},
		{"92233720368547758.08", 0, true},
		{"92233720368547758.99", 0, true},
		{"92233720368547759", 0, true},
		{"99999999999999999999", 0, true},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("Parse(%q) expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Parse(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in   Money
		want string
	}{
		{4000, "40.00"},
		{5, "0.05"},
		{0, "0.00"},
		{333, "3.33"},
		{-150, "-1.50"},
	}
	for _, tc := range cases {
		if got := Format(tc.in); got != tc.want {
			t.Fatalf("Format(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, v := range []Money{0, 1, 99, 100, 4000, 123456789} {
		parsed, err := Parse(Format(v))
		if err != nil {
			t.Fatalf("round trip %d: %v", v, err)
		}
		if parsed != v {
			t.Fatalf("round trip %d -> %d", v, parsed)
		}
	}
}
