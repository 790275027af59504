package utils

import "testing"

func TestParseInt64Opt(t *testing.T) {
	cases := []struct {
		s       string
		def     int64
		want    int64
		wantErr bool
	}{
		{"", 7, 7, false},
		{"   ", 7, 7, false},
		{"42", 0, 42, false},
		{" 42 ", 0, 42, false},
		{"-3", 0, -3, false},
		{"1700000000", 0, 1700000000, false},
		{"x", 0, 0, true},
		{"4.2", 0, 0, true},
		{"999999999999999999999999", 0, 0, true},
	}
	for _, tc := range cases {
		got, err := ParseInt64Opt(tc.s, tc.def)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseInt64Opt(%q) err = %v; wantErr %v", tc.s, err, tc.wantErr)
		}
		if !tc.wantErr && got != tc.want {
			t.Fatalf("ParseInt64Opt(%q) = %d; want %d", tc.s, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(0, 1, 50) != 1 || Clamp(51, 1, 50) != 50 || Clamp(20, 1, 50) != 20 {
		t.Fatalf("Clamp bounds wrong")
	}
}
