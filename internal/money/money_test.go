package money

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"40.00", 4000, false},
		{"100", 10000, false},
		{"0.5", 50, false},
		{"0.05", 5, false},
		{"19.99", 1999, false},
		{"0", 0, true},
		{"0.00", 0, true},
		{"-5", 0, true},
		{"1.234", 0, true},
		{"abc", 0, true},
		{"1,50", 0, true},
		{"", 0, true},
		{" 25.10 ", 2510, false},
	}

	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := Format(4000); got != "40.00" {
		t.Fatalf("Format(4000) = %q", got)
	}
	if got := Format(5); got != "0.05" {
		t.Fatalf("Format(5) = %q", got)
	}
	if got := Format(-1250); got != "-12.50" {
		t.Fatalf("Format(-1250) = %q", got)
	}
}
