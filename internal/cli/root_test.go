package cli

import "testing"

func TestParseVersionArg(t *testing.T) {
	cases := []struct {
		arg     string
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{"v3", 3, false},
		{"V12", 12, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := parseVersionArg(tc.arg)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseVersionArg(%q): expected error", tc.arg)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("parseVersionArg(%q) = %d, %v; want %d", tc.arg, got, err, tc.want)
		}
	}
}

func TestIndent(t *testing.T) {
	got := indent("a\nb\n", "  ")
	if got != "  a\n  b" {
		t.Errorf("unexpected indent output %q", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("one\ntwo"); got != "one" {
		t.Errorf("firstLine = %q", got)
	}
	if got := firstLine("single"); got != "single" {
		t.Errorf("firstLine = %q", got)
	}
}
