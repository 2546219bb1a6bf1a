package shared

import "testing"

func TestFoldSearch(t *testing.T) {
	cases := map[string]string{
		"João da Silva":  "joao da silva",
		"  Cação  ":      "cacao",
		"AÇÚCAR":         "acucar",
		"parafuso 3/8":   "parafuso 3/8",
		"":               "",
		"Transportadora": "transportadora",
	}
	for in, want := range cases {
		if got := FoldSearch(in); got != want {
			t.Errorf("FoldSearch(%q) = %q, want %q", in, got, want)
		}
	}
}
