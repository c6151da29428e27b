package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   \t\n ", nil},
		{"simple sentence", "Se cyning wæs.", []string{"Se", "cyning", "wæs"}},
		{"trailing bang", "Hwæt!", []string{"Hwæt"}},
		{"trailing question", "Hwæt sceal iċ singan?", []string{"Hwæt", "sceal", "iċ", "singan"}},
		{"hyphenated compound", "ġe-wāt cyning", []string{"ġe-wāt", "cyning"}},
		{"multi-hyphen compound", "here-wulf-heort wæs", []string{"here-wulf-heort", "wæs"}},
		{"en dash compound", "ġe–wāt", []string{"ġe–wāt"}},
		{"standalone hyphen", "word - word", []string{"word", "word"}},
		{"standalone em dash", "word — word", []string{"word", "word"}},
		{"attached comma", "cyning, wæs", []string{"cyning", "wæs"}},
		{"attached colon", "cwæð hē: wæs", []string{"cwæð", "hē", "wæs"}},
		{"standalone period mid-sentence", "wæs . gōd", []string{"wæs", "gōd"}},
		{"quote punctuation cluster", `singan?" wæs`, []string{"singan", "wæs"}},
		{"standalone cluster word", `"Hwæt!" cwæð`, []string{"Hwæt", "cwæð"}},
		{"curly quote cluster", "singan?” wæs", []string{"singan", "wæs"}},
		{"leading quote", `"Se cyning`, []string{"Se", "cyning"}},
		{"brackets join no run", "(wæs)", []string{"wæs"}},
		{"footnote residue", "cyning[1]", []string{"cyning", "1"}},
		{"digits", "983 wintra", []string{"983", "wintra"}},
		{"ellipsis survives", "...", []string{"..."}},
		{"old english letters", "Þā wǣron ǣr ȳðum", []string{"Þā", "wǣron", "ǣr", "ȳðum"}},
		{"trailing single terminal", "wæs gōd?", []string{"wæs", "gōd"}},
		// Only a token that is exactly ".", "!", or "?" is popped from
		// the end; a doubled mark is left alone.
		{"doubled terminal survives", "wæs gōd??", []string{"wæs", "gōd", "??"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenizeOrderIsLeftToRight(t *testing.T) {
	got := Tokenize(`Þā cwæð hē: "Hwæt sceal iċ singan?"`)
	want := []string{"Þā", "cwæð", "hē", "Hwæt", "sceal", "iċ", "singan"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize order = %v, want %v", got, want)
	}
}
