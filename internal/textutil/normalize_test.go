package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lowercase", "Hola MUNDO", "hola mundo"},
		{"diacritics", "Canción Año Pingüino", "cancion ano pinguino"},
		{"whitespace", "  a \t\n b   c  ", "a b c"},
		{"combining sequence", "él", "el"},
		{"digits kept", "Programa 2024-03-15", "programa 2024-03-15"},
		{"spacing diacritics", "D´Elía ^ Martín` ¨", "delia martin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Árbol  ÉNFASIS",
		"Ñandú   über café",
		"İstanbul",
		"  ya   normalizado ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeAccentedAndPlainMatch(t *testing.T) {
	assert.Equal(t, Normalize("Perón"), Normalize("peron"))
	assert.Equal(t, Normalize("CORAZÓN"), Normalize("corazon"))
}

func TestTokens(t *testing.T) {
	assert.Nil(t, Tokens(""))
	assert.Nil(t, Tokens("   "))
	assert.Equal(t, []string{"la", "revolucion", "de", "mayo"}, Tokens(" La  Revolución de MAYO "))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "titulo 2024-01-02 2024 01 id", Join("Título", "2024-01-02", "2024", "", "01", "id"))
	assert.Equal(t, "", Join("", ""))
}

func TestSquash(t *testing.T) {
	assert.Equal(t, "La Revolución de Mayo", Squash("  La\tRevolución \n de   Mayo "))
	assert.Equal(t, "", Squash(" \n\t "))
}
