package frontmatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	meta, rest, found := Split("---\ntitle: Лес\n---\nbody\n")
	assert.True(t, found)
	assert.Equal(t, "title: Лес\n", meta)
	assert.Equal(t, "body\n", rest)

	meta, rest, found = Split("no block\n")
	assert.False(t, found)
	assert.Empty(t, meta)
	assert.Equal(t, "no block\n", rest)

	meta, rest, found = Split("---\n---\nbody")
	assert.True(t, found)
	assert.Empty(t, meta)
	assert.Equal(t, "body", rest)
}

func TestAliases(t *testing.T) {
	tests := []struct {
		name string
		text string
		want any
	}{
		{"no block", "body", nil},
		{"absent key", "---\ntags: [a]\n---\nbody", nil},
		{"null value", "---\naliases:\n---\nbody", nil},
		{"single string", "---\naliases: Лесок\n---\n", "Лесок"},
		{"flow sequence", "---\naliases: [Лесок, Лесной]\n---\n", []any{"Лесок", "Лесной"}},
		{"block sequence", "---\naliases:\n  - Оке\n  - Окой\n---\n", []any{"Оке", "Окой"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aliases(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAliases_InvalidYAML(t *testing.T) {
	_, err := Aliases("---\naliases: [unclosed\n---\nbody")
	assert.Error(t, err)
}

func TestSetAliases_NoBlock(t *testing.T) {
	out, err := SetAliases("Ока — река.\n", []string{"Оке", "Окой"})
	require.NoError(t, err)
	assert.Equal(t, "---\naliases:\n  - Оке\n  - Окой\n---\nОка — река.\n", out)
}

func TestSetAliases_PreservesOtherKeysAndBody(t *testing.T) {
	in := "---\ntitle: Лес\ntags:\n  - nature\naliases: [Лесок]\ncreated: 2024-01-01\n---\n\n# Лес\n\nТекст.\n"

	out, err := SetAliases(in, []string{"Лесок", "Лесной"})
	require.NoError(t, err)

	fields, err := Fields(out)
	require.NoError(t, err)
	assert.Equal(t, "Лес", fields["title"])
	assert.Equal(t, []any{"nature"}, fields["tags"])
	assert.Equal(t, []any{"Лесок", "Лесной"}, fields["aliases"])
	assert.Contains(t, out, "aliases: [Лесок, Лесной]\n")
	assert.Equal(t, "\n# Лес\n\nТекст.\n", Strip(out))
}

func TestSetAliases_AppendsKey(t *testing.T) {
	out, err := SetAliases("---\ntitle: x\n---\nbody", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: x\naliases:\n  - a\n---\nbody", out)
}

func TestSetAliases_EmptyBlock(t *testing.T) {
	out, err := SetAliases("---\n---\nbody", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "---\naliases:\n  - a\n---\nbody", out)
}

func TestSetAliases_ReplacesScalar(t *testing.T) {
	out, err := SetAliases("---\naliases: Лесок\n---\n", []string{"Лесок", "лесок"})
	require.NoError(t, err)

	got, err := Aliases(out)
	require.NoError(t, err)
	assert.Equal(t, []any{"Лесок", "лесок"}, got)
}

func TestSetAliases_QuotesNonStrings(t *testing.T) {
	out, err := SetAliases("body", []string{"1984", "true"})
	require.NoError(t, err)

	got, err := Aliases(out)
	require.NoError(t, err)
	assert.Equal(t, []any{"1984", "true"}, got)
}

func TestSetAliases_NotAMapping(t *testing.T) {
	_, err := SetAliases("---\n- a\n- b\n---\nbody", []string{"x"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not a mapping")
}

func TestSetAliases_KeepsCRLF(t *testing.T) {
	in := "---\r\ntitle: Лес\r\naliases: Лесок\r\n---\r\nТекст.\r\nЕщё.\r\n"

	out, err := SetAliases(in, []string{"Лесок", "Лесной"})
	require.NoError(t, err)
	assert.Equal(t, "---\r\ntitle: Лес\r\naliases:\r\n  - Лесок\r\n  - Лесной\r\n---\r\nТекст.\r\nЕщё.\r\n", out)
	assert.NotContains(t, strings.ReplaceAll(out, "\r\n", ""), "\n")

	aliases, err := Aliases(out)
	require.NoError(t, err)
	assert.Equal(t, []any{"Лесок", "Лесной"}, aliases)
}

func TestSetAliases_NoBlockCRLFBody(t *testing.T) {
	out, err := SetAliases("Ока.\r\n", []string{"Оке"})
	require.NoError(t, err)
	assert.Equal(t, "---\r\naliases:\r\n  - Оке\r\n---\r\nОка.\r\n", out)
}
