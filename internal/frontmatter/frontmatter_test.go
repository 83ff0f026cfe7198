package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("---\nkey: value\n# Title\n")

	_, _, had, err := Split(input)
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\r\nkey: value\r\n---\r\n# Title\r\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatterBlock_SplitsAsHadWithEmptyFrontmatter(t *testing.T) {
	input := []byte("---\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestParseYAML_DecodesScalarsAndLists(t *testing.T) {
	fields, err := ParseYAML([]byte("title: Movies\nprerender:\n  - /movie/1\n  - url: /movie/2\n    pageContext:\n      hero: true\n"))
	require.NoError(t, err)
	require.Equal(t, "Movies", fields["title"])

	list, ok := fields["prerender"].([]any)
	require.True(t, ok)
	require.Len(t, list, 2)
	require.Equal(t, "/movie/1", list[0])

	record, ok := list[1].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "/movie/2", record["url"])
}

func TestParseYAML_EmptyInput_ReturnsEmptyMap(t *testing.T) {
	fields, err := ParseYAML(nil)
	require.NoError(t, err)
	require.NotNil(t, fields)
	require.Empty(t, fields)
}

func TestParse_CombinesSplitAndDecode(t *testing.T) {
	fields, body, err := Parse([]byte("---\nroute: /blog\n---\n# Blog\n"))
	require.NoError(t, err)
	require.Equal(t, "/blog", fields["route"])
	require.Equal(t, []byte("# Blog\n"), body)

	fields, body, err = Parse([]byte("plain body\n"))
	require.NoError(t, err)
	require.Empty(t, fields)
	require.Equal(t, []byte("plain body\n"), body)
}
