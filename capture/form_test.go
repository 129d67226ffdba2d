package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseForm_Fields(t *testing.T) {
	fields := ParseForm("name=Mataki&email=mataki%40example.com&age=28")

	require.Len(t, fields, 3)
	assert.Equal(t, FormField{Key: "name", Value: "Mataki", HasValue: true}, fields[0])
	assert.Equal(t, FormField{Key: "email", Value: "mataki@example.com", HasValue: true}, fields[1])
	assert.Equal(t, FormField{Key: "age", Value: "28", HasValue: true}, fields[2])
}

func TestParseForm_PlusIsSpace(t *testing.T) {
	fields := ParseForm("greeting=hello+world&full%20name=a%2Bb")

	require.Len(t, fields, 2)
	assert.Equal(t, "hello world", fields[0].Value)
	assert.Equal(t, "full name", fields[1].Key)
	assert.Equal(t, "a+b", fields[1].Value)
}

func TestParseForm_NoValue(t *testing.T) {
	fields := ParseForm("flag&key=")

	require.Len(t, fields, 2)
	assert.Equal(t, "flag", fields[0].Key)
	assert.False(t, fields[0].HasValue)
	assert.True(t, fields[1].HasValue)
	assert.Empty(t, fields[1].Value)
}

func TestParseForm_InvalidEscapeKept(t *testing.T) {
	fields := ParseForm("bad=%zz")

	require.Len(t, fields, 1)
	assert.Equal(t, "%zz", fields[0].Value)
}

func TestParseForm_MixedEscapes(t *testing.T) {
	fields := ParseForm("q=100%25+done%ZZ&email=a%40b&tail=50%&name=caf%C3%A9%2")

	require.Len(t, fields, 4)
	assert.Equal(t, "100% done%ZZ", fields[0].Value)
	assert.Equal(t, "a@b", fields[1].Value)
	assert.Equal(t, "50%", fields[2].Value)
	assert.Equal(t, "café%2", fields[3].Value)
}

func TestParseForm_InvalidUTF8EscapeKept(t *testing.T) {
	fields := ParseForm("v=%FFok%41")

	require.Len(t, fields, 1)
	assert.Equal(t, "%FFokA", fields[0].Value)
}

func TestParseForm_SplitsOnFirstEquals(t *testing.T) {
	fields := ParseForm("expr=a=b")

	require.Len(t, fields, 1)
	assert.Equal(t, "a=b", fields[0].Value)
}

func TestParseForm_Empty(t *testing.T) {
	assert.Empty(t, ParseForm(""))
}
