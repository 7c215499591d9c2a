package fixture

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ballotfix/internal/election"
)

func requireSameContent(t *testing.T, want, got *election.Election) {
	t.Helper()
	assert.Equal(t, want.Ballots, got.Ballots)
	assert.Equal(t, want.Tallies, got.Tallies)
	assert.Equal(t, want.Reported, got.Reported)
	assert.Equal(t, election.MustContentHash(want), election.MustContentHash(got))
}

func TestRoundTrip_AllFormats(t *testing.T) {
	original := loadEx1(t)

	for _, format := range ValidFormats {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(original, format)
			require.NoError(t, err)

			reloaded, err := Decode(data, format, "roundtrip")
			require.NoError(t, err, string(data))
			requireSameContent(t, original, reloaded)
		})
	}
}

func TestRoundTrip_JSONPreservesComments(t *testing.T) {
	original := loadEx1(t)

	data, err := Encode(original, FormatJSON)
	require.NoError(t, err)
	reloaded, err := Decode(data, FormatJSON, "roundtrip.json")
	require.NoError(t, err)

	assert.Equal(t, original, reloaded)
}

func TestRoundTrip_YAMLPreservesComments(t *testing.T) {
	original := loadEx1(t)

	data, err := Encode(original, FormatYAML)
	require.NoError(t, err)
	reloaded, err := Decode(data, FormatYAML, "roundtrip.yaml")
	require.NoError(t, err, string(data))

	assert.Equal(t, original.Comments, reloaded.Comments, string(data))
}

func TestRoundTrip_CrossFormat(t *testing.T) {
	original := loadEx1(t)

	yamlData, err := Encode(original, FormatYAML)
	require.NoError(t, err)
	fromYAML, err := Decode(yamlData, FormatYAML, "x.yaml")
	require.NoError(t, err)

	cueData, err := Encode(fromYAML, FormatCUE)
	require.NoError(t, err)
	fromCUE, err := Decode(cueData, FormatCUE, "x.cue")
	require.NoError(t, err, string(cueData))

	jsonData, err := Encode(fromCUE, FormatJSON)
	require.NoError(t, err)
	fromJSON, err := Decode(jsonData, FormatJSON, "x.json")
	require.NoError(t, err)

	requireSameContent(t, original, fromJSON)
}

func TestEncodeJSON_Layout(t *testing.T) {
	e := election.New()
	e.Ballots["P"] = 3
	e.SetTally("c", "P", "b", 1)
	e.SetTally("c", "P", "a", 2)
	e.Reported["c"] = "a"
	e.AddComment("n", "sizes")
	e.AddComment("", "end")

	data, err := Encode(e, FormatJSON)
	require.NoError(t, err)

	want := `{
  "__comment": "sizes",
  "n": {
    "P": 3
  },
  "t": {
    "c": {
      "P": {
        "a": 2,
        "b": 1
      }
    }
  },
  "ro": {
    "c": "a"
  },
  "__comment": "end"
}
`
	assert.Equal(t, want, string(data))
}

func TestEncodeJSON_EmptyElection(t *testing.T) {
	data, err := Encode(election.New(), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"n\": {},\n  \"t\": {},\n  \"ro\": {}\n}\n", string(data))

	reloaded, err := Decode(data, FormatJSON, "empty.json")
	require.NoError(t, err)
	assert.Empty(t, reloaded.Ballots)
}

func TestEncodeJSON_NoHTMLEscape(t *testing.T) {
	e := election.New()
	e.Ballots["<A&B>"] = 1

	data, err := Encode(e, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"<A&B>": 1`)
}

func TestEncodeJSON_PreservesNonNFCIDs(t *testing.T) {
	e := election.New()
	e.Ballots["Jose\u0301"] = 1

	data, err := Encode(e, FormatJSON)
	require.NoError(t, err)
	reloaded, err := Decode(data, FormatJSON, "x.json")
	require.NoError(t, err)
	assert.Contains(t, reloaded.Ballots, "Jose\u0301")
}

func TestEncodeJSON_DistinctNormalizationForms(t *testing.T) {
	e := election.New()
	e.Ballots["P"] = 5
	e.SetTally("C", "P", "e\u0301", 1)
	e.SetTally("C", "P", "\u00e9", 2)
	e.Reported["C"] = "\u00e9"

	for _, format := range []Format{FormatJSON, FormatCanonical} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(e, format)
			require.NoError(t, err)
			reloaded, err := Decode(data, FormatJSON, "x.json")
			require.NoError(t, err)
			assert.Equal(t, map[string]int64{"e\u0301": 1, "\u00e9": 2}, reloaded.Tallies["C"]["P"])
			assert.Equal(t, election.MustContentHash(e), election.MustContentHash(reloaded))
		})
	}
}

func TestEncodeCanonical(t *testing.T) {
	data, err := Encode(loadEx1(t), FormatCanonical)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `{"n":{"PBC1":10000,`))
	assert.NotContains(t, string(data), "__comment")
}

func TestEncodeCUE_HasDocComments(t *testing.T) {
	data, err := Encode(loadEx1(t), FormatCUE)
	require.NoError(t, err)
	assert.Contains(t, string(data), "// number of ballots for each paper ballot collection")
}

func TestEncode_UnknownFormat(t *testing.T) {
	_, err := Encode(election.New(), Format("xml"))
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, loadEx1(t), FormatCanonical))
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
}

func TestWriteFile_DetectsFormat(t *testing.T) {
	original := loadEx1(t)
	dir := t.TempDir()

	for _, name := range []string{"out.json", "out.yaml", "out.cue"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, original, ""))

		reloaded, err := Load(path, "")
		require.NoError(t, err, name)
		requireSameContent(t, original, reloaded)
	}
}

func TestWriteFile_BadDirectory(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "out.json"), election.New(), "")
	requireLoadError(t, err, ErrCodeWriteFailed)
}
