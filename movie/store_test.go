package movie

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseRecord(title string) Record {
	return Record{
		Title:       title,
		Poster:      "https://img.example.com/" + title + ".jpg",
		Description: "About " + title,
		Genre:       []string{"Drama", "Thriller"},
		Year:        "2023",
		URL:         "https://example.com/movies/" + title,
	}
}

// TestStore_AppendKeepsOrder verifies records come back in insertion order
func TestStore_AppendKeepsOrder(t *testing.T) {
	store := NewStore()
	store.Append(baseRecord("a"))
	store.Append(baseRecord("b"))
	store.Append(baseRecord("a"))

	records := store.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].Title)
	assert.Equal(t, "b", records[1].Title)
	assert.Equal(t, "a", records[2].Title, "duplicates are kept")
	assert.Equal(t, 3, store.Len())
}

// TestStore_RecordsReturnsCopy verifies callers cannot mutate the store
func TestStore_RecordsReturnsCopy(t *testing.T) {
	store := NewStore()
	store.Append(baseRecord("a"))

	records := store.Records()
	records[0].Title = "changed"

	assert.Equal(t, "a", store.Records()[0].Title)
}

// TestStore_RecordsCopiesNestedFields verifies slices and details handed out
// by Records are not shared with the store
func TestStore_RecordsCopiesNestedFields(t *testing.T) {
	admin := baseRecord("a")
	admin.Details = &Details{Rating: "7.0", Cast: []string{"Lead"}, Director: "Someone"}

	store := NewStore()
	store.Append(admin)
	admin.Cast[0] = "changed before read"

	records := store.Records()
	records[0].Genre[0] = "changed"
	records[0].Cast[0] = "changed"
	records[0].Rating = "1.0"

	got := store.Records()[0]
	assert.Equal(t, []string{"Drama", "Thriller"}, got.Genre)
	assert.Equal(t, []string{"Lead"}, got.Cast)
	assert.Equal(t, "7.0", got.Rating)
}

// TestStore_FlushRoundTrip verifies N records written come back as N equal
// records
func TestStore_FlushRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")

	admin := baseRecord("c")
	admin.Details = &Details{
		Rating:   "8.1",
		Cast:     []string{"First Actor", "Second Actor"},
		Director: "Some Director",
	}
	admin.Details.Stamp(time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC))

	store := NewStore()
	store.Append(baseRecord("a"))
	store.Append(baseRecord("b"))
	store.Append(admin)

	require.NoError(t, store.Flush(path))

	got, err := ReadFile(path)
	require.NoError(t, err)
	if diff := cmp.Diff(store.Records(), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "2024-03-09 14:05:07", got[2].ScrapedAt)
}

// TestStore_FlushOverwrites verifies an existing file is replaced
func TestStore_FlushOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")
	require.NoError(t, os.WriteFile(path, []byte("previous content that is longer than []"), 0o644))

	require.NoError(t, NewStore().Flush(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

// TestStore_FlushPreservesNonASCII verifies UTF-8 text is not escaped
func TestStore_FlushPreservesNonASCII(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")

	r := baseRecord("x")
	r.Title = "Amélie & Léon <Ōkami>"
	store := NewStore()
	store.Append(r)
	require.NoError(t, store.Flush(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title": "Amélie & Léon <Ōkami>"`)
	assert.Contains(t, string(data), "\n  {\n    \"title\"", "should be indented with two spaces")
}

// TestRecord_BaseFieldsOnly verifies public records carry exactly the six
// base fields
func TestRecord_BaseFieldsOnly(t *testing.T) {
	store := NewStore()
	r := baseRecord("a")
	r.Genre = nil
	store.Append(r)

	data, err := encode(store.Records())
	require.NoError(t, err)

	var objects []map[string]any
	require.NoError(t, json.Unmarshal(data, &objects))
	require.Len(t, objects, 1)

	keys := make([]string, 0, len(objects[0]))
	for k := range objects[0] {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"title", "poster", "description", "genre", "year", "url"}, keys)
	assert.Equal(t, []any{}, objects[0]["genre"], "nil genre should encode as an empty array")
}

// TestRecord_AdminFields verifies admin records add rating, cast, director and
// scraped_at
func TestRecord_AdminFields(t *testing.T) {
	r := baseRecord("a")
	r.Details = &Details{Rating: "7.0", Director: "D"}

	store := NewStore()
	store.Append(r)
	data, err := encode(store.Records())
	require.NoError(t, err)

	var objects []map[string]any
	require.NoError(t, json.Unmarshal(data, &objects))
	require.Len(t, objects, 1)

	assert.Len(t, objects[0], 10)
	for _, key := range []string{"rating", "cast", "director", "scraped_at"} {
		assert.Contains(t, objects[0], key)
	}
	assert.Equal(t, []any{}, objects[0]["cast"])
}

// TestReadFile_Missing verifies a missing file is reported
func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
