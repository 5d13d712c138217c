package gazetteer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPeopleKnown(t *testing.T) {
	d := Default()
	assert.Equal(t, []string{"napoleon bonaparte"}, d.DetectPeople("Who was Napoleon?"))
	assert.Equal(t, []string{"napoleon bonaparte"}, d.DetectPeople("Where was NAPOLEON born?"))
}

func TestDetectPeopleNone(t *testing.T) {
	d := Default()
	assert.Empty(t, d.DetectPeople("Random unrelated text"))
	assert.Empty(t, d.DetectPeople("what is the tallest mountain?"))
}

func TestDetectPeopleHeuristic(t *testing.T) {
	d := Default()
	people := d.DetectPeople("What did Marbury Madison argue?")
	assert.Contains(t, people, "marbury madison")
}

func TestDetectPeopleStoplist(t *testing.T) {
	d := Default()
	assert.Empty(t, d.DetectPeople("How large was the Roman Empire?"))
	assert.Empty(t, d.DetectPeople("Is New York a state?"))
}

func TestDetectPeopleNoDuplicateForAlias(t *testing.T) {
	d := Default()
	// "Napoleon Bonaparte" matches both the gazetteer and the capitalized
	// name heuristic; it must come back once, under the canonical name.
	people := d.DetectPeople("Tell me about Napoleon Bonaparte please")
	assert.Equal(t, []string{"napoleon bonaparte"}, people)
}

func TestDetectEvents(t *testing.T) {
	d := Default()
	assert.Equal(t, []string{"world war ii"}, d.DetectEvents("What started WW2?"))
	assert.Empty(t, d.DetectEvents("What is a sonnet?"))
}

func TestDetectMultipleSorted(t *testing.T) {
	d := Default()
	people := d.DetectPeople("Did Churchill ever meet Stalin?")
	assert.Equal(t, []string{"joseph stalin", "winston churchill"}, people)
}

func TestLoadCustomTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	data := []byte("people:\n  ada lovelace: [lovelace, ada]\nevents: {}\nstoplist: []\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ada lovelace"}, d.DetectPeople("Who was Lovelace?"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
