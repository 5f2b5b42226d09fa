package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeywords(t *testing.T) {
	assert.Equal(t, Keywords{"Python", "python", "Go"}, NewKeywords(" Python", "python", "", "Go", "Python "))
	assert.Equal(t, Keywords{"a", "b"}, ParseKeywords("a, b,,a"))
}

func TestResult_Counts(t *testing.T) {
	r := Result{
		"Python": {"/a.txt", "/b.txt", "/c.txt"},
		"Go":     {"/a.txt"},
		"Rust":   {},
	}
	assert.Equal(t, map[string]int{"Python": 3, "Go": 1, "Rust": 0}, r.Counts())
	assert.Empty(t, Result{}.Counts())
}

func TestResult_ByFrequency(t *testing.T) {
	r := Result{
		"b": {"/1"},
		"a": {"/1"},
		"c": {"/1", "/2"},
	}
	assert.Equal(t, []string{"c", "a", "b"}, r.ByFrequency())
}

func TestResult_MergeKeepsOrder(t *testing.T) {
	r := Result{"k": {"/1"}}
	r.Merge(Result{"k": {"/3", "/2"}, "j": {"/4"}})
	assert.Equal(t, Result{"k": {"/1", "/3", "/2"}, "j": {"/4"}}, r)
	assert.Equal(t, 4, r.UniqueFiles())
}

func TestWorkerTask_NonUTF8SurvivesJSON(t *testing.T) {
	files := []string{"/d/caf\xe9.txt", "/d/plain.txt"}
	keywords := Keywords{"r\xe9sum\xe9", "go"}

	raw, err := json.Marshal(NewWorkerTask(3, "/tmp/c.sock", files, keywords, "latin-1"))
	require.NoError(t, err)

	var task WorkerTask
	require.NoError(t, json.Unmarshal(raw, &task))
	assert.Equal(t, 3, task.ID)
	assert.Equal(t, "/tmp/c.sock", task.SocketPath)
	assert.Equal(t, files, task.FileList())
	assert.Equal(t, keywords, task.KeywordList())
}
