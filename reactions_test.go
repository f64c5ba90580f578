package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDefaults(t *testing.T) {
	table := defaultReactionTable()

	assert.Equal(t, ActionComment, table.Classify("speech_balloon"))
	assert.Equal(t, ActionApproval, table.Classify("white_check_mark"))
	assert.Equal(t, ActionUpdateRequest, table.Classify("arrows_counterclockwise"))
	assert.Equal(t, ActionMergeCleanup, table.Classify("merged"))
	assert.Equal(t, ActionApproval, table.Classify("white_check_mark::skin-tone-2"))
	assert.Equal(t, ActionUnrecognized, table.Classify("tada"))
	assert.Equal(t, ActionUnrecognized, table.Classify(""))
	assert.Equal(t, "merged", table.MergeReaction())
}

func writeReactionFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reactions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadReactionTable(t *testing.T) {
	path := writeReactionFile(t, `
comment: [speech_balloon, eyes]
approval: [":white_check_mark:"]
merge_cleanup: [shipit, merged]
`)

	table, err := loadReactionTable(path)
	require.NoError(t, err)

	assert.Equal(t, ActionComment, table.Classify("eyes"))
	assert.Equal(t, ActionApproval, table.Classify("white_check_mark"))
	assert.Equal(t, ActionMergeCleanup, table.Classify("merged"))
	assert.Equal(t, ActionUnrecognized, table.Classify("arrows_counterclockwise"))
	assert.Equal(t, "shipit", table.MergeReaction())
	assert.Equal(t, "React with :speech_balloon: comments, :white_check_mark: approved, :shipit: merged", table.Legend())
	assert.True(t, table.hasMergeReaction([]string{"eyes", "merged"}))
	assert.False(t, table.hasMergeReaction([]string{"eyes"}))
}

func TestLoadReactionTableErrors(t *testing.T) {
	tests := map[string]string{
		"duplicate":      "comment: [eyes]\napproval: [eyes]\nmerge_cleanup: [merged]\n",
		"unknown action": "celebrate: [tada]\nmerge_cleanup: [merged]\n",
		"no merge":       "comment: [eyes]\n",
		"not yaml":       "comment: [eyes\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadReactionTable(writeReactionFile(t, content))
			assert.Error(t, err)
		})
	}

	_, err := loadReactionTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
