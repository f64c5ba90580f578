package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReactionTable maps reaction names to actions. It is built once at startup
// and only read afterwards.
type ReactionTable struct {
	actions map[string]ReactionAction
	names   map[ReactionAction][]string
}

var actionNames = map[string]ReactionAction{
	"comment":        ActionComment,
	"approval":       ActionApproval,
	"update_request": ActionUpdateRequest,
	"merge_cleanup":  ActionMergeCleanup,
}

func defaultReactionTable() *ReactionTable {
	table, err := newReactionTable(map[string][]string{
		"comment":        {"speech_balloon"},
		"approval":       {"white_check_mark"},
		"update_request": {"arrows_counterclockwise"},
		"merge_cleanup":  {"merged"},
	})
	if err != nil {
		panic(err.Error())
	}
	return table
}

func newReactionTable(mapping map[string][]string) (*ReactionTable, error) {
	table := &ReactionTable{
		actions: make(map[string]ReactionAction),
		names:   make(map[ReactionAction][]string),
	}

	// Walk actions in a fixed order so error messages are deterministic.
	for _, name := range []string{"comment", "approval", "update_request", "merge_cleanup"} {
		for _, raw := range mapping[name] {
			reactionName := strings.Trim(strings.TrimSpace(raw), ":")
			if reactionName == "" {
				continue
			}
			if existing, ok := table.actions[reactionName]; ok {
				return nil, fmt.Errorf("reaction %q mapped to both %s and %s", reactionName, existing, actionNames[name])
			}
			table.actions[reactionName] = actionNames[name]
			table.names[actionNames[name]] = append(table.names[actionNames[name]], reactionName)
		}
	}
	for name := range mapping {
		if _, ok := actionNames[name]; !ok {
			return nil, fmt.Errorf("unknown reaction action %q", name)
		}
	}
	if len(table.names[ActionMergeCleanup]) == 0 {
		return nil, fmt.Errorf("at least one merge_cleanup reaction is required")
	}
	return table, nil
}

// loadReactionTable reads a YAML document of the form
//
//	comment: [speech_balloon, eyes]
//	approval: [white_check_mark]
//	update_request: [arrows_counterclockwise]
//	merge_cleanup: [merged]
func loadReactionTable(path string) (*ReactionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reaction table: %w", err)
	}

	var mapping map[string][]string
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("failed to parse reaction table: %w", err)
	}

	table, err := newReactionTable(mapping)
	if err != nil {
		return nil, fmt.Errorf("invalid reaction table %s: %w", path, err)
	}
	return table, nil
}

// Classify returns the action for a reaction name. Skin-tone suffixes such as
// "::skin-tone-2" are ignored.
func (t *ReactionTable) Classify(name string) ReactionAction {
	if i := strings.Index(name, "::"); i >= 0 {
		name = name[:i]
	}
	if action, ok := t.actions[name]; ok {
		return action
	}
	return ActionUnrecognized
}

// Legend lists the first reaction for each action, for the announcement footer.
func (t *ReactionTable) Legend() string {
	labels := []struct {
		action ReactionAction
		label  string
	}{
		{ActionComment, "comments"},
		{ActionApproval, "approved"},
		{ActionUpdateRequest, "updated"},
		{ActionMergeCleanup, "merged"},
	}

	var parts []string
	for _, l := range labels {
		if names := t.names[l.action]; len(names) > 0 {
			parts = append(parts, fmt.Sprintf(":%s: %s", names[0], l.label))
		}
	}
	return "React with " + strings.Join(parts, ", ")
}

// MergeReaction is the reaction named in deletion warnings.
func (t *ReactionTable) MergeReaction() string {
	return t.names[ActionMergeCleanup][0]
}

// hasMergeReaction reports whether any merge reaction is still on the message.
func (t *ReactionTable) hasMergeReaction(names []string) bool {
	for _, name := range names {
		if t.Classify(name) == ActionMergeCleanup {
			return true
		}
	}
	return false
}
