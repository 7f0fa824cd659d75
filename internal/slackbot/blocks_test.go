package slackbot

import (
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owasp-blt/lettuce/internal/dialog"
)

func TestReplyBlocksPromptWithOptions(t *testing.T) {
	blocks := ReplyBlocks(dialog.TechStack())

	// Section plus two button rows (seven options, five per row).
	require.Len(t, blocks, 3)
	_, ok := blocks[0].(*slack.SectionBlock)
	assert.True(t, ok)

	row, ok := blocks[1].(*slack.ActionBlock)
	require.True(t, ok)
	assert.Len(t, row.Elements.ElementSet, 5)

	row, ok = blocks[2].(*slack.ActionBlock)
	require.True(t, ok)
	assert.Len(t, row.Elements.ElementSet, 2)
}

func TestReplyBlocksResultsListEntries(t *testing.T) {
	r := &dialog.Reply{
		Text: "results",
		Entries: []dialog.Entry{
			{Name: "Juice Shop", Description: "desc", URL: "https://example.com"},
			{Name: "Zap", Description: "desc"},
		},
		Actions: []dialog.Option{
			{ActionID: dialog.ActionRestart, Value: "restart", Label: "Again"},
		},
	}

	blocks := ReplyBlocks(r)

	// Section, divider, two entries, one follow-up row.
	require.Len(t, blocks, 5)
	_, ok := blocks[1].(*slack.DividerBlock)
	assert.True(t, ok)
	_, ok = blocks[4].(*slack.ActionBlock)
	assert.True(t, ok)
}

func TestWelcomeBlocksMentionUser(t *testing.T) {
	blocks := WelcomeBlocks("U42")

	require.Len(t, blocks, 1)
	section := blocks[0].(*slack.SectionBlock)
	assert.Contains(t, section.Text.Text, "<@U42>")
	assert.Contains(t, section.Text.Text, "OWASP")
}
