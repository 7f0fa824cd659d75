package poll

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/owasp-blt/lettuce/internal/store"
)

// MessageBlocks renders a poll as Block Kit: the question, per-option
// vote bars, and one vote button per option while the poll is open.
func MessageBlocks(p *store.Poll, options []store.PollOption) []slack.Block {
	total := 0
	for _, opt := range options {
		total += opt.Votes
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(":bar_chart: *%s*\n", p.Question))
	for _, opt := range options {
		sb.WriteString(fmt.Sprintf("\n*%s* — %s", opt.Label, voteLine(opt.Votes, total)))
	}
	if p.ClosedAt != 0 {
		sb.WriteString("\n\n_This poll is closed._")
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn", sb.String(), false, false),
			nil, nil,
		),
	}

	if p.ClosedAt == 0 {
		buttons := make([]slack.BlockElement, 0, len(options))
		for _, opt := range options {
			buttons = append(buttons, slack.NewButtonBlockElement(
				ActionVotePrefix+opt.ID,
				p.ID,
				slack.NewTextBlockObject("plain_text", opt.Label, false, false),
			))
		}
		blocks = append(blocks, slack.NewActionBlock("poll_"+p.ID, buttons...))
	}

	blocks = append(blocks, slack.NewContextBlock(
		"",
		slack.NewTextBlockObject("mrkdwn",
			fmt.Sprintf("%d vote(s) • started by <@%s>", total, p.CreatedBy),
			false, false),
	))
	return blocks
}

func voteLine(votes, total int) string {
	if total == 0 {
		return "0"
	}
	bar := strings.Repeat("█", votes*10/total)
	if bar == "" && votes > 0 {
		bar = "▏"
	}
	return fmt.Sprintf("%s %d (%d%%)", bar, votes, votes*100/total)
}
