package slackbot

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/owasp-blt/lettuce/internal/catalog"
	"github.com/owasp-blt/lettuce/internal/dialog"
)

// ReplyBlocks turns a structured dialog reply into Block Kit blocks:
// the lead-in section, one button row for prompt options, one section
// per recommendation entry, and a final button row for follow-ups.
func ReplyBlocks(r *dialog.Reply) []slack.Block {
	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn", r.Text, false, false),
			nil, nil,
		),
	}

	if len(r.Options) > 0 {
		blocks = append(blocks, buttonRows("prompt_options", r.Options)...)
	}

	if len(r.Entries) > 0 {
		blocks = append(blocks, slack.NewDividerBlock())
		for i, e := range r.Entries {
			text := fmt.Sprintf("*%d. <%s|%s>*\n%s", i+1, e.URL, e.Name, e.Description)
			if e.URL == "" {
				text = fmt.Sprintf("*%d. %s*\n%s", i+1, e.Name, e.Description)
			}
			blocks = append(blocks, slack.NewSectionBlock(
				slack.NewTextBlockObject("mrkdwn", text, false, false),
				nil, nil,
			))
		}
	}

	if len(r.Actions) > 0 {
		blocks = append(blocks, buttonRows("follow_up", r.Actions)...)
	}

	return blocks
}

// buttonRows splits options into action blocks of at most five buttons,
// the Block Kit limit per actions block.
func buttonRows(blockID string, options []dialog.Option) []slack.Block {
	const perRow = 5

	var blocks []slack.Block
	for row := 0; row*perRow < len(options); row++ {
		end := (row + 1) * perRow
		if end > len(options) {
			end = len(options)
		}
		buttons := make([]slack.BlockElement, 0, perRow)
		for _, opt := range options[row*perRow : end] {
			buttons = append(buttons, slack.NewButtonBlockElement(
				opt.ActionID,
				opt.Value,
				slack.NewTextBlockObject("plain_text", opt.Label, true, false),
			))
		}
		blocks = append(blocks, slack.NewActionBlock(fmt.Sprintf("%s_%d", blockID, row), buttons...))
	}
	return blocks
}

// WelcomeBlocks is the community welcome message sent on team_join and
// for /welcome.
func WelcomeBlocks(userID string) []slack.Block {
	text := strings.Join([]string{
		fmt.Sprintf(":wave: *Welcome to the OWASP Slack Community, <@%s>!* :wave:", userID),
		"",
		"We're excited to have you here! A few things to get started:",
		"",
		"• Check out the <https://owasp.org/projects/|OWASP project directory>",
		"• Read the contribution guidelines in the contribute channel",
		"• Feel free to ask questions in #general",
		"• Say *recommend* to me any time and I'll help you find a project to work on",
		"",
		"Questions? Just ask! We're here to help. :smile:",
	}, "\n")

	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn", text, false, false),
			nil, nil,
		),
	}
}

// ProjectBlocks renders a single catalog record for `/project <name>`.
func ProjectBlocks(p catalog.Project) []slack.Block {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(":file_folder: *%s*\n%s", p.Name, p.Description))
	if p.URL != "" {
		sb.WriteString(fmt.Sprintf("\n<%s|Project page>", p.URL))
	}

	meta := make([]string, 0, 4)
	if p.Level != "" {
		meta = append(meta, "Level: "+p.Level)
	}
	if p.Type != "" {
		meta = append(meta, "Type: "+p.Type)
	}
	if len(p.Technologies) > 0 {
		meta = append(meta, "Tech: "+strings.Join(p.Technologies, ", "))
	}
	if len(p.Missions) > 0 {
		meta = append(meta, "Missions: "+strings.Join(p.Missions, ", "))
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn", sb.String(), false, false),
			nil, nil,
		),
	}
	if len(meta) > 0 {
		blocks = append(blocks, slack.NewContextBlock(
			"",
			slack.NewTextBlockObject("mrkdwn", strings.Join(meta, " • "), false, false),
		))
	}
	return blocks
}
