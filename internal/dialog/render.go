// Package dialog renders conversation prompts and recommendation results
// as structured replies. Everything here is pure: no Slack types, no
// network, no state — the slackbot package turns a Reply into Block Kit
// blocks.
package dialog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/owasp-blt/lettuce/internal/catalog"
)

// Action IDs understood by the interaction decoder. The value carried by
// an option is the machine-readable choice; the label is what the user
// sees on the button.
const (
	ActionPathPrefix    = "rec_path_"
	ActionTechPrefix    = "rec_tech_"
	ActionDiffPrefix    = "rec_diff_"
	ActionTypePrefix    = "rec_type_"
	ActionMissionPrefix = "rec_mission_"
	ActionContribPrefix = "rec_contrib_"
	ActionRestart       = "rec_restart"
	ActionDone          = "rec_done"
)

const descriptionLimit = 200

// Option is one selectable button in a reply.
type Option struct {
	ActionID string
	Value    string
	Label    string
}

// Entry is one formatted recommendation.
type Entry struct {
	Name        string
	Description string
	URL         string
}

// Reply is a structured bot response: lead-in text plus either selectable
// options or a ranked recommendation list with follow-up actions.
type Reply struct {
	Text     string
	Options  []Option
	Entries  []Entry
	Fallback bool
	Actions  []Option
}

// Help is the static reply for non-trigger free text.
func Help() *Reply {
	return &Reply{
		Text: "I can help you discover OWASP projects to learn from or contribute to. " +
			"Say *recommend* (or use `/recommend`) to start, or `/project <name>` to look one up.",
	}
}

// PreferenceChoice asks whether to recommend by technology or by mission.
func PreferenceChoice() *Reply {
	return &Reply{
		Text: ":wave: *Hi! I can help you find OWASP projects.*\n\n" +
			"Would you like recommendations based on *Technology* or *Mission*?",
		Options: []Option{
			{ActionID: ActionPathPrefix + "technology", Value: "technology", Label: ":computer: Technology-Based"},
			{ActionID: ActionPathPrefix + "mission", Value: "mission", Label: ":dart: Mission-Based"},
		},
	}
}

// TechStack asks which technology the user is interested in.
func TechStack() *Reply {
	return &Reply{
		Text: "*Step 1/3: Which technology/stack are you interested in?*",
		Options: []Option{
			{ActionID: ActionTechPrefix + "python", Value: "python", Label: ":snake: Python"},
			{ActionID: ActionTechPrefix + "java", Value: "java", Label: ":coffee: Java"},
			{ActionID: ActionTechPrefix + "javascript", Value: "javascript", Label: ":javascript: JavaScript"},
			{ActionID: ActionTechPrefix + "mobile", Value: "mobile", Label: ":iphone: Mobile"},
			{ActionID: ActionTechPrefix + "cloud", Value: "cloud", Label: ":cloud: Cloud Native"},
			{ActionID: ActionTechPrefix + "threat-modeling", Value: "threat-modeling", Label: ":shield: Threat Modeling"},
			{ActionID: ActionTechPrefix + "devsecops", Value: "devsecops", Label: ":gear: DevSecOps"},
		},
	}
}

// Difficulty asks for the experience level, echoing the chosen technology.
func Difficulty(technology string) *Reply {
	return &Reply{
		Text: fmt.Sprintf("*Step 2/3: What is your experience level?*\n_Selected: %s_", title(technology)),
		Options: []Option{
			{ActionID: ActionDiffPrefix + catalog.LevelBeginner, Value: catalog.LevelBeginner, Label: ":seedling: Beginner"},
			{ActionID: ActionDiffPrefix + catalog.LevelIntermediate, Value: catalog.LevelIntermediate, Label: ":herb: Intermediate"},
			{ActionID: ActionDiffPrefix + catalog.LevelAdvanced, Value: catalog.LevelAdvanced, Label: ":evergreen_tree: Advanced"},
		},
	}
}

// ProjectType asks what kind of project the user wants.
func ProjectType(technology, level string) *Reply {
	return &Reply{
		Text: fmt.Sprintf("*Step 3/3: What type of project are you looking for?*\n_Selected: %s | %s_",
			title(technology), title(level)),
		Options: []Option{
			{ActionID: ActionTypePrefix + catalog.TypeTool, Value: catalog.TypeTool, Label: ":hammer_and_wrench: Tools"},
			{ActionID: ActionTypePrefix + catalog.TypeVulnerableApp, Value: catalog.TypeVulnerableApp, Label: ":file_folder: Vulnerable Apps"},
			{ActionID: ActionTypePrefix + catalog.TypeDocumentation, Value: catalog.TypeDocumentation, Label: ":books: Documentation"},
			{ActionID: ActionTypePrefix + catalog.TypeTraining, Value: catalog.TypeTraining, Label: ":mortar_board: Training"},
		},
	}
}

// MissionGoal asks what the user wants to achieve.
func MissionGoal() *Reply {
	return &Reply{
		Text: "*Step 1/2: What is your goal?*",
		Options: []Option{
			{ActionID: ActionMissionPrefix + "learning", Value: "learning", Label: ":books: Learn AppSec"},
			{ActionID: ActionMissionPrefix + "tool", Value: "tool", Label: ":keyboard: Contribute Code"},
			{ActionID: ActionMissionPrefix + "documentation", Value: "documentation", Label: ":memo: Documentation"},
			{ActionID: ActionMissionPrefix + "research", Value: "research", Label: ":microscope: Research"},
			{ActionID: ActionMissionPrefix + "ctf", Value: "ctf", Label: ":triangular_flag_on_post: CTF"},
			{ActionID: ActionMissionPrefix + "testing", Value: "testing", Label: ":mag: Testing"},
		},
	}
}

// Contribution asks how the user wants to contribute.
func Contribution(goal string) *Reply {
	return &Reply{
		Text: fmt.Sprintf("*Step 2/2: How would you like to contribute?*\n_Selected goal: %s_", title(goal)),
		Options: []Option{
			{ActionID: ActionContribPrefix + "code", Value: "code", Label: ":computer: Code"},
			{ActionID: ActionContribPrefix + "documentation", Value: "documentation", Label: ":pencil: Documentation"},
			{ActionID: ActionContribPrefix + "design", Value: "design", Label: ":art: Design"},
			{ActionID: ActionContribPrefix + "research", Value: "research", Label: ":mag: Research"},
		},
	}
}

// Recommendations formats a ranked result list. The entries keep the
// engine's order; names come straight from the catalog records so a
// reader can map the reply back onto the ranking.
func Recommendations(projects []catalog.Project, criteria ...string) *Reply {
	context := ""
	if len(criteria) > 0 {
		parts := make([]string, 0, len(criteria))
		for _, c := range criteria {
			if c != "" {
				parts = append(parts, title(c))
			}
		}
		context = fmt.Sprintf("\n_Based on: %s_", strings.Join(parts, " | "))
	}

	return &Reply{
		Text:    fmt.Sprintf(":star: *Recommended Projects (Top %d)*%s", len(projects), context),
		Entries: entries(projects),
		Actions: followUpActions(),
	}
}

// NoMatches wraps fallback recommendations in apologetic copy. The reply
// always carries entries when the fallback list is non-empty — the user
// never sees a bare empty message.
func NoMatches(fallback []catalog.Project) *Reply {
	text := ":thinking_face: *I couldn't find exact matches, but here are popular OWASP projects:*"
	if len(fallback) == 0 {
		text = ":thinking_face: *I couldn't find any matching projects right now.*\n" +
			"Browse all OWASP projects at https://owasp.org/projects/"
	}
	return &Reply{
		Text:     text,
		Entries:  entries(fallback),
		Fallback: true,
		Actions:  followUpActions(),
	}
}

// Goodbye closes a conversation.
func Goodbye() *Reply {
	return &Reply{Text: "Happy hacking! Say *recommend* any time to start over. :wave:"}
}

// EntryNames extracts entry names in reply order.
func EntryNames(r *Reply) []string {
	names := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		names[i] = e.Name
	}
	return names
}

func entries(projects []catalog.Project) []Entry {
	out := make([]Entry, len(projects))
	for i, p := range projects {
		name := p.Name
		if name == "" {
			name = catalog.DisplayName(p.ID)
		}
		desc := p.Description
		if desc == "" {
			desc = "OWASP Project"
		}
		out[i] = Entry{
			Name:        name,
			Description: truncate(desc, descriptionLimit),
			URL:         p.URL,
		}
	}
	return out
}

func followUpActions() []Option {
	return []Option{
		{ActionID: ActionRestart, Value: "restart", Label: ":arrows_counterclockwise: Try Different Filters"},
		{ActionID: ActionDone, Value: "done", Label: ":white_check_mark: Done"},
	}
}

// truncate shortens s to at most max bytes, cutting on a rune boundary
// and appending "…" if truncated.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func title(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
