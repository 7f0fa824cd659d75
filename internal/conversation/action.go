package conversation

import (
	"strings"

	"github.com/owasp-blt/lettuce/internal/dialog"
)

// Action is a decoded user input. Raw Slack action IDs are translated
// into these variants exactly once, at the transport boundary; the
// machine never sees strings it has to re-parse.
type Action interface {
	isAction()
}

// TriggerMessage is free text addressed to the bot.
type TriggerMessage struct {
	Text string
}

// ChoosePath selects the technology or mission branch.
type ChoosePath struct {
	Path string
}

// ChooseTechnology selects a technology stack.
type ChooseTechnology struct {
	Technology string
}

// ChooseDifficulty selects an experience level.
type ChooseDifficulty struct {
	Level string
}

// ChooseProjectType selects a project type.
type ChooseProjectType struct {
	ProjectType string
}

// ChooseGoal selects a mission goal.
type ChooseGoal struct {
	Goal string
}

// ChooseContribution selects a contribution style.
type ChooseContribution struct {
	Contribution string
}

// Restart returns a completed conversation to the preference choice.
type Restart struct{}

// End closes the conversation and tears the session down.
type End struct{}

func (TriggerMessage) isAction()     {}
func (ChoosePath) isAction()         {}
func (ChooseTechnology) isAction()   {}
func (ChooseDifficulty) isAction()   {}
func (ChooseProjectType) isAction()  {}
func (ChooseGoal) isAction()         {}
func (ChooseContribution) isAction() {}
func (Restart) isAction()            {}
func (End) isAction()                {}

// PathTechnology and PathMission are the two recommendation branches.
const (
	PathTechnology = "technology"
	PathMission    = "mission"
)

// triggerWords start a conversation from the initial stage. Matching is
// case-insensitive substring, same as the keyword responder.
var triggerWords = []string{"help", "start", "project", "recommend", "find", "looking"}

// IsTrigger reports whether free text should open the recommendation flow.
func IsTrigger(text string) bool {
	lowered := strings.ToLower(text)
	for _, w := range triggerWords {
		if strings.Contains(lowered, w) {
			return true
		}
	}
	return false
}

// DecodeAction maps a Slack block action onto a typed Action. The value
// is preferred; when a client omits it the action ID suffix is used
// instead. Unrecognized IDs decode to (nil, false) and are ignored
// upstream.
func DecodeAction(actionID, value string) (Action, bool) {
	pick := func(prefix string) string {
		if value != "" {
			return value
		}
		return strings.TrimPrefix(actionID, prefix)
	}

	switch {
	case actionID == dialog.ActionRestart:
		return Restart{}, true
	case actionID == dialog.ActionDone:
		return End{}, true
	case strings.HasPrefix(actionID, dialog.ActionPathPrefix):
		return ChoosePath{Path: pick(dialog.ActionPathPrefix)}, true
	case strings.HasPrefix(actionID, dialog.ActionTechPrefix):
		return ChooseTechnology{Technology: pick(dialog.ActionTechPrefix)}, true
	case strings.HasPrefix(actionID, dialog.ActionDiffPrefix):
		return ChooseDifficulty{Level: pick(dialog.ActionDiffPrefix)}, true
	case strings.HasPrefix(actionID, dialog.ActionTypePrefix):
		return ChooseProjectType{ProjectType: pick(dialog.ActionTypePrefix)}, true
	case strings.HasPrefix(actionID, dialog.ActionMissionPrefix):
		return ChooseGoal{Goal: pick(dialog.ActionMissionPrefix)}, true
	case strings.HasPrefix(actionID, dialog.ActionContribPrefix):
		return ChooseContribution{Contribution: pick(dialog.ActionContribPrefix)}, true
	}
	return nil, false
}
