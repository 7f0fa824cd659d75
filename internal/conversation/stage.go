// Package conversation implements the multi-step recommendation dialogue:
// a per-user state machine advanced by decoded button actions, and a
// manager that owns the live sessions.
package conversation

// Stage identifies where a conversation is in the recommendation flow.
type Stage int

const (
	StageInitial Stage = iota
	StagePreferenceChoice
	StageTechStack
	StageTechDifficulty
	StageTechProjectType
	StageMissionGoal
	StageMissionContribution
	StageCompleted
)

var stageNames = map[Stage]string{
	StageInitial:             "initial",
	StagePreferenceChoice:    "preference_choice",
	StageTechStack:           "tech_stack",
	StageTechDifficulty:      "tech_difficulty",
	StageTechProjectType:     "tech_project_type",
	StageMissionGoal:         "mission_goal",
	StageMissionContribution: "mission_contribution",
	StageCompleted:           "completed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}
