package conversation

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/owasp-blt/lettuce/internal/dialog"
	"github.com/owasp-blt/lettuce/internal/recommend"
)

// Collected data keys.
const (
	keyPreference   = "preference"
	keyTechnology   = "technology"
	keyDifficulty   = "difficulty"
	keyProjectType  = "project_type"
	keyGoal         = "goal"
	keyContribution = "contribution"
)

// Conversation is one user's in-flight recommendation dialogue. All
// access goes through the machine, which holds the lock for the whole
// of an Advance so concurrent button clicks serialize.
type Conversation struct {
	mu        sync.Mutex
	UserID    string
	ChannelID string
	Stage     Stage
	Collected map[string]string
	StartedAt time.Time
}

func newConversation(userID string) *Conversation {
	return &Conversation{
		UserID:    userID,
		Stage:     StageInitial,
		Collected: make(map[string]string),
		StartedAt: time.Now(),
	}
}

// Snapshot returns the current stage and a copy of the collected data.
func (c *Conversation) Snapshot() (Stage, map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	collected := make(map[string]string, len(c.Collected))
	for k, v := range c.Collected {
		collected[k] = v
	}
	return c.Stage, collected
}

// Result is the outcome of advancing a conversation.
type Result struct {
	Reply      *dialog.Reply
	EndSession bool
	Completed  bool
	Path       string
}

// Machine advances conversations and asks the engine for results at
// terminal choices. It is stateless: all per-user state lives in the
// Conversation, so one machine serves every session.
type Machine struct {
	engine *recommend.Engine
	limit  int
	logger zerolog.Logger
}

// NewMachine builds a machine on top of a recommendation engine. A
// non-positive limit falls back to the engine default.
func NewMachine(engine *recommend.Engine, limit int, logger zerolog.Logger) *Machine {
	if limit <= 0 {
		limit = recommend.DefaultLimit
	}
	return &Machine{
		engine: engine,
		limit:  limit,
		logger: logger.With().Str("component", "conversation").Logger(),
	}
}

// Advance applies an action to a conversation. Actions that are not
// legal in the current stage are ignored: ok is false and nothing
// changes. End is legal from any stage and asks the caller to tear the
// session down.
func (m *Machine) Advance(conv *Conversation, action Action) (Result, bool) {
	conv.mu.Lock()
	defer conv.mu.Unlock()

	if _, ok := action.(End); ok {
		conv.Stage = StageInitial
		conv.Collected = make(map[string]string)
		return Result{Reply: dialog.Goodbye(), EndSession: true}, true
	}

	switch conv.Stage {
	case StageInitial:
		if msg, ok := action.(TriggerMessage); ok {
			if !IsTrigger(msg.Text) {
				return Result{Reply: dialog.Help()}, true
			}
			conv.Stage = StagePreferenceChoice
			return Result{Reply: dialog.PreferenceChoice()}, true
		}

	case StagePreferenceChoice:
		if choice, ok := action.(ChoosePath); ok {
			switch choice.Path {
			case PathTechnology:
				conv.Stage = StageTechStack
				conv.Collected[keyPreference] = PathTechnology
				return Result{Reply: dialog.TechStack()}, true
			case PathMission:
				conv.Stage = StageMissionGoal
				conv.Collected[keyPreference] = PathMission
				return Result{Reply: dialog.MissionGoal()}, true
			}
		}

	case StageTechStack:
		if choice, ok := action.(ChooseTechnology); ok && choice.Technology != "" {
			conv.Collected[keyTechnology] = choice.Technology
			conv.Stage = StageTechDifficulty
			return Result{Reply: dialog.Difficulty(choice.Technology)}, true
		}

	case StageTechDifficulty:
		if choice, ok := action.(ChooseDifficulty); ok && choice.Level != "" {
			conv.Collected[keyDifficulty] = choice.Level
			conv.Stage = StageTechProjectType
			return Result{Reply: dialog.ProjectType(conv.Collected[keyTechnology], choice.Level)}, true
		}

	case StageTechProjectType:
		if choice, ok := action.(ChooseProjectType); ok && choice.ProjectType != "" {
			conv.Collected[keyProjectType] = choice.ProjectType
			conv.Stage = StageCompleted
			return m.technologyResult(conv), true
		}

	case StageMissionGoal:
		if choice, ok := action.(ChooseGoal); ok && choice.Goal != "" {
			conv.Collected[keyGoal] = choice.Goal
			conv.Stage = StageMissionContribution
			return Result{Reply: dialog.Contribution(choice.Goal)}, true
		}

	case StageMissionContribution:
		if choice, ok := action.(ChooseContribution); ok && choice.Contribution != "" {
			conv.Collected[keyContribution] = choice.Contribution
			conv.Stage = StageCompleted
			return m.missionResult(conv), true
		}

	case StageCompleted:
		if _, ok := action.(Restart); ok {
			conv.Stage = StagePreferenceChoice
			conv.Collected = make(map[string]string)
			return Result{Reply: dialog.PreferenceChoice()}, true
		}
	}

	m.logger.Debug().
		Str("user", conv.UserID).
		Stringer("stage", conv.Stage).
		Type("action", action).
		Msg("ignoring action not legal in current stage")
	return Result{}, false
}

func (m *Machine) technologyResult(conv *Conversation) Result {
	tech := conv.Collected[keyTechnology]
	level := conv.Collected[keyDifficulty]
	ptype := conv.Collected[keyProjectType]

	ranked := m.engine.ByTechnology(tech, level, ptype, m.limit)
	m.logger.Info().
		Str("user", conv.UserID).
		Str("technology", tech).
		Str("level", level).
		Str("project_type", ptype).
		Int("results", len(ranked)).
		Msg("technology recommendation completed")

	if len(ranked) == 0 {
		return Result{Reply: dialog.NoMatches(m.engine.Fallback(m.limit)), Completed: true, Path: PathTechnology}
	}
	return Result{
		Reply:     dialog.Recommendations(ranked, tech, level, ptype),
		Completed: true,
		Path:      PathTechnology,
	}
}

func (m *Machine) missionResult(conv *Conversation) Result {
	goal := conv.Collected[keyGoal]
	contribution := conv.Collected[keyContribution]

	ranked := m.engine.ByMission(goal, contribution, m.limit)
	m.logger.Info().
		Str("user", conv.UserID).
		Str("goal", goal).
		Str("contribution", contribution).
		Int("results", len(ranked)).
		Msg("mission recommendation completed")

	if len(ranked) == 0 {
		return Result{Reply: dialog.NoMatches(m.engine.Fallback(m.limit)), Completed: true, Path: PathMission}
	}
	return Result{
		Reply:     dialog.Recommendations(ranked, goal, contribution),
		Completed: true,
		Path:      PathMission,
	}
}
