package domain

// Phase is an ordered stage of the interview.
type Phase string

const (
	PhaseIntroduction          Phase = "introduction"
	PhaseBasicOperations       Phase = "basic_operations"
	PhaseFormulaProficiency    Phase = "formula_proficiency"
	PhaseDataManagement        Phase = "data_management"
	PhaseAnalysisVisualization Phase = "analysis_visualization"
	PhaseAdvancedFeatures      Phase = "advanced_features"
	PhaseScenarioBased         Phase = "scenario_based"
	PhaseConclusion            Phase = "conclusion"
)

// Phases lists every interview phase in visiting order.
var Phases = []Phase{
	PhaseIntroduction,
	PhaseBasicOperations,
	PhaseFormulaProficiency,
	PhaseDataManagement,
	PhaseAnalysisVisualization,
	PhaseAdvancedFeatures,
	PhaseScenarioBased,
	PhaseConclusion,
}

// Category groups questions for bank lookup and score aggregation.
type Category string

const (
	CategoryBasic        Category = "basic"
	CategoryIntermediate Category = "intermediate"
	CategoryAdvanced     Category = "advanced"
	CategoryScenario     Category = "scenario"
)

// phaseCategories maps each working phase to its question category.
// Two phases share "intermediate" on purpose; their scores aggregate together.
var phaseCategories = map[Phase]Category{
	PhaseBasicOperations:       CategoryBasic,
	PhaseFormulaProficiency:    CategoryIntermediate,
	PhaseDataManagement:        CategoryIntermediate,
	PhaseAnalysisVisualization: CategoryAdvanced,
	PhaseAdvancedFeatures:      CategoryAdvanced,
	PhaseScenarioBased:         CategoryScenario,
}

// CategoryFor returns the question category for a working phase.
func CategoryFor(phase Phase) (Category, bool) {
	c, ok := phaseCategories[phase]
	return c, ok
}

// NextPhase returns the phase following p in the fixed order, or conclusion
// if p is the last working phase or unknown.
func NextPhase(p Phase) Phase {
	for i, phase := range Phases {
		if phase == p {
			if i+1 < len(Phases) {
				return Phases[i+1]
			}
			return PhaseConclusion
		}
	}
	return PhaseConclusion
}

// Difficulty is an adaptive question difficulty tier.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestionsPerPhase is the answer quota required before a phase advances.
const QuestionsPerPhase = 3

// SkillNames are the five fixed skill slots of the final report.
var SkillNames = []string{
	"basic_operations",
	"formula_proficiency",
	"data_management",
	"analysis_visualization",
	"advanced_features",
}
