// Package types defines the core data structures for the Minerva memory
// engine. These types represent memory records, their provenance, and the
// validation rules enforced at every write.
package types

// Memory category constants. The set is open-ended (unknown categories are
// accepted and scored with neutral weights) but these are the recognized
// values with scoring effects.
const (
	CategoryPreference   = "preference"
	CategoryFact         = "fact"
	CategoryPersonal     = "personal"
	CategoryExperience   = "experience"
	CategoryInstruction  = "instruction"
	CategoryPlan         = "plan"
	CategoryRelationship = "relationship"
	CategoryHealth       = "health"
	CategoryGeneral      = "general"

	// Ranker-only categories used by retention scoring.
	CategoryContext   = "context"
	CategoryTemporary = "temporary"
)

// RecognizedCategories lists the categories with defined scoring behavior.
var RecognizedCategories = []string{
	CategoryPreference,
	CategoryFact,
	CategoryPersonal,
	CategoryExperience,
	CategoryInstruction,
	CategoryPlan,
	CategoryRelationship,
	CategoryHealth,
	CategoryGeneral,
	CategoryContext,
	CategoryTemporary,
}

// Memory source constants, the provenance tags affecting trust weighting.
const (
	SourceUserExplicit     = "user_explicit"
	SourceUserConfirmed    = "user_confirmed"
	SourceExplicit         = "explicit"
	SourceConversationAuto = "conversation_auto"
	SourceAILearning       = "ai_learning"
	SourceSystem           = "system"
	SourceInference        = "inference"
	SourceExternal         = "external"
)

// RecognizedSources lists the sources with defined trust weighting.
var RecognizedSources = []string{
	SourceUserExplicit,
	SourceUserConfirmed,
	SourceExplicit,
	SourceConversationAuto,
	SourceAILearning,
	SourceSystem,
	SourceInference,
	SourceExternal,
}

// IsRecognizedCategory reports whether category has defined scoring behavior.
// Unrecognized categories are still storable; they score with neutral weights.
func IsRecognizedCategory(category string) bool {
	for _, c := range RecognizedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// IsRecognizedSource reports whether source has a defined trust weighting.
func IsRecognizedSource(source string) bool {
	for _, s := range RecognizedSources {
		if s == source {
			return true
		}
	}
	return false
}

// Importance bounds enforced at write time.
const (
	MinImportance = 1
	MaxImportance = 10

	// DefaultImportance is used when no importance is supplied and no
	// suggestion heuristic is wired.
	DefaultImportance = 5
)
