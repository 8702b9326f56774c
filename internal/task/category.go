package task

// Category is the closed set of task families the harness knows how to
// answer. Anything unrecognized is CategoryOther.
type Category int

const (
	CategoryOther Category = iota
	CategoryFactVerification
	CategoryToolReasoning
	CategoryPolicyGeneration
)

// task_set labels as they appear in task files.
const (
	LabelFactVerification = "Adversarial Fact Verification"
	LabelToolReasoning    = "Multi-Step Tool-Augmented Reasoning"
	LabelPolicyGeneration = "Constrained Policy Generation"
)

// ParseCategory maps a task_set label to its category by exact match.
func ParseCategory(label string) Category {
	switch label {
	case LabelFactVerification:
		return CategoryFactVerification
	case LabelToolReasoning:
		return CategoryToolReasoning
	case LabelPolicyGeneration:
		return CategoryPolicyGeneration
	default:
		return CategoryOther
	}
}

// AllCategories lists every category, CategoryOther included.
func AllCategories() []Category {
	return []Category{
		CategoryFactVerification,
		CategoryToolReasoning,
		CategoryPolicyGeneration,
		CategoryOther,
	}
}

// Label returns the task_set label for known categories and "" for CategoryOther.
func (c Category) Label() string {
	switch c {
	case CategoryFactVerification:
		return LabelFactVerification
	case CategoryToolReasoning:
		return LabelToolReasoning
	case CategoryPolicyGeneration:
		return LabelPolicyGeneration
	default:
		return ""
	}
}

func (c Category) String() string {
	switch c {
	case CategoryFactVerification:
		return "fact-verification"
	case CategoryToolReasoning:
		return "tool-reasoning"
	case CategoryPolicyGeneration:
		return "policy-generation"
	default:
		return "other"
	}
}
