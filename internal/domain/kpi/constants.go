package kpi

const (
	ImportanceLow      = "low"
	ImportanceMedium   = "medium"
	ImportanceHigh     = "high"
	ImportanceCritical = "critical"

	TaskStatusNotStarted   = "not_started"
	TaskStatusInProgress   = "in_progress"
	TaskStatusOnModeration = "on_moderation"
	TaskStatusCompleted    = "completed"
	TaskStatusFrozen       = "frozen"
	TaskStatusCanceled     = "canceled"

	DefaultTasksWeight        = 50
	DefaultManagerWeight      = 50
	DefaultManagerBonusWeight = 100

	// MaxAchievement caps a single indicator's achievement percentage.
	MaxAchievement = 150

	DefaultHistoryLimit = 12
)

var Importances = []string{ImportanceLow, ImportanceMedium, ImportanceHigh, ImportanceCritical}

var TaskStatuses = []string{
	TaskStatusNotStarted,
	TaskStatusInProgress,
	TaskStatusOnModeration,
	TaskStatusCompleted,
	TaskStatusFrozen,
	TaskStatusCanceled,
}

func ValidImportance(value string) bool {
	for _, importance := range Importances {
		if importance == value {
			return true
		}
	}
	return false
}

// DefaultImportanceWeights seeds the weight table of a fresh installation.
func DefaultImportanceWeights() []ImportanceWeight {
	return []ImportanceWeight{
		{Importance: ImportanceLow, Weight: 1},
		{Importance: ImportanceMedium, Weight: 2},
		{Importance: ImportanceHigh, Weight: 3},
		{Importance: ImportanceCritical, Weight: 5},
	}
}
