package xp

// Category is one of the six XP bars of a user.
type Category string

const (
	CategorySpiritual  Category = "SPIRITUAL"
	CategoryService    Category = "SERVICE"
	CategoryCommunity  Category = "COMMUNITY"
	CategoryCreativity Category = "CREATIVITY"
	CategoryReflection Category = "REFLECTION"
	CategoryOther      Category = "OTHER"
)

// Source tells why a ledger entry was written.
type Source string

const (
	SourceTask   Source = "TASK"
	SourceStreak Source = "STREAK"
)

var categories = []Category{
	CategorySpiritual,
	CategoryService,
	CategoryCommunity,
	CategoryCreativity,
	CategoryReflection,
	CategoryOther,
}

// Categories lists all XP categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryForTask maps a task category onto an XP category. Task categories
// added later than this code fall back to OTHER instead of failing the award.
func CategoryForTask(taskCategory string) Category {
	for _, c := range categories {
		if string(c) == taskCategory {
			return c
		}
	}
	return CategoryOther
}
