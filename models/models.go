package models

// All lists every model for auto-migration.
func All() []interface{} {
	return []interface{}{
		&Church{},
		&User{},
		&Task{},
		&Submission{},
		&XPLedger{},
		&PointsLedger{},
	}
}
