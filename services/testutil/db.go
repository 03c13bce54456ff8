package testutil

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/churchquest/xpcore/models"
)

// NewTestDB opens an in-memory SQLite database migrated with every model.
// The single connection serializes transactions the way row locks would.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// Fixture is a church with one member, one admin, one task and one pending submission.
type Fixture struct {
	Church     models.Church
	User       models.User
	Admin      models.User
	Task       models.Task
	Submission models.Submission
}

// Seed creates a Fixture whose task has the given category.
func Seed(t *testing.T, db *gorm.DB, taskCategory string) *Fixture {
	t.Helper()

	f := &Fixture{}
	f.Church = models.Church{Name: "Church " + t.Name(), City: "Test City"}
	mustCreate(t, db, &f.Church)

	f.User = models.User{FirstName: "Test", LastName: "User", Email: "user@" + f.Church.ID, ChurchID: &f.Church.ID}
	mustCreate(t, db, &f.User)

	f.Admin = models.User{FirstName: "Admin", LastName: "User", Email: "admin@" + f.Church.ID, Role: models.RoleAdmin, ChurchID: &f.Church.ID}
	mustCreate(t, db, &f.Admin)

	f.Task = models.Task{ChurchID: f.Church.ID, Title: "Read a psalm", Category: taskCategory, PointsReward: 10, IsActive: true}
	mustCreate(t, db, &f.Task)

	f.Submission = models.Submission{ChurchID: f.Church.ID, UserID: f.User.ID, TaskID: f.Task.ID, CommentUser: "please approve"}
	mustCreate(t, db, &f.Submission)
	return f
}

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("failed to create %T: %v", v, err)
	}
}
