package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plateprep/plateprep/internal/adapter/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Users         repository.UserRepository
	Packages      repository.PackageRepository
	Subscriptions repository.SubscriptionRepository
	Events        repository.EventLogRepository
	Tasks         repository.TaskRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Users:         repository.NewUserRepository(db, logger),
		Packages:      repository.NewPackageRepository(db, logger),
		Subscriptions: repository.NewSubscriptionRepository(db, logger),
		Events:        repository.NewEventLogRepository(db, logger),
		Tasks:         repository.NewTaskRepository(db, logger),
	}
}
