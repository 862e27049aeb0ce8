package api

import (
	"github.com/surveyor-app/surveyor/internal/db"
	"github.com/surveyor-app/surveyor/internal/services"
)

// Store is everything the router's services need from persistence.
type Store interface {
	services.SurveyStore
	services.InviteStore
	services.ResponseStore
	services.QuestionStore
	services.AuthStore
}

var (
	_ Store = (*db.MemoryStore)(nil)
	_ Store = (*db.SQLiteStore)(nil)
)
