package memory

import (
	"sync"

	"github.com/fdg312/coach-hub/internal/storage"
)

var _ storage.Storage = (*MemoryStorage)(nil)

// MemoryStorage — in-memory реализация storage.Storage
type MemoryStorage struct {
	*daysStorage
	*profilesStorage
	*ChatMemoryStorage
	*weeklyPlansStorage
	*nutritionTargetsStorage
	*ReportsMemoryStorage
}

// New создаёт пустое in-memory хранилище
func New() *MemoryStorage {
	return &MemoryStorage{
		daysStorage:             newDaysStorage(),
		profilesStorage:         newProfilesStorage(),
		ChatMemoryStorage:       NewChatMemoryStorage(),
		weeklyPlansStorage:      newWeeklyPlansStorage(),
		nutritionTargetsStorage: newNutritionTargetsStorage(),
		ReportsMemoryStorage:    NewReportsMemoryStorage(),
	}
}

func (m *MemoryStorage) Close() error {
	return nil
}

// daysStorage держит дни, приёмы пищи и тренировки под одним мьютексом,
// чтобы снапшот дня был согласованным.
type daysStorage struct {
	mu       sync.RWMutex
	days     map[string]storage.Day // key: DayID
	meals    map[string]storage.MealLog
	workouts map[string]storage.WorkoutLog
}

func newDaysStorage() *daysStorage {
	return &daysStorage{
		days:     make(map[string]storage.Day),
		meals:    make(map[string]storage.MealLog),
		workouts: make(map[string]storage.WorkoutLog),
	}
}
