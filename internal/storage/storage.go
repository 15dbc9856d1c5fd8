package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/coach-hub/internal/meal"
)

// ErrNotFound возвращается всеми бэкендами, когда запись по id отсутствует.
var ErrNotFound = errors.New("storage: not found")

// DayID — идентификатор дня пользователя.
func DayID(userID, date string) string {
	return userID + ":" + date
}

// Day — дневная запись пользователя (date в формате YYYY-MM-DD)
type Day struct {
	ID        string
	UserID    string
	Date      string
	MoodNote  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MealLog — подтверждённый приём пищи
type MealLog struct {
	ID         uuid.UUID
	UserID     string
	DayID      string
	Date       string
	MealType   meal.Type
	SourceText string
	Items      []meal.Item
	Totals     *meal.NutritionEstimate
	Confidence meal.Confidence
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WorkoutLog — выполненная тренировка
type WorkoutLog struct {
	ID          uuid.UUID
	UserID      string
	DayID       string
	Date        string
	Type        string
	Minutes     int
	Intensity   string
	Description string
	Status      string
	DistanceKm  *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DaySnapshot — всё, что записано за день. Day равен nil, если дня ещё нет.
type DaySnapshot struct {
	Day      *Day
	Meals    []MealLog
	Workouts []WorkoutLog
}

// Profile — профиль пользователя и состояние онбординга
type Profile struct {
	UserID              string
	Name                string
	OnboardingStep      int
	OnboardingCompleted bool
	Answers             map[string]string
	Summary             string
	Goal                string
	Insights            []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ChatMessage — сообщение переписки с коучем
type ChatMessage struct {
	ID        uuid.UUID
	UserID    string
	Role      string // "user" | "assistant"
	Content   string
	Intent    string
	Date      string
	CreatedAt time.Time
}

// WeeklyPlanEntry — день шаблона недели, Weekday 0=Пн..6=Вс
type WeeklyPlanEntry struct {
	Weekday   int    `json:"weekday"`
	Type      string `json:"type"`
	Minutes   int    `json:"minutes"`
	Intensity string `json:"intensity"`
	Focus     string `json:"focus,omitempty"`
}

// WeeklyPlan — шаблон тренировок на неделю
type WeeklyPlan struct {
	UserID    string
	Entries   []WeeklyPlanEntry
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NutritionTargets — цели по калориям и макросам
type NutritionTargets struct {
	UserID       string
	CaloriesKcal int
	ProteinG     int
	FatG         int
	CarbsG       int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReportMeta — метаданные отчёта
type ReportMeta struct {
	ID        uuid.UUID
	UserID    string
	Format    string  // "pdf" or "csv"
	FromDate  string  // YYYY-MM-DD
	ToDate    string  // YYYY-MM-DD
	ObjectKey *string // S3 object key (NULL for memory mode)
	SizeBytes int64
	Status    string // "ready" or "failed"
	Error     *string
	CreatedAt time.Time
	UpdatedAt time.Time
	Data      []byte // Only used in memory mode (not stored in DB)
}

type DaysStorage interface {
	// UpsertDay создаёт день или обновляет mood_note
	UpsertDay(ctx context.Context, day *Day) error

	// GetDaySnapshot возвращает день с приёмами пищи и тренировками
	GetDaySnapshot(ctx context.Context, userID, date string) (*DaySnapshot, error)
}

type MealsStorage interface {
	UpsertMeal(ctx context.Context, m *MealLog) error

	// GetMeal возвращает ErrNotFound, если приёма пищи нет или он чужой
	GetMeal(ctx context.Context, userID string, id uuid.UUID) (*MealLog, error)

	// ListMeals возвращает приёмы пищи за период [from, to]
	ListMeals(ctx context.Context, userID, from, to string) ([]MealLog, error)
}

type WorkoutsStorage interface {
	UpsertWorkout(ctx context.Context, w *WorkoutLog) error

	// ListWorkouts возвращает тренировки за период [from, to]
	ListWorkouts(ctx context.Context, userID, from, to string) ([]WorkoutLog, error)
}

type ProfilesStorage interface {
	// GetProfile возвращает nil, nil, если профиль ещё не создан
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	UpsertProfile(ctx context.Context, p *Profile) error
}

type ChatStorage interface {
	InsertMessage(ctx context.Context, m *ChatMessage) error

	// ListMessages возвращает последние limit сообщений до before в хронологическом порядке
	ListMessages(ctx context.Context, userID string, limit int, before *time.Time) ([]ChatMessage, error)
}

type WeeklyPlansStorage interface {
	// GetWeeklyPlan возвращает nil, nil, если план не сохранён
	GetWeeklyPlan(ctx context.Context, userID string) (*WeeklyPlan, error)

	UpsertWeeklyPlan(ctx context.Context, plan *WeeklyPlan) error
}

type NutritionTargetsStorage interface {
	// GetTargets возвращает nil, nil, если цели не заданы
	GetTargets(ctx context.Context, userID string) (*NutritionTargets, error)

	UpsertTargets(ctx context.Context, t *NutritionTargets) error
}

type ReportsStorage interface {
	// CreateReport создаёт новый отчёт (metadata + optional data for memory mode)
	CreateReport(ctx context.Context, report *ReportMeta) error

	// GetReport возвращает отчёт по ID
	GetReport(ctx context.Context, id uuid.UUID) (*ReportMeta, error)

	// ListReports возвращает список отчётов пользователя с пагинацией
	ListReports(ctx context.Context, userID string, limit, offset int) ([]ReportMeta, error)

	// DeleteReport удаляет отчёт (metadata и данные)
	DeleteReport(ctx context.Context, id uuid.UUID) error
}

// Storage объединяет все хранилища одного бэкенда
type Storage interface {
	DaysStorage
	MealsStorage
	WorkoutsStorage
	ProfilesStorage
	ChatStorage
	WeeklyPlansStorage
	NutritionTargetsStorage
	ReportsStorage

	// Close закрывает соединение (для Postgres и SQLite)
	Close() error
}
