package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/encoreline/backend/internal/models"
	"github.com/encoreline/backend/internal/realtime"
	"github.com/encoreline/backend/internal/repositories"
	"github.com/encoreline/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// memoryEventRepo keeps journal entries in memory so handler tests run
// without MongoDB.
type memoryEventRepo struct {
	mu     sync.Mutex
	events []models.RelationEvent
}

func (r *memoryEventRepo) Append(_ context.Context, event *models.RelationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *memoryEventRepo) ListByActor(_ context.Context, actorID uint, _, _ int64) ([]models.RelationEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.RelationEvent
	for _, e := range r.events {
		if e.ActorID == actorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryEventRepo) ListBySubject(_ context.Context, subjectID uint, _, _ int64) ([]models.RelationEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.RelationEvent
	for _, e := range r.events {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}

// testEnv wires handlers against an in-memory database, a local-only
// notifier, and the in-memory journal.
type testEnv struct {
	echo        *echo.Echo
	db          *gorm.DB
	users       []uint
	follow      *FollowHandler
	friendship  *FriendshipHandler
	block       *BlockHandler
	userRepo    repositories.UserRepository
	requestRepo repositories.FriendRequestRepository
	friendRepo  repositories.FriendshipRepository
	countRepo   repositories.CountRepository
	notifier    *realtime.Notifier
	journal     *memoryEventRepo
}

func newTestEnv(t *testing.T, userCount int) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Block{},
		&models.Notification{},
	))

	var ids []uint
	for i := 1; i <= userCount; i++ {
		user := &models.User{
			Username:    fmt.Sprintf("fan%d", i),
			DisplayName: fmt.Sprintf("Fan %d", i),
			Email:       fmt.Sprintf("fan%d@example.com", i),
			FirebaseUID: fmt.Sprintf("uid-fan%d", i),
		}
		require.NoError(t, db.Create(user).Error)
		ids = append(ids, user.ID)
	}

	e := echo.New()
	e.Validator = validators.NewValidator()

	userRepo := repositories.NewPostgresUserRepository(db)
	followRepo := repositories.NewPostgresFollowRepository(db)
	requestRepo := repositories.NewPostgresFriendRequestRepository(db)
	friendRepo := repositories.NewPostgresFriendshipRepository(db)
	blockRepo := repositories.NewPostgresBlockRepository(db)
	countRepo := repositories.NewRelationCountRepository(db, nil)
	notifRepo := repositories.NewPostgresNotificationRepository(db)
	journal := &memoryEventRepo{}
	notifier := realtime.NewNotifier(nil)

	return &testEnv{
		echo:        e,
		db:          db,
		users:       ids,
		follow:      NewFollowHandler(followRepo, userRepo, countRepo, notifRepo, journal, notifier),
		friendship:  NewFriendshipHandler(requestRepo, friendRepo, userRepo, notifRepo, journal, notifier),
		block:       NewBlockHandler(blockRepo, userRepo, journal, notifier),
		userRepo:    userRepo,
		requestRepo: requestRepo,
		friendRepo:  friendRepo,
		countRepo:   countRepo,
		notifier:    notifier,
		journal:     journal,
	}
}

// request builds an authenticated echo context for a handler call.
func (env *testEnv) request(method, path string, asUser uint, body string) (echo.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.echo.NewContext(req, rec)
	if asUser != 0 {
		c.Set("userID", asUser)
	}
	return c, rec
}

func (env *testEnv) withParam(c echo.Context, name string, value uint) {
	c.SetParamNames(name)
	c.SetParamValues(fmt.Sprintf("%d", value))
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}
