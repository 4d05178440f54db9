package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tallyrus/pergi-api/internal/dto"
	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/repository"
)

func newTestValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupTemplateService(t *testing.T) (TemplateService, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Template{}))

	svc := NewTemplateService(repository.NewTemplateRepository(db), newTestValidator(), redisClient, time.Minute, zerolog.Nop())
	return svc, db, mini
}

func TestTemplateCreateRejectsMissingFields(t *testing.T) {
	svc, _, _ := setupTemplateService(t)

	_, err := svc.Create(context.Background(), "user-1", dto.TemplateCreateRequest{Description: "no title or blocks"})
	require.ErrorIs(t, err, ErrEmptyFields)
}

func TestTemplateCreateStartsPrivateWithEmptyConvos(t *testing.T) {
	svc, db, _ := setupTemplateService(t)

	created, err := svc.Create(context.Background(), "user-1", dto.TemplateCreateRequest{
		Title:  "Essay helper",
		Blocks: models.BlockList{models.HeaderBlock{Context: "H"}},
	})
	require.NoError(t, err)
	require.False(t, created.Public)
	require.Empty(t, created.Convos)

	var stored models.Template
	require.NoError(t, db.First(&stored, created.ID).Error)
	require.Equal(t, "user-1", stored.UserID)
	require.Len(t, stored.Blocks, 1)
}

func TestTemplateGalleryCachesAndInvalidates(t *testing.T) {
	svc, db, _ := setupTemplateService(t)

	created, err := svc.Create(context.Background(), "user-1", dto.TemplateCreateRequest{
		Title:  "Shared helper",
		Blocks: models.BlockList{models.HeaderBlock{Context: "H"}},
	})
	require.NoError(t, err)

	public := true
	_, err = svc.Update(context.Background(), created.ID, "user-1", dto.TemplateUpdateRequest{Public: &public})
	require.NoError(t, err)

	first, err := svc.ListPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, "Shared helper", first[0].Title)

	// The second read must come from the cache, blind to direct DB edits.
	require.NoError(t, db.Model(&models.Template{}).Where("id = ?", created.ID).Update("title", "Renamed").Error)
	second, err := svc.ListPublic(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Shared helper", second[0].Title)

	// Mutating through the service drops the cache.
	title := "Final name"
	_, err = svc.Update(context.Background(), created.ID, "user-1", dto.TemplateUpdateRequest{Title: &title})
	require.NoError(t, err)

	third, err := svc.ListPublic(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Final name", third[0].Title)
}

func TestTemplateGalleryHidesOwnerAndConvos(t *testing.T) {
	svc, _, _ := setupTemplateService(t)

	created, err := svc.Create(context.Background(), "user-1", dto.TemplateCreateRequest{
		Title:  "Shared helper",
		Blocks: models.BlockList{models.HeaderBlock{Context: "H"}},
	})
	require.NoError(t, err)

	public := true
	convos := models.TurnList{{Role: models.RoleUser, Content: "private exchange"}}
	_, err = svc.Update(context.Background(), created.ID, "user-1", dto.TemplateUpdateRequest{Public: &public, Convos: &convos})
	require.NoError(t, err)

	gallery, err := svc.ListPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, gallery, 1)
	require.Len(t, gallery[0].Blocks, 1)
}

func TestTemplateAccessControl(t *testing.T) {
	svc, _, _ := setupTemplateService(t)

	created, err := svc.Create(context.Background(), "user-1", dto.TemplateCreateRequest{
		Title:  "Mine",
		Blocks: models.BlockList{models.HeaderBlock{Context: "H"}},
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), created.ID, "user-2")
	require.ErrorIs(t, err, ErrTemplateForbidden)

	require.ErrorIs(t, svc.Delete(context.Background(), 999, "user-1"), ErrTemplateNotFound)
}
