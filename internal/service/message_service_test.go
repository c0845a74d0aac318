package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"communities/messages/internal/models"
	"communities/messages/internal/repository"
	"communities/messages/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*MessageService, *repository.MemoryMessageRepository) {
	t.Helper()
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	tick := start
	repo := repository.NewMemoryMessageRepository().WithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})
	return NewMessageService(repo, logger.Discard()), repo
}

func newChannel() models.ChannelID { return models.ChannelID{UUID: models.NewMessageID().UUID} }
func newAuthor() models.AuthorID   { return models.AuthorID{UUID: models.NewMessageID().UUID} }

func ptr[T any](v T) *T { return &v }

func TestCreateMessageRejectsBlankContent(t *testing.T) {
	svc, repo := newTestService(t)
	channel := newChannel()

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := svc.CreateMessage(context.Background(), models.CreateMessageInput{ChannelID: channel, Content: content})
		assert.ErrorIs(t, err, ErrInvalidContent)
	}

	_, total, err := repo.List(context.Background(), models.MessageFilter{ChannelID: channel}, models.Pagination{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	input := models.CreateMessageInput{
		ChannelID:   newChannel(),
		AuthorID:    newAuthor(),
		Content:     "first post",
		Attachments: []models.NewAttachment{{Name: "cat.gif", URL: "https://cdn.example/cat.gif"}},
	}

	created, err := svc.CreateMessage(ctx, input)
	require.NoError(t, err)
	assert.NotEqual(t, models.MessageID{}, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := svc.GetMessage(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)
	assert.Equal(t, input.ChannelID, fetched.ChannelID)
	assert.Equal(t, input.AuthorID, fetched.AuthorID)
	assert.Equal(t, "first post", fetched.Content)
	assert.Nil(t, fetched.UpdatedAt)
}

func TestListMessagesPaging(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	channel := newChannel()

	for i := 0; i < 25; i++ {
		_, err := svc.CreateMessage(ctx, models.CreateMessageInput{ChannelID: channel, Content: "msg"})
		require.NoError(t, err)
	}

	page1, err := svc.ListMessages(ctx, channel, models.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	page2, err := svc.ListMessages(ctx, channel, models.Pagination{Page: 2, Limit: 10})
	require.NoError(t, err)
	page3, err := svc.ListMessages(ctx, channel, models.Pagination{Page: 3, Limit: 10})
	require.NoError(t, err)

	assert.Len(t, page1.Data, 10)
	assert.Len(t, page2.Data, 10)
	assert.Len(t, page3.Data, 5)
	for _, p := range []*models.Paginated[models.Message]{page1, page2, page3} {
		assert.Equal(t, int64(25), p.Total)
	}
	assert.Equal(t, int64(2), page2.Page)
	assert.True(t, page1.Data[9].CreatedAt.After(page2.Data[0].CreatedAt))
}

func TestListMessagesClampsLimit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	channel := newChannel()

	for i := 0; i < 60; i++ {
		_, err := svc.CreateMessage(ctx, models.CreateMessageInput{ChannelID: channel, Content: "msg"})
		require.NoError(t, err)
	}

	page, err := svc.ListMessages(ctx, channel, models.Pagination{Page: 1, Limit: 500})
	require.NoError(t, err)
	assert.Len(t, page.Data, 50)
	assert.Equal(t, int64(60), page.Total)
}

func TestUpdateMessageChangesOnlyProvidedFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateMessage(ctx, models.CreateMessageInput{ChannelID: newChannel(), Content: "draft"})
	require.NoError(t, err)

	updated, err := svc.UpdateMessage(ctx, created.ID, models.UpdateMessageInput{IsPinned: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "draft", updated.Content)
	assert.True(t, updated.IsPinned)
	require.NotNil(t, updated.UpdatedAt)

	updated, err = svc.UpdateMessage(ctx, created.ID, models.UpdateMessageInput{Content: ptr("final")})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)
	assert.True(t, updated.IsPinned)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestUpdateMessageRejectsBlankContentWithoutMutating(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateMessage(ctx, models.CreateMessageInput{ChannelID: newChannel(), Content: "keep me"})
	require.NoError(t, err)

	_, err = svc.UpdateMessage(ctx, created.ID, models.UpdateMessageInput{Content: ptr("  ")})
	assert.ErrorIs(t, err, ErrInvalidContent)

	stored, err := svc.GetMessage(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep me", stored.Content)
	assert.Nil(t, stored.UpdatedAt)
}

func TestUpdateMissingMessage(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateMessage(context.Background(), models.NewMessageID(), models.UpdateMessageInput{Content: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMessage(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteMessage(ctx, models.NewMessageID()), ErrNotFound)

	created, err := svc.CreateMessage(ctx, models.CreateMessageInput{ChannelID: newChannel(), Content: "bye"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteMessage(ctx, created.ID))

	_, err = svc.GetMessage(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPinMessageIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	channel := newChannel()

	created, err := svc.CreateMessage(ctx, models.CreateMessageInput{ChannelID: channel, Content: "pin me"})
	require.NoError(t, err)
	_, err = svc.CreateMessage(ctx, models.CreateMessageInput{ChannelID: channel, Content: "not me"})
	require.NoError(t, err)

	require.NoError(t, svc.PinMessage(ctx, created.ID))
	require.NoError(t, svc.PinMessage(ctx, created.ID))
	assert.ErrorIs(t, svc.PinMessage(ctx, models.NewMessageID()), ErrNotFound)

	pins, err := svc.ListPinnedMessages(ctx, channel, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), pins.Total)
	assert.Equal(t, created.ID, pins.Data[0].ID)
}

func TestSearchMessages(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	channel := newChannel()

	hit, err := svc.CreateMessage(ctx, models.CreateMessageInput{ChannelID: channel, Content: "Deploy at NOON"})
	require.NoError(t, err)
	_, err = svc.CreateMessage(ctx, models.CreateMessageInput{ChannelID: channel, Content: "lunch"})
	require.NoError(t, err)
	_, err = svc.CreateMessage(ctx, models.CreateMessageInput{ChannelID: newChannel(), Content: "noon elsewhere"})
	require.NoError(t, err)

	results, err := svc.SearchMessages(ctx, channel, "noon", models.Pagination{})
	require.NoError(t, err)
	require.Equal(t, int64(1), results.Total)
	assert.Equal(t, hit.ID, results.Data[0].MessageID)
	assert.Equal(t, "Deploy at NOON", results.Data[0].Snippet)
	assert.Equal(t, 1.0, results.Data[0].Score)

	_, err = svc.SearchMessages(ctx, channel, "   ", models.Pagination{})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Insert(ctx context.Context, input models.CreateMessageInput) (*models.Message, error) {
	args := m.Called(ctx, input)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *mockRepository) FindByID(ctx context.Context, id models.MessageID) (*models.Message, error) {
	args := m.Called(ctx, id)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *mockRepository) List(ctx context.Context, filter models.MessageFilter, page models.Pagination) ([]models.Message, int64, error) {
	args := m.Called(ctx, filter, page)
	msgs, _ := args.Get(0).([]models.Message)
	return msgs, args.Get(1).(int64), args.Error(2)
}

func (m *mockRepository) Update(ctx context.Context, id models.MessageID, input models.UpdateMessageInput, updatedAt time.Time) (*models.Message, error) {
	args := m.Called(ctx, id, input, updatedAt)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *mockRepository) Delete(ctx context.Context, id models.MessageID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) SetPinned(ctx context.Context, id models.MessageID, pinned bool) error {
	return m.Called(ctx, id, pinned).Error(0)
}

func (m *mockRepository) Search(ctx context.Context, channelID models.ChannelID, query string, page models.Pagination) ([]models.Message, int64, error) {
	args := m.Called(ctx, channelID, query, page)
	msgs, _ := args.Get(0).([]models.Message)
	return msgs, args.Get(1).(int64), args.Error(2)
}

func TestRepositoryErrorsAreMapped(t *testing.T) {
	repo := new(mockRepository)
	svc := NewMessageService(repo, logger.Discard())
	ctx := context.Background()
	unavailable := models.NewMessageID()
	broken := models.NewMessageID()

	repo.On("FindByID", mock.Anything, unavailable).
		Return(nil, errors.Join(repository.ErrUnavailable, errors.New("connection refused")))
	repo.On("FindByID", mock.Anything, broken).
		Return(nil, errors.New("decode failure"))

	_, err := svc.GetMessage(ctx, unavailable)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = svc.GetMessage(ctx, broken)
	assert.ErrorIs(t, err, ErrInternal)

	repo.AssertExpectations(t)
}

func TestBlankContentNeverReachesRepository(t *testing.T) {
	repo := new(mockRepository)
	svc := NewMessageService(repo, logger.Discard())

	_, err := svc.CreateMessage(context.Background(), models.CreateMessageInput{Content: " "})
	assert.ErrorIs(t, err, ErrInvalidContent)

	_, err = svc.UpdateMessage(context.Background(), models.NewMessageID(), models.UpdateMessageInput{Content: ptr("")})
	assert.ErrorIs(t, err, ErrInvalidContent)

	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}
