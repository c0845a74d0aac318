package service

import (
	"context"
	"strings"
	"time"

	"communities/messages/internal/models"
	"communities/messages/internal/repository"
	"communities/messages/pkg/logger"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "communities/messages/internal/service"

// MessageService holds the message business rules
type MessageService struct {
	repo      repository.MessageRepository
	log       *logger.Logger
	now       func() time.Time
	tracer    trace.Tracer
	mutations metric.Int64Counter
}

// NewMessageService creates a message service on repo
func NewMessageService(repo repository.MessageRepository, log *logger.Logger) *MessageService {
	mutations, err := otel.Meter(instrumentationName).Int64Counter(
		"messages.mutations",
		metric.WithDescription("Successful message mutations by operation"),
	)
	if err != nil {
		log.LogError(err, "Failed to create mutation counter")
		mutations = noop.Int64Counter{}
	}

	return &MessageService{
		repo:      repo,
		log:       log,
		now:       time.Now,
		tracer:    otel.Tracer(instrumentationName),
		mutations: mutations,
	}
}

func (s *MessageService) CreateMessage(ctx context.Context, input models.CreateMessageInput) (_ *models.Message, err error) {
	ctx, span := s.tracer.Start(ctx, "MessageService.CreateMessage",
		trace.WithAttributes(attribute.String("channel_id", input.ChannelID.String())))
	defer func() { endSpan(span, err) }()

	if models.IsBlankContent(input.Content) {
		return nil, ErrInvalidContent
	}

	m, err := s.repo.Insert(ctx, input)
	if err != nil {
		return nil, fromRepository(err)
	}

	s.count(ctx, "create")
	s.log.Debug("Message created", "message_id", m.ID.String(), "channel_id", m.ChannelID.String())
	return m, nil
}

func (s *MessageService) GetMessage(ctx context.Context, id models.MessageID) (_ *models.Message, err error) {
	ctx, span := s.tracer.Start(ctx, "MessageService.GetMessage",
		trace.WithAttributes(attribute.String("message_id", id.String())))
	defer func() { endSpan(span, err) }()

	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepository(err)
	}
	return m, nil
}

// ListMessages returns a page of channel messages, newest first
func (s *MessageService) ListMessages(ctx context.Context, channelID models.ChannelID, page models.Pagination) (*models.Paginated[models.Message], error) {
	return s.list(ctx, "MessageService.ListMessages", models.MessageFilter{ChannelID: channelID}, page)
}

// ListPinnedMessages returns a page of pinned channel messages, newest first
func (s *MessageService) ListPinnedMessages(ctx context.Context, channelID models.ChannelID, page models.Pagination) (*models.Paginated[models.Message], error) {
	return s.list(ctx, "MessageService.ListPinnedMessages", models.MessageFilter{ChannelID: channelID, PinnedOnly: true}, page)
}

func (s *MessageService) list(ctx context.Context, spanName string, filter models.MessageFilter, page models.Pagination) (_ *models.Paginated[models.Message], err error) {
	ctx, span := s.tracer.Start(ctx, spanName,
		trace.WithAttributes(attribute.String("channel_id", filter.ChannelID.String())))
	defer func() { endSpan(span, err) }()

	page = page.Normalize()
	messages, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, fromRepository(err)
	}

	return &models.Paginated[models.Message]{Data: messages, Total: total, Page: page.Page}, nil
}

// UpdateMessage applies a partial update. Blank content is rejected before anything is read.
func (s *MessageService) UpdateMessage(ctx context.Context, id models.MessageID, input models.UpdateMessageInput) (_ *models.Message, err error) {
	ctx, span := s.tracer.Start(ctx, "MessageService.UpdateMessage",
		trace.WithAttributes(attribute.String("message_id", id.String())))
	defer func() { endSpan(span, err) }()

	if input.Content != nil && models.IsBlankContent(*input.Content) {
		return nil, ErrInvalidContent
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, fromRepository(err)
	}

	m, err := s.repo.Update(ctx, id, input, s.now())
	if err != nil {
		return nil, fromRepository(err)
	}

	s.count(ctx, "update")
	return m, nil
}

func (s *MessageService) DeleteMessage(ctx context.Context, id models.MessageID) (err error) {
	ctx, span := s.tracer.Start(ctx, "MessageService.DeleteMessage",
		trace.WithAttributes(attribute.String("message_id", id.String())))
	defer func() { endSpan(span, err) }()

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return fromRepository(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fromRepository(err)
	}

	s.count(ctx, "delete")
	return nil
}

// PinMessage marks a message as pinned. Pinning twice is not an error.
func (s *MessageService) PinMessage(ctx context.Context, id models.MessageID) (err error) {
	ctx, span := s.tracer.Start(ctx, "MessageService.PinMessage",
		trace.WithAttributes(attribute.String("message_id", id.String())))
	defer func() { endSpan(span, err) }()

	if err := s.repo.SetPinned(ctx, id, true); err != nil {
		return fromRepository(err)
	}

	s.count(ctx, "pin")
	return nil
}

// SearchMessages finds messages in a channel whose content contains query, ignoring case
func (s *MessageService) SearchMessages(ctx context.Context, channelID models.ChannelID, query string, page models.Pagination) (_ *models.Paginated[models.SearchResult], err error) {
	ctx, span := s.tracer.Start(ctx, "MessageService.SearchMessages",
		trace.WithAttributes(attribute.String("channel_id", channelID.String())))
	defer func() { endSpan(span, err) }()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidQuery
	}

	page = page.Normalize()
	messages, total, err := s.repo.Search(ctx, channelID, query, page)
	if err != nil {
		return nil, fromRepository(err)
	}

	return &models.Paginated[models.SearchResult]{
		Data:  lo.Map(messages, func(m models.Message, _ int) models.SearchResult { return models.NewSearchResult(m) }),
		Total: total,
		Page:  page.Page,
	}, nil
}

func (s *MessageService) count(ctx context.Context, operation string) {
	s.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
