package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"pharmago/internal/docstore"
	"pharmago/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var contactMessages = map[string]string{
	"name.required":    "Name is required",
	"email.required":   "Email is required",
	"email.email":      "Please enter a valid email address",
	"category.oneof":   "Please choose a listed category",
	"subject.required": "Subject is required",
	"message.required": "Message is required",
}

// supportService implements SupportService.
type supportService struct {
	docs     docstore.Store
	delay    time.Duration
	validate *validator.Validate
	now      func() time.Time
	logger   zerolog.Logger
}

// NewSupportService creates a contact form service. Each accepted message is
// held for delay before it is stored, the way a slow help desk would answer.
func NewSupportService(docs docstore.Store, delay time.Duration, logger zerolog.Logger) SupportService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})

	return &supportService{
		docs:     docs,
		delay:    delay,
		validate: v,
		now:      time.Now,
		logger:   logger.With().Str("service", "support").Logger(),
	}
}

// Submit validates the contact form, waits out the delivery delay and stores
// the message. A cancelled context stores nothing.
func (s *supportService) Submit(ctx context.Context, userID string, req model.ContactRequest) (*model.SupportReceipt, error) {
	req = model.ContactRequest{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Category: strings.ToLower(strings.TrimSpace(req.Category)),
		Subject:  strings.TrimSpace(req.Subject),
		Message:  strings.TrimSpace(req.Message),
	}
	if req.Category == "" {
		req.Category = model.SupportGeneral
	}

	if err := s.check(req); err != nil {
		return nil, err
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			s.logger.Debug().Str("email", req.Email).Msg("contact message abandoned")
			return nil, ctx.Err()
		}
	}

	msg := model.SupportMessage{
		UserID:    userID,
		Name:      req.Name,
		Email:     req.Email,
		Category:  req.Category,
		Subject:   req.Subject,
		Message:   req.Message,
		CreatedAt: s.now().UTC(),
	}

	doc, err := docstore.Encode(msg)
	if err != nil {
		return nil, err
	}
	delete(doc, docstore.IDField)

	id, err := s.docs.Create(ctx, SupportMessagesCollection, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to store support message: %w", err)
	}

	s.logger.Info().
		Str("message_id", id).
		Str("category", req.Category).
		Msg("support message received")

	return &model.SupportReceipt{ID: id, Message: model.SupportAcknowledgement}, nil
}

func (s *supportService) check(req model.ContactRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := model.NewValidationError()
	for _, fe := range fieldErrs {
		msg, known := contactMessages[fe.Field()+"."+fe.Tag()]
		if !known {
			msg = fe.Error()
		}
		verr.Add(fe.Field(), msg)
	}
	return verr
}
