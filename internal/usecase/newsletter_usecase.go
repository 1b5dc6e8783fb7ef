package usecase

import (
	"context"
	"strings"

	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type NewsletterUsecase struct {
	repo repo.NewsletterRepository
	log  *zap.Logger
}

func NewNewsletterUsecase(r repo.NewsletterRepository, log *zap.Logger) *NewsletterUsecase {
	return &NewsletterUsecase{repo: r, log: log}
}

type NewsletterSubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

type NewsletterSubscribeResponse struct {
	Success           bool `json:"success"`
	AlreadySubscribed bool `json:"already_subscribed"`
}

// 登録済みでも成功扱い
func (u *NewsletterUsecase) Subscribe(ctx context.Context, email string) (NewsletterSubscribeResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return NewsletterSubscribeResponse{}, NewValidationError("invalid email")
	}

	created, err := u.repo.Subscribe(ctx, email)
	if err != nil {
		u.log.Error("newsletter subscribe failed", zap.Error(err))
		return NewsletterSubscribeResponse{}, NewStoreUnavailableError()
	}
	return NewsletterSubscribeResponse{Success: true, AlreadySubscribed: !created}, nil
}
