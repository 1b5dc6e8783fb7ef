package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

var cepPattern = regexp.MustCompile(`^\d{5}-?\d{3}$`)

type AddressDTO struct {
	ID           int64   `json:"id"`
	UserID       int64   `json:"user_id"`
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	Street       string  `json:"street"`
	Number       string  `json:"number"`
	Complement   string  `json:"complement"`
	Neighborhood string  `json:"neighborhood"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	ZipCode      string  `json:"zip_code"`
	IsDefault    bool    `json:"is_default"`
	Formatted    string  `json:"formatted"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    *string `json:"updated_at,omitempty"`
}

// 作成・更新共通
type AddressRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Phone        string `json:"phone" validate:"omitempty,max=30"`
	Street       string `json:"street" validate:"required,max=255"`
	Number       string `json:"number" validate:"required,max=20"`
	Complement   string `json:"complement" validate:"max=255"`
	Neighborhood string `json:"neighborhood" validate:"required,max=255"`
	City         string `json:"city" validate:"required,max=255"`
	State        string `json:"state" validate:"required,brstate"`
	ZipCode      string `json:"zip_code" validate:"required,cep"`
	IsDefault    bool   `json:"is_default"`
}

type AddressUsecase struct {
	addresses repository.AddressRepository
	log       *zap.Logger
}

func NewAddressUsecase(addresses repository.AddressRepository, log *zap.Logger) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, log: log}
}

// デフォルトが先頭
func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]AddressDTO, error) {
	if userID <= 0 {
		return nil, NewUnauthorizedError("unauthorized")
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		u.log.Warn("address list failed, returning empty list", zap.Int64("user_id", userID), zap.Error(err))
		return []AddressDTO{}, nil
	}

	out := make([]AddressDTO, 0, len(list))
	for i := range list {
		out = append(out, toAddressDTO(&list[i]))
	}
	return out, nil
}

// 最初の住所は自動でデフォルト（repo 側で同じ tx）
func (u *AddressUsecase) Create(ctx context.Context, userID int64, req AddressRequest) (AddressDTO, error) {
	if userID <= 0 {
		return AddressDTO{}, NewUnauthorizedError("unauthorized")
	}
	req = normalizeAddress(req)
	if err := validateAddress(req); err != nil {
		return AddressDTO{}, err
	}

	now := time.Now()
	created, err := u.addresses.Create(ctx, model.Address{
		UserID:       userID,
		Name:         req.Name,
		Phone:        req.Phone,
		Street:       req.Street,
		Number:       req.Number,
		Complement:   req.Complement,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
		IsDefault:    req.IsDefault,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return AddressDTO{}, u.unavailable("address create", err)
	}

	return toAddressDTO(&created), nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, req AddressRequest) error {
	if userID <= 0 {
		return NewUnauthorizedError("unauthorized")
	}
	if addressID <= 0 {
		return NewValidationError("invalid address id")
	}
	req = normalizeAddress(req)
	if err := validateAddress(req); err != nil {
		return err
	}

	a := model.Address{
		ID:           addressID,
		UserID:       userID,
		Name:         req.Name,
		Phone:        req.Phone,
		Street:       req.Street,
		Number:       req.Number,
		Complement:   req.Complement,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
		UpdatedAt:    time.Now(),
	}

	if err := u.addresses.Update(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFoundError("address not found")
		}
		return u.unavailable("address update", err)
	}

	if req.IsDefault {
		return u.SetDefault(ctx, userID, addressID)
	}
	return nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return NewUnauthorizedError("unauthorized")
	}
	if addressID <= 0 {
		return NewValidationError("invalid address id")
	}

	// 他人の住所は存在しない扱い
	if err := u.addresses.Delete(ctx, userID, addressID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFoundError("address not found")
		}
		return u.unavailable("address delete", err)
	}
	return nil
}

// user内でdefaultは1つ
func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return NewUnauthorizedError("unauthorized")
	}
	if addressID <= 0 {
		return NewValidationError("invalid address id")
	}

	if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFoundError("address not found")
		}
		return u.unavailable("address set default", err)
	}
	return nil
}

func (u *AddressUsecase) unavailable(op string, err error) error {
	u.log.Error(op+" failed", zap.Error(err))
	return NewStoreUnavailableError()
}

func normalizeAddress(req AddressRequest) AddressRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Street = strings.TrimSpace(req.Street)
	req.Number = strings.TrimSpace(req.Number)
	req.Complement = strings.TrimSpace(req.Complement)
	req.Neighborhood = strings.TrimSpace(req.Neighborhood)
	req.City = strings.TrimSpace(req.City)
	req.State = strings.ToUpper(strings.TrimSpace(req.State))
	req.ZipCode = strings.TrimSpace(req.ZipCode)
	return req
}

func validateAddress(req AddressRequest) error {
	if req.Name == "" || req.Street == "" || req.Number == "" || req.Neighborhood == "" || req.City == "" {
		return NewValidationError("missing required address fields")
	}
	if len(req.State) != 2 {
		return NewValidationError("invalid state")
	}
	if !cepPattern.MatchString(req.ZipCode) {
		return NewValidationError("invalid zip_code")
	}
	return nil
}

func toAddressDTO(a *model.Address) AddressDTO {
	dto := AddressDTO{
		ID:           a.ID,
		UserID:       a.UserID,
		Name:         a.Name,
		Phone:        a.Phone,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		ZipCode:      a.ZipCode,
		IsDefault:    a.IsDefault,
		Formatted:    a.Format(),
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
	t := a.UpdatedAt.Format(time.RFC3339)
	dto.UpdatedAt = &t
	return dto
}
