package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yeremiapane/food-store/models"
	"github.com/yeremiapane/food-store/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

// ProfileUpdate holds the shipping defaults a user may edit. Nil fields are left alone.
type ProfileUpdate struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Phone     *string `json:"phone" validate:"omitempty,max=12"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
	City      *string `json:"city" validate:"omitempty,max=100"`
	Country   *string `json:"country" validate:"omitempty,max=100"`
	Zip       *string `json:"zip" validate:"omitempty,max=100"`
}

type LoginResult struct {
	Token string      `json:"token"`
	Role  string      `json:"user_role"`
	User  models.User `json:"user"`
}

var errInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrAuthenticationRequired)

func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := models.Validate(&req); err != nil {
		return nil, fromValidator(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     req.Email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		IsActive:  true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("email %s already registered: %w", user.Email, ErrConflict)
		}
		return duplicateAsConflict(tx.Create(user).Error, "email "+user.Email)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("New user registered: %s", user.Email)
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errInvalidCredentials
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account %s is disabled: %w", user.Email, ErrForbidden)
	}

	token, err := utils.GenerateToken(user.ID, user.Role())
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Login successful for user: %s, role: %s", user.Email, user.Role())
	return &LoginResult{Token: token, Role: user.Role(), User: user}, nil
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user", userID)
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the profile only; carts already created keep their shipping fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*models.User, error) {
	if err := models.Validate(&upd); err != nil {
		return nil, fromValidator(err)
	}

	updates := map[string]interface{}{}
	set := func(column string, v *string) {
		if v != nil {
			updates[column] = strings.TrimSpace(*v)
		}
	}
	set("first_name", upd.FirstName)
	set("last_name", upd.LastName)
	set("phone", upd.Phone)
	set("address", upd.Address)
	set("city", upd.City)
	set("country", upd.Country)
	set("zip", upd.Zip)

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("user", userID)
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, "id = ?", userID).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// duplicateAsConflict turns a unique-index violation into ErrConflict. It covers the
// window between an existence check and the insert.
func duplicateAsConflict(err error, what string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s already registered: %w", what, ErrConflict)
	}
	return err
}
