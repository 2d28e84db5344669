package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/chwoo19999-a11y/my-first-project/config"
	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/store"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

var validate = validator.New()

// RegisterInput is the registration form. Country and City fall back to configured defaults.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Country  string
	City     string
}

// UserService is the user directory.
type UserService struct {
	store *store.Store
	cfg   config.AppConfig
	now   func() time.Time
}

// Register creates a user. Username uniqueness is checked before email uniqueness so the
// reported field is deterministic.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || strings.TrimSpace(in.Password) == "" {
		return models.User{}, models.NewValidationError("username, email and password are required")
	}
	if err := validate.Var(in.Email, "required,email,max=254"); err != nil {
		return models.User{}, models.NewValidationError("invalid email address")
	}
	return s.RegisterHashed(ctx, in, utils.HashPassword(in.Password))
}

// RegisterHashed stores a user whose credential was already hashed by the caller.
func (s *UserService) RegisterHashed(ctx context.Context, in RegisterInput, credentialHash string) (models.User, error) {
	user := models.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: strings.ToLower(strings.TrimSpace(credentialHash)),
		Country:      strings.TrimSpace(in.Country),
		City:         strings.TrimSpace(in.City),
		JoinedAt:     s.now(),
	}
	if user.Username == "" || user.Email == "" || user.PasswordHash == "" {
		return models.User{}, models.NewValidationError("username, email and password are required")
	}
	if user.Country == "" {
		user.Country = s.cfg.DefaultCountry
	}
	if user.City == "" {
		user.City = s.cfg.DefaultCity
	}

	err := s.store.Tx(ctx, func(tx *store.Tx) error {
		rows, err := tx.Load(store.TableUsers)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if r["username"] == user.Username {
				return models.NewDuplicateError("username")
			}
		}
		for _, r := range rows {
			if strings.EqualFold(strings.TrimSpace(r["email"]), user.Email) {
				return models.NewDuplicateError("email")
			}
		}

		id, err := tx.NextID(store.TableUsers, "user_id")
		if err != nil {
			return err
		}
		user.ID = id
		return tx.Append(store.TableUsers, userRow(user))
	})
	if err != nil {
		return models.User{}, err
	}
	utils.Logger.Info("user registered", zap.Int("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Authenticate returns the user whose username and password match. Exactly one row must match.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	return s.AuthenticateHashed(ctx, username, utils.HashPassword(password))
}

// AuthenticateHashed is Authenticate for a credential hashed by the caller.
func (s *UserService) AuthenticateHashed(ctx context.Context, username, credentialHash string) (models.User, error) {
	username = strings.TrimSpace(username)
	var matches []models.User
	err := s.store.Read(ctx, func(tx *store.Tx) error {
		rows, err := tx.Load(store.TableUsers)
		if err != nil {
			return err
		}
		for _, r := range rows {
			// compare every candidate so timing does not depend on which row matched
			hashOK := utils.CheckPasswordHash(r["password_sha256"], credentialHash)
			if r["username"] == username && hashOK {
				matches = append(matches, userFromRow(r))
			}
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	if len(matches) != 1 {
		return models.User{}, models.NewUnauthorizedError("invalid username or password")
	}
	return matches[0], nil
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, id int) (models.User, error) {
	var user models.User
	err := s.store.Read(ctx, func(tx *store.Tx) error {
		r, ok, err := tx.Find(store.TableUsers, store.ByID("user_id", id))
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundError("user", id)
		}
		user = userFromRow(r)
		return nil
	})
	return user, err
}

// SessionFor builds the request session of an authenticated user.
func (s *UserService) SessionFor(userID int, username string) Session {
	return Session{UserID: userID, Username: username, IsAdmin: s.cfg.IsAdmin(username)}
}

func authorNames(tx *store.Tx) (map[int]string, error) {
	rows, err := tx.Load(store.TableUsers)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(rows))
	for _, r := range rows {
		if id, ok := r.Int("user_id"); ok {
			names[id] = r["username"]
		}
	}
	return names, nil
}

func requireUser(tx *store.Tx, id int) error {
	_, ok, err := tx.Find(store.TableUsers, store.ByID("user_id", id))
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("user", strconv.Itoa(id))
	}
	return nil
}
