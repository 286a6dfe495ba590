package services

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/techagentng/converse/config"
	"github.com/techagentng/converse/db"
	apiError "github.com/techagentng/converse/errors"
	"github.com/techagentng/converse/models"
	"github.com/techagentng/converse/services/jwt"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

type AuthService interface {
	SignupUser(request *models.SignupRequest) (*models.User, error)
	LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error)
	GoogleLoginUser(ctx context.Context, code string) (*models.LoginResponse, *apiError.Error)
	GoogleAuthURL(state string) string
	GetUserProfile(userID uint) (*models.User, error)
	GetUserByID(userID uint) (*models.User, error)
	GetAllUsers() ([]models.User, error)
	DeactivateAccount(userID uint) error
	Logout(token string) error
}

type authService struct {
	Config   *config.Config
	userRepo db.UserRepository
}

func NewAuthService(userRepo db.UserRepository, conf *config.Config) AuthService {
	return &authService{
		Config:   conf,
		userRepo: userRepo,
	}
}

func (a *authService) SignupUser(request *models.SignupRequest) (*models.User, error) {
	if request == nil {
		return nil, apiError.ErrBadRequest
	}

	if err := models.TrimWhitespace(request); err != nil {
		return nil, apiError.ErrBadRequest
	}

	if err := models.ValidatePassword(request.Password); err != nil {
		return nil, apiError.New(err.Error(), http.StatusBadRequest)
	}

	if err := a.userRepo.IsEmailExist(request.Email); err != nil {
		return nil, apiError.GetUniqueContraintError(err)
	}
	if err := a.userRepo.IsUsernameExist(request.Username); err != nil {
		return nil, apiError.GetUniqueContraintError(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("SignupUser error hashing password: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	user := &models.User{
		Username:       request.Username,
		Email:          request.Email,
		HashedPassword: string(hashedPassword),
		FirstName:      request.FirstName,
		LastName:       request.LastName,
		IsActive:       true,
	}

	user, err = a.userRepo.CreateUser(user)
	if err != nil {
		// The unique indexes are the last line of defense against a
		// concurrent duplicate signup.
		if apiError.IsUniqueViolation(err) {
			return nil, apiError.Conflict("username or email already exists")
		}
		log.Printf("SignupUser error creating user: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	return user, nil
}

func (a *authService) LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error) {
	foundUser, err := a.userRepo.FindUserByEmail(loginRequest.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.ErrInvalidPassword
		}
		log.Printf("Error finding user by email: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	if err := foundUser.VerifyPassword(loginRequest.Password); err != nil {
		return nil, apiError.ErrInvalidPassword
	}

	if !foundUser.IsActive {
		return nil, apiError.InActiveUserError
	}

	accessToken, refreshToken, err := jwt.GenerateTokenPair(foundUser.Email, a.Config.JWTSecret, foundUser.ID)
	if err != nil {
		log.Printf("Error generating token pair for user %s: %v", foundUser.Email, err)
		return nil, apiError.ErrInternalServerError
	}

	return &models.LoginResponse{
		User:         foundUser.Summary(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (a *authService) googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.Config.GoogleClientID,
		ClientSecret: a.Config.GoogleClientSecret,
		RedirectURL:  a.Config.GoogleRedirectURL,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
	}
}

// GoogleAuthURL builds the consent-screen redirect for the given state.
func (a *authService) GoogleAuthURL(state string) string {
	return a.googleOAuthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GoogleLoginUser exchanges the callback code, fetches the Google profile and
// signs the account in, creating it on first contact.
func (a *authService) GoogleLoginUser(ctx context.Context, code string) (*models.LoginResponse, *apiError.Error) {
	conf := a.googleOAuthConfig()

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		log.Printf("Google token exchange failed: %v", err)
		return nil, apiError.ErrUnauthorized
	}

	svc, err := googleoauth.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx, token)))
	if err != nil {
		log.Printf("error creating google oauth service: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	info, err := svc.Userinfo.Get().Do()
	if err != nil {
		log.Printf("error fetching google userinfo: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	if info.Email == "" {
		return nil, apiError.New("google profile has no email", http.StatusBadRequest)
	}

	foundUser, err := a.userRepo.FindUserByEmail(info.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Error finding user by email: %v", err)
			return nil, apiError.ErrInternalServerError
		}
		foundUser, err = a.createGoogleUser(info)
		if err != nil {
			log.Printf("Error creating google user %s: %v", info.Email, err)
			return nil, apiError.ErrInternalServerError
		}
	}

	if !foundUser.IsActive {
		return nil, apiError.InActiveUserError
	}

	accessToken, refreshToken, err := jwt.GenerateTokenPair(foundUser.Email, a.Config.JWTSecret, foundUser.ID)
	if err != nil {
		log.Printf("Error generating token pair for user %s: %v", foundUser.Email, err)
		return nil, apiError.ErrInternalServerError
	}

	return &models.LoginResponse{
		User:         foundUser.Summary(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (a *authService) createGoogleUser(info *googleoauth.Userinfo) (*models.User, error) {
	username := strings.Split(info.Email, "@")[0]
	if len(username) < 2 {
		username = username + "user"
	}

	newUser := &models.User{
		Email:     info.Email,
		Username:  username,
		FirstName: info.GivenName,
		LastName:  info.FamilyName,
		IsSocial:  true,
		IsActive:  true,
	}

	return a.userRepo.CreateUser(newUser)
}

func (a *authService) GetUserProfile(userID uint) (*models.User, error) {
	user, err := a.userRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

// GetUserByID loads a user with all their profile pictures.
func (a *authService) GetUserByID(userID uint) (*models.User, error) {
	user, err := a.userRepo.FindUserWithPictures(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

func (a *authService) GetAllUsers() ([]models.User, error) {
	return a.userRepo.GetActiveUsers()
}

// DeactivateAccount flips the account inactive. The caller's token is
// blacklisted separately so the session dies with the account.
func (a *authService) DeactivateAccount(userID uint) error {
	err := a.userRepo.DeactivateUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apiError.NotFound("user not found")
	}
	return err
}

func (a *authService) Logout(token string) error {
	return a.userRepo.AddToBlackList(&models.Blacklist{Token: token})
}
