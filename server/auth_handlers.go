package server

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	errs "github.com/techagentng/converse/errors"
	"github.com/techagentng/converse/models"
	"github.com/techagentng/converse/server/response"
)

func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var signupRequest models.SignupRequest
		if err := decode(c, &signupRequest); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		user, err := s.AuthService.SignupUser(&signupRequest)
		if err != nil {
			if e, ok := err.(*errs.Error); ok {
				response.JSON(c, "", e.Status, nil, e)
				return
			}
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		response.JSON(c, "Signup successful", http.StatusCreated, user.Summary(), nil)
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginRequest models.LoginRequest
		if err := decode(c, &loginRequest); err != nil {
			response.JSON(c, "", errs.ErrBadRequest.Status, nil, err)
			return
		}
		userResponse, err := s.AuthService.LoginUser(&loginRequest)
		if err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, userResponse, nil)
	}
}

// generateJWTState signs a short-lived state token for the OAuth round trip.
func generateJWTState(secret string) (string, error) {
	claims := jwt.MapClaims{
		"exp":   time.Now().Add(10 * time.Minute).Unix(),
		"iat":   time.Now().Unix(),
		"state": uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func verifyJWTState(state, secret string) bool {
	token, err := jwt.Parse(state, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	return err == nil && token.Valid
}

func (s *Server) handleGoogleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := generateJWTState(s.Config.JWTSecret)
		if err != nil {
			log.Printf("Error generating state: %v", err)
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		authURL := s.AuthService.GoogleAuthURL(state)
		c.Redirect(http.StatusTemporaryRedirect, authURL)
	}
}

func (s *Server) handleGoogleCallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := c.Query("state")
		if !verifyJWTState(state, s.Config.JWTSecret) {
			response.JSON(c, "invalid or expired state", http.StatusForbidden, nil, errs.ErrForbidden)
			return
		}

		code := c.Query("code")
		if code == "" {
			response.JSON(c, "missing authorization code", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		loginResponse, err := s.AuthService.GoogleLoginUser(c.Request.Context(), code)
		if err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}

		response.JSON(c, "login successful", http.StatusOK, loginResponse, nil)
	}
}

func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, exists := c.Get("access_token")
		if !exists {
			respondAndAbort(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		accessToken, ok := token.(string)
		if !ok {
			respondAndAbort(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		if err := s.AuthService.Logout(accessToken); err != nil {
			log.Printf("Error blacklisting access token: %v", err)
			respondAndAbort(c, "Logout failed", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		response.JSON(c, "Logout successful", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleDeactivateAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		if err := s.AuthService.DeactivateAccount(userID); err != nil {
			if e, ok := err.(*errs.Error); ok {
				response.JSON(c, "", e.Status, nil, e)
				return
			}
			log.Printf("Error deactivating user %d: %v", userID, err)
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		// End the current session along with the account.
		if token, exists := c.Get("access_token"); exists {
			if accessToken, ok := token.(string); ok {
				if err := s.AuthService.Logout(accessToken); err != nil {
					log.Printf("Error blacklisting token on deactivation: %v", err)
				}
			}
		}

		response.JSON(c, "Account deactivated", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleShowProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := c.Get("userID")
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		userIDUint, ok := userID.(uint)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		user, err := s.AuthService.GetUserProfile(userIDUint)
		if err != nil {
			response.JSON(c, "Failed to fetch user profile", http.StatusInternalServerError, nil, err)
			return
		}

		response.JSON(c, "User profile retrieved successfully", http.StatusOK, user, nil)
	}
}

func (s *Server) handleGetAllUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := s.AuthService.GetAllUsers()
		if err != nil {
			response.JSON(c, "Error fetching all users", http.StatusInternalServerError, nil, err)
			return
		}

		summaries := make([]models.UserSummary, 0, len(users))
		for i := range users {
			summaries = append(summaries, users[i].Summary())
		}

		response.JSON(c, "Successfully fetched all users", http.StatusOK, summaries, nil)
	}
}

func (s *Server) handleGetUserByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			response.JSON(c, "invalid user id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		user, err := s.AuthService.GetUserByID(uint(id))
		if err != nil {
			if e, ok := err.(*errs.Error); ok {
				response.JSON(c, "", e.Status, nil, e)
				return
			}
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		response.JSON(c, "User retrieved successfully", http.StatusOK, user.Summary(), nil)
	}
}
