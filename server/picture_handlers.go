package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/converse/errors"
	"github.com/techagentng/converse/server/response"
)

func (s *Server) handleGetMyPictures() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		pictures, apiErr := s.PictureService.GetUserPictures(userID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		response.JSON(c, "Successfully fetched profile pictures", http.StatusOK, pictures, nil)
	}
}

func (s *Server) handleUploadPictures() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			response.JSON(c, "invalid multipart form", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		files := form.File["pictures"]
		if len(files) == 0 {
			response.JSON(c, "no pictures supplied", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		pictures, apiErr := s.PictureService.UploadPictures(c.Request.Context(), userID, files)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		response.JSON(c, "Pictures uploaded successfully", http.StatusCreated, pictures, nil)
	}
}

func (s *Server) handleSetDefaultPicture() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		pictureID, err := strconv.ParseUint(c.Param("pictureID"), 10, 64)
		if err != nil {
			response.JSON(c, "invalid picture id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		picture, apiErr := s.PictureService.SetDefaultPicture(userID, uint(pictureID))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		response.JSON(c, "Default picture updated", http.StatusOK, picture, nil)
	}
}

func (s *Server) handleDeletePicture() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		pictureID, err := strconv.ParseUint(c.Param("pictureID"), 10, 64)
		if err != nil {
			response.JSON(c, "invalid picture id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		if apiErr := s.PictureService.DeletePicture(c.Request.Context(), userID, uint(pictureID)); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		response.JSON(c, "Picture deleted", http.StatusOK, nil, nil)
	}
}
