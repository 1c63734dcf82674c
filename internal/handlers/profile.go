package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"goodfit-api/internal/config"
	"goodfit-api/internal/models"
	"goodfit-api/internal/services"

	"github.com/gin-gonic/gin"
)

type profileService interface {
	Get(ctx context.Context, userID uint) (*models.Profile, error)
	Save(ctx context.Context, userID uint, in services.ProfileInput) (*models.Profile, error)
	UploadPhoto(ctx context.Context, userID uint, filename string, body io.Reader, size int64, contentType string) (*models.Profile, error)
}

type deviceRegistrar interface {
	RegisterDevice(ctx context.Context, userID uint, token, platform string) (*models.DeviceToken, error)
}

type ProfileHandler struct {
	profiles profileService
	devices  deviceRegistrar
	cfg      *config.Config
}

type UpdateProfileRequest struct {
	Age                    *int     `json:"age" binding:"omitempty,min=18,max=100"`
	Gender                 string   `json:"gender" binding:"omitempty,oneof=male female non_binary prefer_not_to_say"`
	LocationCity           string   `json:"location_city" binding:"max=100"`
	LocationState          string   `json:"location_state" binding:"max=100"`
	Latitude               *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude              *float64 `json:"longitude" binding:"omitempty,longitude"`
	FitnessLevel           string   `json:"fitness_level" binding:"omitempty,fitness_level"`
	FavoriteActivities     []string `json:"favorite_activities" binding:"dive,activity_type"`
	FitnessGoals           []string `json:"fitness_goals"`
	LookingFor             []string `json:"looking_for"`
	PreferredAgeMin        int      `json:"preferred_age_min" binding:"omitempty,min=18,max=100"`
	PreferredAgeMax        int      `json:"preferred_age_max" binding:"omitempty,min=18,max=100"`
	PreferredGenders       []string `json:"preferred_genders"`
	PreferredDistanceMiles int      `json:"preferred_distance_miles" binding:"omitempty,min=1"`
	PromptQuestion         string   `json:"prompt_question" binding:"max=200"`
}

func (r *UpdateProfileRequest) toInput() services.ProfileInput {
	in := services.ProfileInput{
		Age:                    r.Age,
		Gender:                 r.Gender,
		LocationCity:           r.LocationCity,
		LocationState:          r.LocationState,
		Latitude:               r.Latitude,
		Longitude:              r.Longitude,
		FitnessLevel:           r.FitnessLevel,
		FavoriteActivities:     r.FavoriteActivities,
		FitnessGoals:           r.FitnessGoals,
		LookingFor:             r.LookingFor,
		PreferredAgeMin:        r.PreferredAgeMin,
		PreferredAgeMax:        r.PreferredAgeMax,
		PreferredGenders:       r.PreferredGenders,
		PreferredDistanceMiles: r.PreferredDistanceMiles,
		PromptQuestion:         r.PromptQuestion,
	}
	// Omitted preferences fall back to the column defaults.
	if in.PreferredAgeMin == 0 {
		in.PreferredAgeMin = 18
	}
	if in.PreferredAgeMax == 0 {
		in.PreferredAgeMax = 100
	}
	if in.PreferredDistanceMiles == 0 {
		in.PreferredDistanceMiles = 25
	}
	return in
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required,oneof=ios android web"`
}

func NewProfileHandler(profiles profileService, devices deviceRegistrar, cfg *config.Config) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, devices: devices, cfg: cfg}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profiles.Save(c.Request.Context(), currentUserID(c), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "profile": profile})
}

func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No photo provided"})
		return
	}
	defer file.Close()

	if err := h.validateImageFile(header); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profiles.UploadPhoto(c.Request.Context(), currentUserID(c),
		header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Photo uploaded successfully", "profile": profile})
}

func (h *ProfileHandler) RegisterDevice(c *gin.Context) {
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := h.devices.RegisterDevice(c.Request.Context(), currentUserID(c), req.Token, req.Platform)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"device": device})
}

func (h *ProfileHandler) validateImageFile(header *multipart.FileHeader) error {
	if header.Size > h.cfg.MaxFileSize {
		return fmt.Errorf("file too large, maximum size is %d bytes", h.cfg.MaxFileSize)
	}

	contentType := header.Header.Get("Content-Type")
	for _, allowedType := range h.cfg.AllowedImageTypes {
		if contentType == allowedType {
			return nil
		}
	}
	return fmt.Errorf("invalid file type, allowed types are: %s", strings.Join(h.cfg.AllowedImageTypes, ", "))
}
