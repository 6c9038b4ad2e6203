package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/craftlinkhq/craftlink-backend/internal/errors"
	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"github.com/craftlinkhq/craftlink-backend/internal/repository"
	"github.com/craftlinkhq/craftlink-backend/internal/storage"
	"github.com/craftlinkhq/craftlink-backend/internal/validator"
)

// designProviderTimeout bounds a single image-generation round trip.
const designProviderTimeout = 60 * time.Second

const maxPromptLen = 2000

// DesignService generates product design images for buyers by calling an
// external image-generation API, storing the result in file storage and
// recording a Design row. A provider or storage failure leaves no row behind.
type DesignService struct {
	designs repository.DesignRepository
	users   repository.UserRepository
	files   storage.FileStorage
	client  *http.Client
	apiURL  string
	apiKey  string
	baseURL string
	logger  *slog.Logger
}

// NewDesignService creates a DesignService. publicBaseURL is the externally
// reachable origin under which stored files are served (e.g.
// "https://api.craftlink.id"); the image URL persisted on a design is built
// from it.
func NewDesignService(
	designs repository.DesignRepository,
	users repository.UserRepository,
	files storage.FileStorage,
	apiURL, apiKey, publicBaseURL string,
	logger *slog.Logger,
) *DesignService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DesignService{
		designs: designs,
		users:   users,
		files:   files,
		client:  &http.Client{Timeout: designProviderTimeout},
		apiURL:  apiURL,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger,
	}
}

// imageRequest is the JSON body sent to the image-generation provider.
type imageRequest struct {
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

// imageResponse is the provider's reply; Data carries base64-encoded PNGs.
type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate produces one design image for the prompt, stores it and persists
// the design. Only buyers may generate designs.
func (s *DesignService) Generate(ctx context.Context, buyerID uint, prompt string) (*models.Design, error) {
	prompt = validator.SanitizeString(prompt, maxPromptLen)
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required: %w", apperrors.ErrInvalidInput)
	}

	buyer, err := s.users.GetByID(ctx, buyerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	if buyer.Role != models.RoleBuyer {
		return nil, fmt.Errorf("only buyers can generate designs: %w", apperrors.ErrForbidden)
	}

	image, err := s.callProvider(ctx, prompt)
	if err != nil {
		return nil, err
	}

	storedPath, err := s.files.Save("design.png", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("failed to store generated image: %w", err)
	}

	design := &models.Design{
		BuyerID:  buyerID,
		Prompt:   prompt,
		ImageURL: s.fileURL(storedPath),
	}
	if err := s.designs.Create(ctx, design); err != nil {
		// Do not leave an orphaned image behind a failed row.
		if delErr := s.files.Delete(storedPath); delErr != nil {
			s.logger.Warn("failed to remove image after create failure",
				slog.String("path", storedPath),
				slog.String("error", delErr.Error()))
		}
		return nil, err
	}

	s.logger.Info("design generated",
		slog.Uint64("design_id", uint64(design.ID)),
		slog.Uint64("buyer_id", uint64(buyerID)))
	return design, nil
}

// List returns the caller's designs, newest first, with the total count.
func (s *DesignService) List(ctx context.Context, buyerID uint, limit, offset int) ([]models.Design, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.designs.ListByBuyer(ctx, buyerID, limit, offset)
}

// Get returns one design. Non-owners get not-found rather than forbidden so
// design ids are not enumerable.
func (s *DesignService) Get(ctx context.Context, callerID, designID uint) (*models.Design, error) {
	design, err := s.designs.GetByID(ctx, designID)
	if err != nil {
		return nil, err
	}
	if design.BuyerID != callerID {
		return nil, apperrors.ErrNotFound
	}
	return design, nil
}

// callProvider posts the prompt to the image API and returns the decoded
// image bytes.
func (s *DesignService) callProvider(ctx context.Context, prompt string) ([]byte, error) {
	if s.apiURL == "" {
		return nil, apperrors.NewProviderError("design-provider", 0, "image generation is not configured", nil)
	}

	payload, err := json.Marshal(imageRequest{
		Prompt:         prompt,
		N:              1,
		Size:           "1024x1024",
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewProviderError("design-provider", 0, "image generation request failed", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 32*1024*1024))

	if resp.StatusCode >= 300 {
		s.logger.Warn("design provider returned error",
			slog.Int("status", resp.StatusCode),
			slog.String("body", truncateForLog(body)))
		return nil, apperrors.NewProviderError("design-provider", resp.StatusCode, "image generation failed", nil)
	}

	var parsed imageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.NewProviderError("design-provider", resp.StatusCode, "unparseable provider response", err)
	}
	if parsed.Error != nil {
		return nil, apperrors.NewProviderError("design-provider", resp.StatusCode, parsed.Error.Message, nil)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].B64JSON == "" {
		return nil, apperrors.NewProviderError("design-provider", resp.StatusCode, "provider returned no image", nil)
	}

	image, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return nil, apperrors.NewProviderError("design-provider", resp.StatusCode, "provider returned invalid image data", err)
	}
	return image, nil
}

// fileURL maps a stored relative path to its public URL.
func (s *DesignService) fileURL(storedPath string) string {
	return s.baseURL + path.Join("/files", filepath.ToSlash(storedPath))
}

func truncateForLog(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
