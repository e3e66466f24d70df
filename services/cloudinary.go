package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// PlaceholderImageURL is served when a business image is missing or its
// stored reference cannot be resolved.
const PlaceholderImageURL = "https://via.placeholder.com/600x400?text=No+Image"

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

var Cloudinary *CloudinaryService

func InitializeCloudinary(cloudinaryURL string) error {
	if cloudinaryURL == "" {
		return fmt.Errorf("cloudinary URL is required")
	}

	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	Cloudinary = &CloudinaryService{cld: cld}
	return nil
}

func (cs *CloudinaryService) UploadImage(file multipart.File, folder string) (*uploader.UploadResult, error) {
	ctx := context.Background()

	publicID := fmt.Sprintf("%s/%d", folder, time.Now().UnixNano())

	result, err := cs.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       publicID,
		Folder:         folder,
		UseFilename:    &[]bool{true}[0],
		UniqueFilename: &[]bool{true}[0],
		Overwrite:      &[]bool{false}[0],
		ResourceType:   "image",
	})

	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	// Normalize URLs to HTTPS to avoid production blocking
	if result != nil {
		if result.URL != "" {
			result.URL = forceHTTPS(result.URL)
		}
		if result.SecureURL != "" {
			result.SecureURL = forceHTTPS(result.SecureURL)
		} else if result.URL != "" {
			result.SecureURL = forceHTTPS(result.URL)
		}
	}

	return result, nil
}

func (cs *CloudinaryService) DeleteImage(publicID string) error {
	ctx := context.Background()

	_, err := cs.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})

	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}

func (cs *CloudinaryService) GetImageURL(publicID string) string {
	baseURL := "https://res.cloudinary.com"
	cloudName := cs.cld.Config.Cloud.CloudName

	if cloudName == "" {
		return ""
	}

	return forceHTTPS(fmt.Sprintf("%s/%s/image/upload/%s", baseURL, cloudName, publicID))
}

// ExtractPublicID pulls the public ID out of a Cloudinary delivery URL so
// the asset can be destroyed when its business is deleted.
func ExtractPublicID(url string) string {
	// URLs look like: https://res.cloudinary.com/account/image/upload/v1234567890/folder/filename.jpg
	parts := strings.Split(url, "/")
	if len(parts) < 4 {
		return ""
	}

	for i, part := range parts {
		if part == "upload" && i+1 < len(parts) {
			path := strings.Join(parts[i+1:], "/")
			// Remove version prefix (v1234567890/)
			if strings.Contains(path, "/") {
				pathParts := strings.Split(path, "/")
				if len(pathParts) > 1 && strings.HasPrefix(pathParts[0], "v") {
					path = strings.Join(pathParts[1:], "/")
				}
			}
			return strings.TrimSuffix(path, filepath.Ext(path))
		}
	}

	return ""
}

// forceHTTPS ensures Cloudinary URLs use https scheme
func forceHTTPS(in string) string {
	if in == "" {
		return in
	}
	out := strings.TrimSpace(in)
	out = strings.Replace(out, "http://", "https://", 1)
	return out
}
