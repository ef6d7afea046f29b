package handlers

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"strings"
	"time"

	"tabletap-order-service/pkg/response"

	"github.com/disintegration/imaging"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuImageMaxSide = 1200

func randomSuffix8() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x", b)
}

func readImageFile(r *http.Request, field string, maxBytes int64) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("file is required")
	}
	defer file.Close()

	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("file size must be less than %dMB", maxBytes/(1024*1024))
	}

	ct := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return data, ct, nil
}

// encodeMenuJPEG normalizes any decodable upload to a bounded JPEG so the
// bucket only ever holds one predictable format.
func encodeMenuJPEG(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	if bounds.Dx() > menuImageMaxSide || bounds.Dy() > menuImageMaxSide {
		src = imaging.Fit(src, menuImageMaxSide, menuImageMaxSide, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, src, &jpeg.Options{Quality: 88}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// AdminMenuImageUpload replaces a menu item's image. The old object is
// deleted after the row points at the new one; a leaked stale object is
// preferable to a menu item pointing at nothing.
func (h *Handler) AdminMenuImageUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Media == nil {
		response.Error(w, http.StatusServiceUnavailable, "UPLOADS_DISABLED", "Image uploads are not configured")
		return
	}

	itemID, err := readPathInt64(r, "itemId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Item ID is required")
		return
	}

	var previousURL pgtype.Text
	if err := h.DB.QueryRow(ctx, `select image_url from menu_items where id = $1`, itemID).Scan(&previousURL); err != nil {
		response.Error(w, http.StatusNotFound, "ITEM_NOT_FOUND", "Menu item not found")
		return
	}

	data, _, err := readImageFile(r, "file", h.Config.MaxFileSizeBytes)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE", err.Error())
		return
	}

	jpegBytes, err := encodeMenuJPEG(data)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE", "File is not a valid image")
		return
	}

	key := fmt.Sprintf("menu-items/item-%d-%d-%s.jpg", itemID, time.Now().UnixMilli(), randomSuffix8())
	url, err := h.Media.PutObject(ctx, key, jpegBytes, "image/jpeg")
	if err != nil {
		h.Logger.Error("menu image upload failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to upload image")
		return
	}

	if _, err := h.DB.Exec(ctx, `update menu_items set image_url = $2 where id = $1`, itemID, url); err != nil {
		h.Logger.Error("menu image url update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to upload image")
		return
	}

	if previousURL.Valid && previousURL.String != url {
		if err := h.Media.DeleteURL(ctx, previousURL.String); err != nil {
			h.Logger.Warn("stale menu image delete failed", zapError(err))
		}
	}

	response.Success(w, map[string]any{"itemId": itemID, "imageUrl": url})
}
