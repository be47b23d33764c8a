package handler

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/invitame/wedding-invitation-service/internal/model"
	"github.com/invitame/wedding-invitation-service/internal/repository"
	"github.com/invitame/wedding-invitation-service/internal/storage"
)

// LandingHandler bundles dependencies for the landing-page builder.
type LandingHandler struct {
	Landing *repository.LandingRepo
	Media   storage.MediaStore
}

func NewLandingHandler(l *repository.LandingRepo, media storage.MediaStore) *LandingHandler {
	return &LandingHandler{Landing: l, Media: media}
}

// mediaTimeout bounds uploads and removals against the object store.
const mediaTimeout = 30 * time.Second

// Get returns the couple's landing page, or an empty draft when none
// has been saved yet.
func (h *LandingHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	l, err := h.Landing.GetByOwner(ctx, uid)
	if err != nil {
		if err == repository.ErrLandingNotFound {
			return c.JSON(http.StatusOK, model.LandingPage{UserID: uid, Template: "classic"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load landing failed"})
	}
	return c.JSON(http.StatusOK, l)
}

// Save upserts the couple's landing page. Slug and published state are
// untouchable through this endpoint; only the publish flow writes them.
func (h *LandingHandler) Save(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var l model.LandingPage
	if err := c.Bind(&l); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	l.UserID = uid
	if strings.TrimSpace(l.Template) == "" {
		l.Template = "classic"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Landing.Upsert(ctx, &l); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save landing failed"})
	}
	saved, err := h.Landing.GetByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load landing failed"})
	}
	return c.JSON(http.StatusOK, saved)
}

// media kinds accepted by UploadMedia.
var mediaKinds = map[string]bool{"image": true, "audio": true}

// UploadMedia stores a cover image or background track and points the
// landing page at its public URL.
func (h *LandingHandler) UploadMedia(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Media == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "media storage is not configured"})
	}
	kind := c.FormValue("kind")
	if !mediaKinds[kind] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be image or audio"})
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "open upload failed"})
	}
	defer src.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("%d/%s/%s%s", uid, kind, uuid.NewString(), path.Ext(fh.Filename))

	ctx, cancel := context.WithTimeout(c.Request().Context(), mediaTimeout)
	defer cancel()
	publicURL, err := h.Media.Upload(ctx, key, contentType, src)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "upload failed"})
	}

	l, err := h.Landing.GetByOwner(ctx, uid)
	if err != nil && err != repository.ErrLandingNotFound {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load landing failed"})
	}
	l.UserID = uid
	if strings.TrimSpace(l.Template) == "" {
		l.Template = "classic"
	}
	if kind == "image" {
		l.CoverImageURL = publicURL
	} else {
		l.MusicURL = publicURL
	}
	if err := h.Landing.Upsert(ctx, &l); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save landing failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"kind": kind, "url": publicURL})
}

// DeleteMedia removes the stored object of a kind and clears its URL on
// the landing page.
func (h *LandingHandler) DeleteMedia(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Media == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "media storage is not configured"})
	}
	kind := c.QueryParam("kind")
	if !mediaKinds[kind] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be image or audio"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), mediaTimeout)
	defer cancel()
	l, err := h.Landing.GetByOwner(ctx, uid)
	if err != nil {
		if err == repository.ErrLandingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "landing page not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load landing failed"})
	}
	current := l.CoverImageURL
	if kind == "audio" {
		current = l.MusicURL
	}
	if key := storageKeyFromURL(current, uid, kind); key != "" {
		if err := h.Media.Remove(ctx, key); err != nil {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "remove media failed"})
		}
	}
	if kind == "image" {
		l.CoverImageURL = ""
	} else {
		l.MusicURL = ""
	}
	if err := h.Landing.Upsert(ctx, &l); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save landing failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// storageKeyFromURL recovers the object key from a stored public URL.
// Keys follow <uid>/<kind>/<file>, so the key starts at that prefix.
func storageKeyFromURL(publicURL string, uid uint64, kind string) string {
	prefix := fmt.Sprintf("%d/%s/", uid, kind)
	idx := strings.Index(publicURL, prefix)
	if idx < 0 {
		return ""
	}
	return publicURL[idx:]
}
