package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"bodyshop/internal/audit"
	"bodyshop/internal/domain/gallery"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/go-chi/chi/v5"
)

// listGalleryHandler godoc
//
//	@Summary	Before/after photo gallery
//	@Tags		gallery
//	@Produce	json
//	@Success	200	{array}	gallery.Photo
//	@Router		/gallery [get]
func (app *application) listGalleryHandler(w http.ResponseWriter, r *http.Request) {
	photos, err := app.store.Gallery.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, photos); err != nil {
		app.internalServerError(w, r, err)
	}
}

// uploadGalleryPhotoHandler godoc
//
//	@Summary		Upload a gallery photo
//	@Description	Multipart form: photo (file, max 10 MB), title, caption, kind (before|after).
//	@Tags			gallery
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			photo	formData	file	true	"Image file"
//	@Success		201		{object}	gallery.Photo
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/gallery [post]
func (app *application) uploadGalleryPhotoHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid multipart form: %w", err))
		return
	}

	title := r.FormValue("title")
	if title == "" {
		app.badRequestResponse(w, r, fmt.Errorf("title is required"))
		return
	}

	kind := r.FormValue("kind")
	if kind != "before" && kind != "after" {
		app.badRequestResponse(w, r, fmt.Errorf("kind must be before or after"))
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("photo file is required"))
		return
	}
	defer file.Close()

	publicID := fmt.Sprintf("gallery_%s_%d", kind, time.Now().UnixNano())
	url, err := app.uploadGalleryToCloudinary(file, publicID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	photo := &gallery.Photo{
		Title:    title,
		Caption:  r.FormValue("caption"),
		Kind:     kind,
		URL:      url,
		PublicID: "gallery/" + publicID,
	}

	if err := app.store.Gallery.Create(r.Context(), photo); err != nil {
		// The asset is already in Cloudinary; remove it so it does not leak.
		if destroyErr := app.deletePhotoFromCloudinary(photo.PublicID); destroyErr != nil {
			app.logger.Errorw("error removing orphaned photo", "public_id", photo.PublicID, "error", destroyErr)
		}
		app.internalServerError(w, r, err)
		return
	}

	app.recordAudit(r, audit.Entry{
		Action:   audit.ActionCreate,
		Resource: "gallery",
		RecordID: photo.ID,
		NewValues: map[string]any{
			"title": photo.Title,
			"kind":  photo.Kind,
			"url":   photo.URL,
		},
	})

	if err := app.jsonResponse(w, http.StatusCreated, photo); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteGalleryPhotoHandler godoc
//
//	@Summary	Delete a gallery photo
//	@Tags		gallery
//	@Produce	json
//	@Param		photoID	path		int		true	"Photo ID"
//	@Success	204		{string}	string
//	@Failure	404		{object}	error
//	@Security	ApiKeyAuth
//	@Router		/admin/gallery/{photoID} [delete]
func (app *application) deleteGalleryPhotoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "photoID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid photo id"))
		return
	}

	deleted, err := app.store.Gallery.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, gallery.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	// The row is gone either way; a stuck Cloudinary asset only costs storage.
	if err := app.deletePhotoFromCloudinary(deleted.PublicID); err != nil {
		app.logger.Errorw("error deleting photo from cloudinary", "public_id", deleted.PublicID, "error", err)
	}

	app.recordAudit(r, audit.Entry{
		Action:   audit.ActionDelete,
		Resource: "gallery",
		RecordID: id,
		OldValues: map[string]any{
			"title": deleted.Title,
			"kind":  deleted.Kind,
			"url":   deleted.URL,
		},
	})

	if err := app.jsonResponse(w, http.StatusNoContent, ""); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) uploadGalleryToCloudinary(file io.Reader, publicID string) (string, error) {
	resp, err := app.cld.Upload.Upload(
		context.Background(),
		file,
		uploader.UploadParams{
			Folder:    "gallery",
			PublicID:  publicID,
			Overwrite: api.Bool(false),
		},
	)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}

func (app *application) deletePhotoFromCloudinary(publicID string) error {
	_, err := app.cld.Upload.Destroy(context.Background(), uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo from Cloudinary: %w", err)
	}
	return nil
}
