// internal/app/features/media/upload.go
package media

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	mediastore "github.com/dalemusser/campusforum/internal/app/store/media"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"github.com/dalemusser/campusforum/internal/app/system/blob"
	"github.com/dalemusser/campusforum/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campusforum/internal/app/system/inputval"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// multipartMemory is how much of a form is buffered before spilling to
// temp files.
const multipartMemory = 8 << 20

// MaxFiles caps the files accepted by one multi-file upload.
const MaxFiles = 10

type uploadInput struct {
	RelatedType string `json:"related_type" validate:"oneof=forum comment user group poll" label:"Related type"`
	RelatedID   string `json:"related_id" validate:"objectid" label:"Related ID"`
	Description string `json:"description" validate:"max=500" label:"Description"`
}

// uploadMeta is the validated form metadata shared by every file in a
// request.
type uploadMeta struct {
	relatedType string
	relatedID   *primitive.ObjectID
	description string
}

// HandleUpload handles POST /media (multipart, field "file"). Optional
// fields related_type, related_id and description attach the upload to a
// record.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	if h.Blobs == nil {
		respond.Error(w, r, h.Log, errNoStorage)
		return
	}
	if err := h.parseForm(w, r, 1); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		respond.Error(w, r, h.Log, errNoFile)
		return
	}
	header := files[0]
	contentType, err := h.checkFile(header, "file")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	meta, err := parseMeta(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "upload media")
	defer cancel()

	m, err := h.store(ctx, uid, header, contentType, meta)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, "file uploaded", m)
}

// HandleUploadMultiple handles POST /media/upload-multiple (multipart,
// repeated field "files", at most MaxFiles). Every file is checked before
// any is stored; a storage failure rolls back the files already stored.
func (h *Handler) HandleUploadMultiple(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	if h.Blobs == nil {
		respond.Error(w, r, h.Log, errNoStorage)
		return
	}
	if err := h.parseForm(w, r, MaxFiles); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		respond.Error(w, r, h.Log, errNoFiles)
		return
	}
	if len(headers) > MaxFiles {
		respond.Error(w, r, h.Log, apperr.Validation(fmt.Sprintf("at most %d files per upload", MaxFiles)).
			WithField("files", fmt.Sprintf("Upload at most %d files.", MaxFiles)))
		return
	}
	types := make([]string, len(headers))
	for i, fh := range headers {
		ct, err := h.checkFile(fh, "files")
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		types[i] = ct
	}
	meta, err := parseMeta(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "upload media batch")
	defer cancel()

	stored := make([]models.Media, 0, len(headers))
	for i, fh := range headers {
		m, err := h.store(ctx, uid, fh, types[i], meta)
		if err != nil {
			h.rollback(ctx, stored)
			respond.Error(w, r, h.Log, err)
			return
		}
		stored = append(stored, m)
	}
	respond.Created(w, fmt.Sprintf("%d files uploaded", len(stored)), stored)
}

// parseForm caps the body at files*MaxBytes plus room for the other form
// fields, then parses it.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request, files int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, files*h.MaxBytes+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return errTooLarge
		}
		return errNoFile.Wrap(err)
	}
	return nil
}

// checkFile enforces the size limit and extension allow-list, returning
// the content type to store.
func (h *Handler) checkFile(fh *multipart.FileHeader, field string) (string, error) {
	if fh.Size > h.MaxBytes {
		return "", apperr.Validation("file is too large").
			WithField(field, fmt.Sprintf("%s exceeds the upload limit.", fh.Filename))
	}
	ct, ok := blob.ContentTypeFor(fh.Filename)
	if !ok {
		return "", apperr.Validation("file type not allowed").
			WithField(field, fmt.Sprintf("%s: allowed types are png, jpg, jpeg, gif, webp, pdf.", fh.Filename))
	}
	return ct, nil
}

func parseMeta(r *http.Request) (uploadMeta, error) {
	in := uploadInput{
		RelatedType: strings.ToLower(strings.TrimSpace(r.FormValue("related_type"))),
		RelatedID:   strings.TrimSpace(r.FormValue("related_id")),
		Description: htmlsanitize.StripTags(r.FormValue("description")),
	}
	if err := inputval.Validate(&in).Err(); err != nil {
		return uploadMeta{}, err
	}
	meta := uploadMeta{relatedType: in.RelatedType, description: in.Description}
	if in.RelatedID != "" {
		if in.RelatedType == "" {
			return uploadMeta{}, apperr.Validation("related_type is required with related_id").
				WithField("related_type", "Related type is required.")
		}
		id, _ := primitive.ObjectIDFromHex(in.RelatedID)
		meta.relatedID = &id
	}
	return meta, nil
}

// store writes one file to blob storage and records it. A failed insert
// removes the blob again.
func (h *Handler) store(ctx context.Context, uid primitive.ObjectID, fh *multipart.FileHeader, contentType string, meta uploadMeta) (models.Media, error) {
	file, err := fh.Open()
	if err != nil {
		return models.Media{}, errNoFile.Wrap(err)
	}
	defer file.Close()

	key := blob.NewKey(time.Now().UTC(), fh.Filename)
	url, err := h.Blobs.Put(ctx, blob.UploadInput{
		Key:         key,
		Body:        file,
		Size:        fh.Size,
		ContentType: contentType,
	})
	if err != nil {
		return models.Media{}, err
	}

	m, err := mediastore.New(h.DB).Create(ctx, models.Media{
		FileName:     key[strings.LastIndex(key, "/")+1:],
		OriginalName: fh.Filename,
		ContentType:  contentType,
		Size:         fh.Size,
		URL:          url,
		StorageKey:   key,
		UploaderID:   uid,
		RelatedType:  meta.relatedType,
		RelatedID:    meta.relatedID,
		Description:  meta.description,
	})
	if err != nil {
		if derr := h.Blobs.Delete(ctx, key); derr != nil {
			h.Log.Warn("orphaned upload", zap.String("key", key), zap.Error(derr))
		}
		return models.Media{}, err
	}
	return m, nil
}

func (h *Handler) rollback(ctx context.Context, stored []models.Media) {
	store := mediastore.New(h.DB)
	for _, m := range stored {
		if err := h.Blobs.Delete(ctx, m.StorageKey); err != nil {
			h.Log.Warn("orphaned upload", zap.String("key", m.StorageKey), zap.Error(err))
		}
		if err := store.SoftDelete(ctx, m.ID); err != nil {
			h.Log.Warn("failed to roll back media record", zap.String("media_id", m.ID.Hex()), zap.Error(err))
		}
	}
}
