package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/eventory/internal/imagestore"
)

// images applies the remote image policy shared by categories and items:
// a failed upload aborts the write, a failed delete is logged and ignored.
type images struct {
	store  ImageStore
	folder string
	logger *slog.Logger
}

// upload stores u and returns its URL. A nil upload yields "".
func (im images) upload(ctx context.Context, u *upload) (string, error) {
	if u == nil {
		return "", nil
	}
	if im.store == nil {
		return "", imagestore.ErrNotConfigured
	}
	url, err := im.store.Upload(ctx, im.folder, u.contentType(), u.file, u.header.Size)
	if errors.Is(err, imagestore.ErrUnsupportedType) {
		return "", badRequest("image must be a JPEG, PNG, WebP or GIF file")
	}
	return url, err
}

func (im images) remove(ctx context.Context, url string) {
	if url == "" || im.store == nil {
		return
	}
	if err := im.store.Delete(ctx, url); err != nil {
		im.logger.Warn("delete remote image", "url", url, "error", err)
	}
}

// writeUploadError reports a failed upload. Only unsupported types are the
// client's fault.
func (im images) writeUploadError(w http.ResponseWriter, err error) {
	var re *requestError
	if errors.As(err, &re) {
		writeError(w, http.StatusBadRequest, re.msg)
		return
	}
	im.logger.Error("upload image", "error", err)
	writeError(w, http.StatusInternalServerError, "failed to upload image")
}
