package handler

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/talentio/admission-api/pkg/errors"
	"github.com/talentio/admission-api/pkg/response"
	"github.com/talentio/admission-api/pkg/storage"
)

// FileHandler serves stored files referenced by signed download tokens.
type FileHandler struct {
	signer *storage.SignedURLSigner
	store  *storage.LocalStorage
}

// NewFileHandler constructs FileHandler.
func NewFileHandler(signer *storage.SignedURLSigner, store *storage.LocalStorage) *FileHandler {
	return &FileHandler{signer: signer, store: store}
}

// Download godoc
// @Summary Download a file referenced by a signed token
// @Tags Documents
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200
// @Router /files/{token} [get]
func (h *FileHandler) Download(c *gin.Context) {
	if h.signer == nil || h.store == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	_, relPath, _, err := h.signer.Parse(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}
	c.File(h.store.Path(relPath))
}
