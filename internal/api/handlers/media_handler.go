package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/apperr"
	"parking-core/internal/machine"
	"parking-core/internal/media"
	"parking-core/internal/response"
	"parking-core/internal/site"
)

// MediaHandler uploads evidence photos for a machine (a pallet declared
// unsafe with a vehicle still aboard, a maintenance callout) via
// internal/media.Uploader and returns the stored file's URL. The URL is
// not written to the machine record.
type MediaHandler struct {
	Uploader *media.Uploader
	Machines *machine.Service
	Sites    *site.Service
}

func (h *MediaHandler) UploadIncidentEvidence(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "invalid machine id"))
		return
	}
	m, err := h.Machines.Store.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := authorizeSite(c, h.Sites, m.SiteID, site.OpBookingOrMachineMutation); err != nil {
		response.Fail(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, apperr.New(apperr.Validation, "file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, apperr.Wrap(apperr.Internal, "failed to read uploaded file", err))
		return
	}
	defer file.Close()

	url, err := h.Uploader.UploadEvidence(c.Request.Context(), "incident", id.Hex(), fileHeader.Filename, file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		response.Fail(c, apperr.Wrap(apperr.Internal, "failed to upload evidence", err))
		return
	}
	response.Created(c, "evidence uploaded", gin.H{"url": url})
}
