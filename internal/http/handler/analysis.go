package handler

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"ednaapi/internal/backend"
	"ednaapi/internal/fasta"
	"ednaapi/internal/model"
	"ednaapi/internal/service"
)

// BackendInfo exposes chain state for health reporting.
type BackendInfo interface {
	Active() string
	Statuses() []backend.Status
}

// analyzeRequest is the JSON body alternative to a multipart FASTA upload.
type analyzeRequest struct {
	Sequences  []model.SequenceRecord `json:"sequences"`
	UploadedBy string                 `json:"uploaded_by"`
}

// HealthCheck reports DB connectivity and, when backends is non-nil, the
// prediction chain state.
func HealthCheck(db *sql.DB, backends BackendInfo) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}

		body := fiber.Map{"status": "healthy"}
		if backends != nil {
			body["active_backend"] = backends.Active()
			body["backends"] = backends.Statuses()
		}
		return c.Status(fiber.StatusOK).JSON(body)
	}
}

// LivenessProbe is a bare liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Analyze classifies sequences from either a multipart FASTA upload (field
// name: file) or a JSON body with a sequences array. The response body is the
// prediction list; the stored analysis id travels in the X-Analysis-ID header.
func Analyze(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			records []model.SequenceRecord
			opts    service.AnalyzeOptions
		)

		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			raw, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
			}

			records, err = fasta.Parse(bytes.NewReader(raw))
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_FASTA", "cannot parse FASTA file")
			}

			opts = service.AnalyzeOptions{
				FileName:   fh.Filename,
				UploadedBy: c.FormValue("uploaded_by"),
				Raw:        raw,
			}
		} else {
			var req analyzeRequest
			if err := c.BodyParser(&req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "expected a FASTA upload or a JSON sequences body")
			}
			records = req.Sequences
			opts = service.AnalyzeOptions{UploadedBy: req.UploadedBy}
		}

		if len(records) == 0 {
			return writeError(c, fiber.StatusBadRequest, "SEQUENCES_REQUIRED", "no sequences provided")
		}

		res, err := svc.Analyze(c.UserContext(), records, opts)
		if err != nil {
			if errors.Is(err, service.ErrNoSequences) {
				return writeError(c, fiber.StatusBadRequest, "SEQUENCES_REQUIRED", "no sequences provided")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		c.Set("X-Analysis-ID", res.AnalysisID)
		return c.JSON(res.Predictions)
	}
}

// ListAnalyses returns paginated analyses with limit & offset.
func ListAnalyses(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetAnalysis returns one analysis with its comments and proposals.
func GetAnalysis(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		detail, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "analysis not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(detail)
	}
}

// DeleteAnalysis removes an analysis and its archived upload.
func DeleteAnalysis(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "analysis not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// presignExpiry bounds how long a shared download link stays valid.
const presignExpiry = 15 * time.Minute

// DownloadUpload serves the archived FASTA file of an analysis. By default it
// streams the object; with ?presigned=true it returns a time-limited URL so
// the client can fetch the file from object storage directly.
func DownloadUpload(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		if c.QueryBool("presigned") {
			url, err := svc.DownloadURL(c.UserContext(), id, presignExpiry)
			if err != nil {
				return downloadError(c, err)
			}
			return c.JSON(fiber.Map{"url": url, "expires_in": int(presignExpiry.Seconds())})
		}

		rc, info, err := svc.Download(c.UserContext(), id)
		if err != nil {
			return downloadError(c, err)
		}

		// MinIO canonicalizes user metadata keys on stat.
		name := info.Metadata["original-filename"]
		if name == "" {
			name = info.Metadata["Original-Filename"]
		}
		if name == "" {
			name = id + ".fasta"
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
		// SendStream closes rc once the body has been written.
		if info.Size > 0 {
			return c.SendStream(rc, int(info.Size))
		}
		return c.SendStream(rc)
	}
}

func downloadError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "analysis not found")
	case errors.Is(err, service.ErrNoUpload):
		return writeError(c, fiber.StatusNotFound, "NO_UPLOAD", "analysis has no archived upload")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// AddComment attaches reviewer feedback to an analysis.
func AddComment(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var comment model.Comment
		if err := c.BodyParser(&comment); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse comment body")
		}

		stored, err := svc.AddComment(c.UserContext(), id, &comment)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "analysis not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(stored)
	}
}

// ProposeCorrection files a species-correction proposal against an analysis.
func ProposeCorrection(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var proposal model.Proposal
		if err := c.BodyParser(&proposal); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse proposal body")
		}

		stored, err := svc.AddProposal(c.UserContext(), id, &proposal)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "analysis not found")
			case errors.Is(err, service.ErrSpeciesNeeded):
				return writeError(c, fiber.StatusBadRequest, "SPECIES_REQUIRED", "proposed_species is required")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusCreated).JSON(stored)
	}
}

// ReviewProposal accepts or rejects a pending proposal.
func ReviewProposal(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		pid := c.Params("pid")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if _, err := uuid.Parse(pid); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid proposal id format")
		}

		var req struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse review body")
		}

		updated, err := svc.ReviewProposal(c.UserContext(), id, pid, req.Status)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "proposal not found")
			case errors.Is(err, service.ErrBadStatus):
				return writeError(c, fiber.StatusBadRequest, "INVALID_STATUS", "status must be accepted or rejected")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.JSON(updated)
	}
}
