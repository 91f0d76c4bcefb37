package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"solar-fleet-backend/internal/apperr"
	"solar-fleet-backend/internal/audit"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/mw"
	"solar-fleet-backend/internal/store"
)

type createFirmwareRequest struct {
	Version      string `json:"version" binding:"required"`
	DownloadURL  string `json:"downloadUrl" binding:"required,url"`
	Checksum     string `json:"checksum"`
	ReleaseNotes string `json:"releaseNotes"`
}

// CreateFirmware registers a firmware build. Versions are global, so this
// stays a platform-admin operation.
func (h *Handler) CreateFirmware(c *gin.Context) {
	var req createFirmwareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}

	pkg := &model.FirmwarePackage{
		ID:           model.NewID(),
		Version:      req.Version,
		DownloadURL:  req.DownloadURL,
		Checksum:     req.Checksum,
		ReleaseNotes: req.ReleaseNotes,
	}
	if err := h.store.CreateFirmware(c.Request.Context(), pkg); err != nil {
		if apperr.IsDuplicate(err) {
			h.fail(c, apperr.Conflict("firmware version already registered"))
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, pkg)
}

// ListFirmware returns all registered firmware builds.
func (h *Handler) ListFirmware(c *gin.Context) {
	items, err := h.store.ListFirmware(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type createOtaJobRequest struct {
	TargetType  model.OtaTargetType `json:"targetType" binding:"required"`
	DeviceID    *string             `json:"deviceId"`
	GroupFilter datatypes.JSONMap   `json:"groupFilter"`
	FirmwareID  string              `json:"firmwareId" binding:"required"`
	ScheduledAt time.Time           `json:"scheduledAt" binding:"required"`
}

// CreateOtaJob schedules a firmware rollout for the active tenant.
func (h *Handler) CreateOtaJob(c *gin.Context) {
	var req createOtaJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}
	if !req.ScheduledAt.After(time.Now()) {
		h.fail(c, apperr.Validation("scheduledAt must be in the future"))
		return
	}

	ctx := c.Request.Context()
	tenantID := mw.ActiveTenantID(c)

	switch req.TargetType {
	case model.OtaTargetDevice:
		if req.DeviceID == nil {
			h.fail(c, apperr.Validation("deviceId is required for a DEVICE target"))
			return
		}
		if _, err := h.store.GetDevice(ctx, tenantID, *req.DeviceID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				h.fail(c, apperr.Validation("target device does not exist in tenant"))
				return
			}
			h.fail(c, err)
			return
		}
	case model.OtaTargetGroup:
		if len(req.GroupFilter) == 0 {
			h.fail(c, apperr.Validation("groupFilter is required for a GROUP target"))
			return
		}
	default:
		h.fail(c, apperr.Validation("unknown target type"))
		return
	}

	if _, err := h.store.GetFirmware(ctx, req.FirmwareID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(c, apperr.Validation("firmwareId does not exist"))
			return
		}
		h.fail(c, err)
		return
	}

	job := &model.OtaJob{
		ID:          model.NewID(),
		TenantID:    tenantID,
		TargetType:  req.TargetType,
		DeviceID:    req.DeviceID,
		GroupFilter: req.GroupFilter,
		FirmwareID:  req.FirmwareID,
		Status:      model.OtaJobStatusScheduled,
		ScheduledAt: req.ScheduledAt.UTC(),
	}
	if err := h.store.CreateOtaJob(ctx, job); err != nil {
		h.fail(c, err)
		return
	}

	p := mw.GetPrincipal(c)
	h.audit.Record(ctx, audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      model.AuditOtaJobScheduled,
		EntityType:  "ota_job",
		EntityID:    job.ID,
		Metadata:    map[string]any{"firmwareId": job.FirmwareID, "targetType": string(job.TargetType)},
	})
	c.JSON(http.StatusCreated, job)
}

// ListOtaJobs returns the tenant's rollout jobs.
func (h *Handler) ListOtaJobs(c *gin.Context) {
	jobs, err := h.store.ListOtaJobs(c.Request.Context(), mw.ActiveTenantID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": jobs})
}

// CancelOtaJob cancels a rollout that has not started yet.
func (h *Handler) CancelOtaJob(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := mw.ActiveTenantID(c)
	job, err := h.store.GetOtaJob(ctx, tenantID, c.Param("jobId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if job.Status != model.OtaJobStatusScheduled {
		h.fail(c, apperr.Conflict("only scheduled jobs can be canceled"))
		return
	}

	now := time.Now().UTC()
	job.Status = model.OtaJobStatusCanceled
	job.FinishedAt = &now
	if err := h.store.SaveOtaJob(ctx, job); err != nil {
		h.fail(c, err)
		return
	}

	p := mw.GetPrincipal(c)
	h.audit.Record(ctx, audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      model.AuditOtaJobCanceled,
		EntityType:  "ota_job",
		EntityID:    job.ID,
		Metadata:    nil,
	})
	c.JSON(http.StatusOK, job)
}

// PendingOta hands the device its due rollout, if any, and moves the job
// to IN_PROGRESS on first pull.
func (h *Handler) PendingOta(c *gin.Context) {
	ctx := c.Request.Context()
	device, err := h.store.GetDeviceByID(ctx, mw.GetDeviceID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	var job *model.OtaJob
	var firmware *model.FirmwarePackage
	err = h.store.Transaction(ctx, func(tx store.Store) error {
		j, jerr := tx.PendingOtaJobForDevice(ctx, device)
		if jerr != nil {
			if errors.Is(jerr, gorm.ErrRecordNotFound) {
				return nil
			}
			return jerr
		}
		if j.Status == model.OtaJobStatusScheduled {
			now := time.Now().UTC()
			j.Status = model.OtaJobStatusInProgress
			j.StartedAt = &now
			if serr := tx.SaveOtaJob(ctx, j); serr != nil {
				return serr
			}
		}
		f, ferr := tx.GetFirmware(ctx, j.FirmwareID)
		if ferr != nil {
			return ferr
		}
		job, firmware = j, f
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if job == nil {
		c.JSON(http.StatusOK, gin.H{"job": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job, "firmware": firmware})
}

type otaReportRequest struct {
	JobID           string             `json:"jobId" binding:"required"`
	Status          model.OtaJobStatus `json:"status" binding:"required"`
	Progress        datatypes.JSONMap  `json:"progress"`
	FirmwareVersion string             `json:"firmwareVersion"`
	ErrorMsg        *string            `json:"errorMsg"`
}

// ReportOta records a device's rollout progress or terminal result. An
// IN_PROGRESS report starts a SCHEDULED job; on SUCCESS the firmware
// version the device now runs is written back.
func (h *Handler) ReportOta(c *gin.Context) {
	var req otaReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation(err.Error()))
		return
	}
	switch req.Status {
	case model.OtaJobStatusInProgress, model.OtaJobStatusSuccess, model.OtaJobStatusFailed:
	default:
		h.fail(c, apperr.Validation("status must be IN_PROGRESS, SUCCESS or FAILED"))
		return
	}

	ctx := c.Request.Context()
	deviceID := mw.GetDeviceID(c)

	var job *model.OtaJob
	err := h.store.Transaction(ctx, func(tx store.Store) error {
		j, jerr := tx.GetOtaJobByID(ctx, req.JobID)
		if jerr != nil {
			return jerr
		}
		if j.TargetType == model.OtaTargetDevice && (j.DeviceID == nil || *j.DeviceID != deviceID) {
			return apperr.Forbidden("job does not target this device")
		}

		now := time.Now().UTC()
		if len(req.Progress) > 0 {
			j.Progress = req.Progress
		}

		if req.Status == model.OtaJobStatusInProgress {
			switch j.Status {
			case model.OtaJobStatusScheduled:
				j.Status = model.OtaJobStatusInProgress
				j.StartedAt = &now
			case model.OtaJobStatusInProgress:
				// progress refresh only
			default:
				return apperr.Conflict("job is not running")
			}
			job = j
			return tx.SaveOtaJob(ctx, j)
		}

		if j.Status != model.OtaJobStatusInProgress {
			return apperr.Conflict("job is not in progress")
		}
		j.Status = req.Status
		j.FinishedAt = &now
		j.ErrorMsg = req.ErrorMsg
		if serr := tx.SaveOtaJob(ctx, j); serr != nil {
			return serr
		}

		if req.Status == model.OtaJobStatusSuccess {
			device, derr := tx.GetDeviceByID(ctx, deviceID)
			if derr != nil {
				return derr
			}
			version := req.FirmwareVersion
			if version == "" {
				firmware, ferr := tx.GetFirmware(ctx, j.FirmwareID)
				if ferr != nil {
					return ferr
				}
				version = firmware.Version
			}
			device.FirmwareVersion = version
			if serr := tx.SaveDevice(ctx, device); serr != nil {
				return serr
			}
		}
		job = j
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
