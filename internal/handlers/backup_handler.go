package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/backup"
)

// BackupService creates, lists and restores backup archives.
type BackupService interface {
	Run(ctx context.Context) (string, error)
	List() ([]backup.Archive, error)
	Restore(ctx context.Context, name string) (*backup.RestoreReport, error)
}

// BackupHandler exposes backup management to administrators.
type BackupHandler struct {
	BaseHandler
	service BackupService
}

// NewBackupHandler creates a new BackupHandler.
func NewBackupHandler(service BackupService, logger *zap.Logger) *BackupHandler {
	return &BackupHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     service,
	}
}

// RegisterAdminRoutes registers backup routes on the admin router.
func (h *BackupHandler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/admin/backups", func(r chi.Router) {
		r.Get("/", h.ListBackups)
		r.Post("/", h.CreateBackup)
		r.Post("/{name}/restore", h.RestoreBackup)
	})
}

// ListBackups godoc
// @Summary List backup archives
// @Tags admin
// @Produce json
// @Success 200 {array} backup.Archive
// @Failure 500 {object} map[string]string
// @Router /admin/backups [get]
func (h *BackupHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	archives, err := h.service.List()
	if err != nil {
		h.Logger.Error("failed to list backups", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	h.RespondJSON(w, http.StatusOK, archives)
}

// CreateBackup godoc
// @Summary Create a backup archive
// @Tags admin
// @Produce json
// @Success 201 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/backups [post]
func (h *BackupHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	name, err := h.service.Run(r.Context())
	if err != nil {
		h.Logger.Error("backup failed", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	h.RespondJSON(w, http.StatusCreated, map[string]string{"file": name})
}

// RestoreBackup godoc
// @Summary Restore uploads from a backup archive
// @Tags admin
// @Produce json
// @Param name path string true "Backup file name"
// @Success 200 {object} backup.RestoreReport
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/backups/{name}/restore [post]
func (h *BackupHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Restore(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}
	h.RespondJSON(w, http.StatusOK, report)
}
