package httphandler

import (
	"net/http"
)

// ExportBackup copies the vault files into the requested directory.
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	files, err := h.backup.Export(r.Context(), req.Directory)
	if err != nil {
		h.writeServiceError(w, r, err, "export backup")
		return
	}

	writeJSON(w, http.StatusOK, BackupResponse{Files: files})
}

// ImportBackup restores the vault files and schedules a restart. The response
// is sent before the restart; the caller must unlock again afterwards.
func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	files, err := h.backup.Import(r.Context(), req.Files)
	if err != nil {
		h.writeServiceError(w, r, err, "import backup")
		return
	}

	h.sessions.Revoke(w, r)
	writeJSON(w, http.StatusAccepted, BackupResponse{Files: files, Restarting: true})
}
