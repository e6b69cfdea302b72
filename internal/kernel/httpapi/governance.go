package httpapi

import (
	"net/http"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/reasonerclient"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/suitegovernance"
)

type governanceHandlers struct {
	service *suitegovernance.Service
	scorer  *reasonerclient.Client
}

// actionRequired names the next human or automated step after a
// governance command, echoed on every governance response per the
// always-return-current-status-and-action-required requirement.
func actionRequired(status domain.SuiteStatus) string {
	switch status {
	case domain.SuiteDraft:
		return "freeze and run system validation"
	case domain.SuiteSystemValidated:
		return "start human calibration"
	case domain.SuiteHumanValidated:
		return "approve for GA"
	case domain.SuiteGAApproved:
		return "none"
	case domain.SuiteDeprecated:
		return "none"
	default:
		return "unknown"
	}
}

func writeSuiteResult(w http.ResponseWriter, status int, suite domain.Suite) {
	writeOK(w, status, map[string]interface{}{
		"suite_id":        suite.SuiteID,
		"current_status":  suite.Status,
		"action_required": actionRequired(suite.Status),
	})
}

type runSystemValidationRequest struct {
	SuiteID       string `json:"suite_id"`
	SIVAVersion   string `json:"siva_version"`
	CodeCommitSHA string `json:"code_commit_sha"`
	Environment   string `json:"environment"`
}

func (h *governanceHandlers) runSystemValidation(w http.ResponseWriter, r *http.Request) {
	var req runSystemValidationRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "BAD_REQUEST", "message": "invalid request body",
		})
		return
	}

	run, err := h.service.RunSystemValidation(r.Context(), req.SuiteID, req.SIVAVersion, req.CodeCommitSHA, req.Environment, h.scorer)
	if err != nil {
		writeErr(w, err)
		return
	}

	suite, err := h.service.Store().GetSuite(r.Context(), req.SuiteID)
	if err != nil {
		writeErr(w, err)
		return
	}

	writeOK(w, http.StatusOK, map[string]interface{}{
		"run_id":                run.RunID,
		"run_number":            run.RunNumber,
		"status":                run.Status,
		"golden_pass_rate":      run.GoldenPassRate,
		"kill_containment_rate": run.KillContainmentRate,
		"cohens_d":              run.CohensD,
		"current_status":        suite.Status,
		"action_required":       actionRequired(suite.Status),
	})
}

type startHumanCalibrationRequest struct {
	SuiteID         string    `json:"suite_id"`
	RunID           string    `json:"run_id"`
	EvaluatorEmails []string  `json:"evaluator_emails"`
	Deadline        time.Time `json:"deadline"`
}

func (h *governanceHandlers) startHumanCalibration(w http.ResponseWriter, r *http.Request) {
	var req startHumanCalibrationRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "BAD_REQUEST", "message": "invalid request body",
		})
		return
	}

	session, invites, err := h.service.StartHumanCalibration(r.Context(), req.SuiteID, req.RunID, req.EvaluatorEmails, req.Deadline)
	if err != nil {
		writeErr(w, err)
		return
	}

	suite, err := h.service.Store().GetSuite(r.Context(), req.SuiteID)
	if err != nil {
		writeErr(w, err)
		return
	}

	writeOK(w, http.StatusCreated, map[string]interface{}{
		"session_id":      session.SessionID,
		"invites":         invites,
		"current_status":  suite.Status,
		"action_required": actionRequired(suite.Status),
	})
}

type approveForGARequest struct {
	SuiteID string `json:"suite_id"`
}

func (h *governanceHandlers) approveForGA(w http.ResponseWriter, r *http.Request) {
	var req approveForGARequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "BAD_REQUEST", "message": "invalid request body",
		})
		return
	}

	suite, err := h.service.ApproveForGA(r.Context(), req.SuiteID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeSuiteResult(w, http.StatusOK, suite)
}

type deprecateSuiteRequest struct {
	SuiteID string                    `json:"suite_id"`
	Reason  domain.DeprecationReason `json:"reason"`
}

func (h *governanceHandlers) deprecateSuite(w http.ResponseWriter, r *http.Request) {
	var req deprecateSuiteRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "BAD_REQUEST", "message": "invalid request body",
		})
		return
	}

	suite, err := h.service.Deprecate(r.Context(), req.SuiteID, req.Reason)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeSuiteResult(w, http.StatusOK, suite)
}

type createVersionRequest struct {
	SourceSuiteID string `json:"source_suite_id"`
}

func (h *governanceHandlers) createVersion(w http.ResponseWriter, r *http.Request) {
	var req createVersionRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "error": "BAD_REQUEST", "message": "invalid request body",
		})
		return
	}

	suite, err := h.service.CreateVersion(r.Context(), req.SourceSuiteID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeSuiteResult(w, http.StatusCreated, suite)
}

func (h *governanceHandlers) listSuites(w http.ResponseWriter, r *http.Request) {
	suites, err := h.service.Store().ListAllSuites(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, http.StatusOK, suites)
}
