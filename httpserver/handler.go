package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/campuschain/transcript-ledger-backend/api"
	"github.com/campuschain/transcript-ledger-backend/interfaces"
	"github.com/campuschain/transcript-ledger-backend/metrics"
)

// maxBodySize is the maximum allowed request body size (1MB). Attachment
// uploads get a higher limit.
const (
	maxBodySize       = 1024 * 1024
	maxAttachmentSize = 16 * 1024 * 1024
)

// Handler processes HTTP requests for the ledger service.
type Handler struct {
	ledger  interfaces.Ledger
	events  interfaces.EventReader
	storage interfaces.StorageBackend
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewHandler creates an HTTP request handler.
//
// storage may be nil, in which case the attachment endpoints report the
// store as unconfigured. metrics may be nil to disable instrumentation.
func NewHandler(ledger interfaces.Ledger, events interfaces.EventReader, storage interfaces.StorageBackend, m *metrics.Metrics, log *slog.Logger) *Handler {
	return &Handler{
		ledger:  ledger,
		events:  events,
		storage: storage,
		metrics: m,
		log:     log,
	}
}

// statusForError maps the ledger error taxonomy to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, interfaces.ErrNotFound), errors.Is(err, interfaces.ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrAlreadyExists), errors.Is(err, interfaces.ErrAlreadyFinalized):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrInvalidArgument), errors.Is(err, interfaces.ErrNotRegistered):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrInsufficientPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, interfaces.ErrInsufficientBalance):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// outcomeForError labels an operation result for metrics.
func outcomeForError(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, interfaces.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, interfaces.ErrNotFound):
		return "not_found"
	case errors.Is(err, interfaces.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, interfaces.ErrAlreadyFinalized):
		return "already_finalized"
	case errors.Is(err, interfaces.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, interfaces.ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, interfaces.ErrInsufficientPayment):
		return "insufficient_payment"
	case errors.Is(err, interfaces.ErrInsufficientBalance):
		return "insufficient_balance"
	default:
		return "error"
	}
}

func (h *Handler) observe(operation string, err error) {
	h.metrics.ObserveOperation(operation, outcomeForError(err))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", "err", err)
	}
	h.writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}

// caller extracts and validates the authenticated caller address header.
func (h *Handler) caller(r *http.Request) (common.Address, error) {
	raw := r.Header.Get(api.CallerAddressHeader)
	if raw == "" {
		return common.Address{}, fmt.Errorf("%w: missing %s header", interfaces.ErrInvalidArgument, api.CallerAddressHeader)
	}
	return interfaces.ParseAddress(raw)
}

func (h *Handler) decode(r *http.Request, into any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: failed to read request body", interfaces.ErrInvalidArgument)
	}
	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", interfaces.ErrInvalidArgument, err)
	}
	return nil
}

// pairParams parses the {student}/{courseID} URL segment pair used by the
// record, attendance and enrollment routes.
func pairParams(r *http.Request) (common.Address, interfaces.CourseID, error) {
	student, err := interfaces.ParseAddress(chi.URLParam(r, "student"))
	if err != nil {
		return common.Address{}, 0, err
	}
	courseID, err := interfaces.ParseCourseID(chi.URLParam(r, "courseID"))
	if err != nil {
		return common.Address{}, 0, err
	}
	return student, courseID, nil
}

// HandleAddCourse creates a course. POST /api/admin/courses
func (h *Handler) HandleAddCourse(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.AddCourseRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	teacher, err := interfaces.ParseAddress(req.Teacher)
	if err != nil {
		h.writeError(w, err)
		return
	}

	err = h.ledger.AddCourse(caller, interfaces.CourseID(req.ID), req.Name, teacher)
	h.observe("add_course", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, api.StatusResponse{Status: "created"})
}

// HandleGetCourse returns course metadata. GET /api/public/courses/{courseID}
func (h *Handler) HandleGetCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := interfaces.ParseCourseID(chi.URLParam(r, "courseID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	course, ok := h.ledger.GetCourse(courseID)
	if !ok {
		h.writeError(w, fmt.Errorf("%w: course %d", interfaces.ErrNotFound, courseID))
		return
	}

	h.writeJSON(w, http.StatusOK, api.CourseResponse{
		ID:      uint64(course.ID),
		Name:    course.Name,
		Teacher: course.Teacher.Hex(),
	})
}

// HandleRegisterStudent registers a student. POST /api/admin/students/{address}
func (h *Handler) HandleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	student, err := interfaces.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	err = h.ledger.RegisterStudent(caller, student)
	h.observe("register_student", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "registered"})
}

// HandleEnroll enrolls a student in a course. POST /api/admin/enrollments
func (h *Handler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.EnrollRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	student, err := interfaces.ParseAddress(req.Student)
	if err != nil {
		h.writeError(w, err)
		return
	}

	err = h.ledger.EnrollInCourse(caller, student, interfaces.CourseID(req.CourseID))
	h.observe("enroll", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "enrolled"})
}

// HandleGrantRole grants a role. POST /api/admin/roles/grant
func (h *Handler) HandleGrantRole(w http.ResponseWriter, r *http.Request) {
	h.handleRoleChange(w, r, "grant_role", h.ledger.GrantRole)
}

// HandleRevokeRole revokes a role. POST /api/admin/roles/revoke
func (h *Handler) HandleRevokeRole(w http.ResponseWriter, r *http.Request) {
	h.handleRoleChange(w, r, "revoke_role", h.ledger.RevokeRole)
}

func (h *Handler) handleRoleChange(w http.ResponseWriter, r *http.Request, operation string, change func(common.Address, interfaces.Role, common.Address) error) {
	caller, err := h.caller(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.RoleRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	role, err := interfaces.ParseRole(req.Role)
	if err != nil {
		h.writeError(w, err)
		return
	}
	addr, err := interfaces.ParseAddress(req.Address)
	if err != nil {
		h.writeError(w, err)
		return
	}

	err = change(caller, role, addr)
	h.observe(operation, err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "ok"})
}

// HandleHasRole reports a role lookup. GET /api/public/roles/{role}/{address}
func (h *Handler) HandleHasRole(w http.ResponseWriter, r *http.Request) {
	role, err := interfaces.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	addr, err := interfaces.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.HasRoleResponse{HasRole: h.ledger.HasRole(role, addr)})
}

// HandleIssueGrade sets a grade. POST /api/teacher/grades
func (h *Handler) HandleIssueGrade(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.IssueGradeRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	student, err := interfaces.ParseAddress(req.Student)
	if err != nil {
		h.writeError(w, err)
		return
	}

	err = h.ledger.IssueGrade(caller, student, interfaces.CourseID(req.CourseID), req.Grade, req.ProofRef)
	h.observe("issue_grade", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "issued"})
}

// HandleFinalizeRecord freezes a record.
// POST /api/admin/records/{student}/{courseID}/finalize
func (h *Handler) HandleFinalizeRecord(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	student, courseID, err := pairParams(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	err = h.ledger.FinalizeRecord(caller, student, courseID)
	h.observe("finalize_record", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "finalized"})
}

// HandleViewRecord serves a record to authorized readers.
// GET /api/records/{student}/{courseID}
func (h *Handler) HandleViewRecord(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	student, courseID, err := pairParams(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rec, err := h.ledger.ViewRecord(caller, student, courseID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.RecordFromLedger(rec))
}

// HandleMarkAttendance appends an attendance entry. POST /api/teacher/attendance
func (h *Handler) HandleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.MarkAttendanceRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	student, err := interfaces.ParseAddress(req.Student)
	if err != nil {
		h.writeError(w, err)
		return
	}
	status, err := interfaces.ParseAttendanceStatus(req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}

	err = h.ledger.MarkAttendance(caller, student, interfaces.CourseID(req.CourseID), req.Date, status, req.ProofRef)
	h.observe("mark_attendance", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "marked"})
}

// HandleViewAttendance serves a pair's attendance log.
// GET /api/attendance/{student}/{courseID}
func (h *Handler) HandleViewAttendance(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	student, courseID, err := pairParams(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	entries, err := h.ledger.ViewAttendance(caller, student, courseID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.AttendanceResponse{Entries: entries})
}

// HandleIsEnrolled reports enrollment.
// GET /api/public/enrollments/{student}/{courseID}
func (h *Handler) HandleIsEnrolled(w http.ResponseWriter, r *http.Request) {
	student, courseID, err := pairParams(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.EnrolledResponse{Enrolled: h.ledger.IsStudentEnrolled(student, courseID)})
}

// HandleSetFee replaces the verification fee. POST /api/admin/fee
func (h *Handler) HandleSetFee(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.SetFeeRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	fee, err := api.ParseAmount(req.Fee)
	if err != nil {
		h.writeError(w, err)
		return
	}

	err = h.ledger.SetVerificationFee(caller, fee)
	h.observe("set_fee", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.FeeResponse{Fee: fee.String()})
}

// HandleGetFee reports the current verification fee. GET /api/public/fee
func (h *Handler) HandleGetFee(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, api.FeeResponse{Fee: h.ledger.VerificationFee().String()})
}

// HandleVerify verifies a finalized record against an exact payment.
// POST /api/verify
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.VerifyRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	student, err := interfaces.ParseAddress(req.Student)
	if err != nil {
		h.writeError(w, err)
		return
	}
	payment, err := api.ParseAmount(req.Payment)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rec, err := h.ledger.VerifyTranscript(caller, student, interfaces.CourseID(req.CourseID), payment)
	h.observe("verify_transcript", err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.updateEscrowGauge()

	h.writeJSON(w, http.StatusOK, api.RecordFromLedger(rec))
}

// HandleWithdraw drains the escrow to the treasury. POST /api/admin/withdraw
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	amount, err := h.ledger.WithdrawFees(caller)
	h.observe("withdraw_fees", err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.updateEscrowGauge()

	h.writeJSON(w, http.StatusOK, api.WithdrawResponse{
		Amount:   amount.String(),
		Treasury: h.ledger.Treasury().Hex(),
	})
}

// HandleBalance reports the escrowed balance. GET /api/admin/balance
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !h.ledger.HasRole(interfaces.RoleRegistrar, caller) {
		h.writeError(w, fmt.Errorf("%w: registrar role required", interfaces.ErrUnauthorized))
		return
	}

	h.writeJSON(w, http.StatusOK, api.BalanceResponse{
		Balance:  h.ledger.EscrowedBalance().String(),
		Treasury: h.ledger.Treasury().Hex(),
	})
}

// HandleEvents serves a tail of the event log. GET /api/public/events?from=N
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	from := uint64(1)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.writeError(w, fmt.Errorf("%w: invalid from parameter %q", interfaces.ErrInvalidArgument, raw))
			return
		}
		from = parsed
	}

	events, err := h.events.EventsSince(from)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.EventsResponse{
		Events:  events,
		LastSeq: h.events.LastSeq(),
	})
}

// contentTypeParam resolves the optional ?type= query parameter selecting
// the attachment namespace. Defaults to the transcript namespace.
func contentTypeParam(r *http.Request) (interfaces.ContentType, error) {
	switch r.URL.Query().Get("type") {
	case "", "transcript":
		return interfaces.TranscriptType, nil
	case "attendance":
		return interfaces.AttendanceType, nil
	default:
		return 0, fmt.Errorf("%w: unknown attachment type %q", interfaces.ErrInvalidArgument, r.URL.Query().Get("type"))
	}
}

// HandleUploadAttachment stores a proof attachment and returns its
// content-addressed reference. POST /api/attachments[?type=attendance]
func (h *Handler) HandleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.writeJSON(w, http.StatusNotImplemented, api.ErrorResponse{Error: "attachment store not configured"})
		return
	}

	contentType, err := contentTypeParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxAttachmentSize))
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: failed to read attachment body", interfaces.ErrInvalidArgument))
		return
	}
	if len(data) == 0 {
		h.writeError(w, fmt.Errorf("%w: empty attachment", interfaces.ErrInvalidArgument))
		return
	}

	id, err := h.storage.Store(r.Context(), data, contentType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, api.UploadAttachmentResponse{ProofRef: id.String()})
}

// HandleDownloadAttachment serves a stored attachment by proof reference.
// GET /api/attachments/{id}[?type=attendance]
func (h *Handler) HandleDownloadAttachment(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		h.writeJSON(w, http.StatusNotImplemented, api.ErrorResponse{Error: "attachment store not configured"})
		return
	}

	contentType, err := contentTypeParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	id, err := interfaces.NewContentIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid attachment id", interfaces.ErrInvalidArgument))
		return
	}

	data, err := h.storage.Fetch(r.Context(), id, contentType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Error("Failed to write attachment response", "err", err)
	}
}

func (h *Handler) updateEscrowGauge() {
	balance, _ := new(big.Float).SetInt(h.ledger.EscrowedBalance()).Float64()
	h.metrics.SetEscrowBalance(balance)
}
