package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/campuschain/transcript-ledger-backend/api"
	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

// LedgerClient talks to a running ledger server on behalf of one caller
// address.
type LedgerClient struct {
	baseURL    string
	caller     common.Address
	httpClient *http.Client
}

// NewLedgerClient creates a client for baseURL acting as caller.
//
// Parameters:
//   - baseURL: The base URL of the ledger API (e.g., "http://localhost:8080")
//   - caller: The caller address sent in the identity header
//   - timeout: Request timeout duration (optional, default 30 seconds)
func NewLedgerClient(baseURL string, caller common.Address, timeout ...time.Duration) *LedgerClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &LedgerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		caller:  caller,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// errorForStatus recovers the sentinel error class from a response status so
// callers can use errors.Is against client results too.
func errorForStatus(status int, body string) error {
	var sentinel error
	switch status {
	case http.StatusForbidden:
		sentinel = interfaces.ErrUnauthorized
	case http.StatusNotFound:
		sentinel = interfaces.ErrNotFound
	case http.StatusConflict:
		switch {
		case strings.Contains(body, interfaces.ErrAlreadyFinalized.Error()):
			sentinel = interfaces.ErrAlreadyFinalized
		case strings.Contains(body, interfaces.ErrInsufficientBalance.Error()):
			sentinel = interfaces.ErrInsufficientBalance
		default:
			sentinel = interfaces.ErrAlreadyExists
		}
	case http.StatusPaymentRequired:
		sentinel = interfaces.ErrInsufficientPayment
	case http.StatusBadRequest:
		if strings.Contains(body, interfaces.ErrNotRegistered.Error()) {
			sentinel = interfaces.ErrNotRegistered
		} else {
			sentinel = interfaces.ErrInvalidArgument
		}
	default:
		return fmt.Errorf("request failed with code %d: %s", status, body)
	}
	return fmt.Errorf("%w: %s", sentinel, body)
}

func (c *LedgerClient) do(method, path string, reqBody, into any) error {
	var reader io.Reader
	if reqBody != nil {
		raw, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set(api.CallerAddressHeader, c.caller.Hex())
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		raw, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Error != "" {
			return errorForStatus(resp.StatusCode, errResp.Error)
		}
		return errorForStatus(resp.StatusCode, string(raw))
	}

	if into == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// AddCourse creates a course with the given teacher.
func (c *LedgerClient) AddCourse(id interfaces.CourseID, name string, teacher common.Address) error {
	return c.do(http.MethodPost, "/api/admin/courses", api.AddCourseRequest{
		ID:      uint64(id),
		Name:    name,
		Teacher: teacher.Hex(),
	}, nil)
}

// GetCourse fetches course metadata.
func (c *LedgerClient) GetCourse(id interfaces.CourseID) (interfaces.Course, error) {
	var resp api.CourseResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/public/courses/%d", id), nil, &resp); err != nil {
		return interfaces.Course{}, err
	}
	teacher, err := interfaces.ParseAddress(resp.Teacher)
	if err != nil {
		return interfaces.Course{}, err
	}
	return interfaces.Course{
		ID:      interfaces.CourseID(resp.ID),
		Name:    resp.Name,
		Teacher: teacher,
	}, nil
}

// RegisterStudent registers a student address.
func (c *LedgerClient) RegisterStudent(student common.Address) error {
	return c.do(http.MethodPost, "/api/admin/students/"+student.Hex(), nil, nil)
}

// EnrollInCourse enrolls a registered student.
func (c *LedgerClient) EnrollInCourse(student common.Address, id interfaces.CourseID) error {
	return c.do(http.MethodPost, "/api/admin/enrollments", api.EnrollRequest{
		Student:  student.Hex(),
		CourseID: uint64(id),
	}, nil)
}

// IsStudentEnrolled reports enrollment.
func (c *LedgerClient) IsStudentEnrolled(student common.Address, id interfaces.CourseID) (bool, error) {
	var resp api.EnrolledResponse
	err := c.do(http.MethodGet, fmt.Sprintf("/api/public/enrollments/%s/%d", student.Hex(), id), nil, &resp)
	return resp.Enrolled, err
}

// GrantRole grants a role by name ("registrar", "teacher", "student").
func (c *LedgerClient) GrantRole(role string, addr common.Address) error {
	return c.do(http.MethodPost, "/api/admin/roles/grant", api.RoleRequest{Role: role, Address: addr.Hex()}, nil)
}

// RevokeRole revokes a role by name.
func (c *LedgerClient) RevokeRole(role string, addr common.Address) error {
	return c.do(http.MethodPost, "/api/admin/roles/revoke", api.RoleRequest{Role: role, Address: addr.Hex()}, nil)
}

// HasRole reports whether addr holds the named role.
func (c *LedgerClient) HasRole(role string, addr common.Address) (bool, error) {
	var resp api.HasRoleResponse
	err := c.do(http.MethodGet, fmt.Sprintf("/api/public/roles/%s/%s", role, addr.Hex()), nil, &resp)
	return resp.HasRole, err
}

// IssueGrade sets the grade for an enrolled pair.
func (c *LedgerClient) IssueGrade(student common.Address, id interfaces.CourseID, grade, proofRef string) error {
	return c.do(http.MethodPost, "/api/teacher/grades", api.IssueGradeRequest{
		Student:  student.Hex(),
		CourseID: uint64(id),
		Grade:    grade,
		ProofRef: proofRef,
	}, nil)
}

// FinalizeRecord freezes a record.
func (c *LedgerClient) FinalizeRecord(student common.Address, id interfaces.CourseID) error {
	return c.do(http.MethodPost, fmt.Sprintf("/api/admin/records/%s/%d/finalize", student.Hex(), id), nil, nil)
}

// ViewRecord fetches a record as an authorized reader.
func (c *LedgerClient) ViewRecord(student common.Address, id interfaces.CourseID) (interfaces.Record, error) {
	var resp api.RecordResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/records/%s/%d", student.Hex(), id), nil, &resp); err != nil {
		return interfaces.Record{}, err
	}
	return interfaces.Record{Grade: resp.Grade, ProofRef: resp.ProofRef, Finalized: resp.Finalized}, nil
}

// MarkAttendance appends one attendance entry.
func (c *LedgerClient) MarkAttendance(student common.Address, id interfaces.CourseID, date int64, status interfaces.AttendanceStatus, proofRef string) error {
	return c.do(http.MethodPost, "/api/teacher/attendance", api.MarkAttendanceRequest{
		Student:  student.Hex(),
		CourseID: uint64(id),
		Date:     date,
		Status:   status.String(),
		ProofRef: proofRef,
	}, nil)
}

// ViewAttendance fetches a pair's attendance log.
func (c *LedgerClient) ViewAttendance(student common.Address, id interfaces.CourseID) ([]interfaces.AttendanceEntry, error) {
	var resp api.AttendanceResponse
	err := c.do(http.MethodGet, fmt.Sprintf("/api/attendance/%s/%d", student.Hex(), id), nil, &resp)
	return resp.Entries, err
}

// SetVerificationFee replaces the verification fee.
func (c *LedgerClient) SetVerificationFee(fee *big.Int) error {
	return c.do(http.MethodPost, "/api/admin/fee", api.SetFeeRequest{Fee: fee.String()}, nil)
}

// VerificationFee fetches the current fee.
func (c *LedgerClient) VerificationFee() (*big.Int, error) {
	var resp api.FeeResponse
	if err := c.do(http.MethodGet, "/api/public/fee", nil, &resp); err != nil {
		return nil, err
	}
	return api.ParseAmount(resp.Fee)
}

// VerifyTranscript pays for verification of a finalized record.
func (c *LedgerClient) VerifyTranscript(student common.Address, id interfaces.CourseID, payment *big.Int) (interfaces.Record, error) {
	var resp api.RecordResponse
	err := c.do(http.MethodPost, "/api/verify", api.VerifyRequest{
		Student:  student.Hex(),
		CourseID: uint64(id),
		Payment:  payment.String(),
	}, &resp)
	if err != nil {
		return interfaces.Record{}, err
	}
	return interfaces.Record{Grade: resp.Grade, ProofRef: resp.ProofRef, Finalized: resp.Finalized}, nil
}

// WithdrawFees drains the escrow to the treasury and returns the amount.
func (c *LedgerClient) WithdrawFees() (*big.Int, error) {
	var resp api.WithdrawResponse
	if err := c.do(http.MethodPost, "/api/admin/withdraw", nil, &resp); err != nil {
		return nil, err
	}
	return api.ParseAmount(resp.Amount)
}

// EscrowedBalance fetches the current escrow balance. Registrar only.
func (c *LedgerClient) EscrowedBalance() (*big.Int, error) {
	var resp api.BalanceResponse
	if err := c.do(http.MethodGet, "/api/admin/balance", nil, &resp); err != nil {
		return nil, err
	}
	return api.ParseAmount(resp.Balance)
}

// Events fetches the event log tail starting at sequence from.
func (c *LedgerClient) Events(from uint64) ([]interfaces.Event, uint64, error) {
	var resp api.EventsResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/public/events?from=%d", from), nil, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Events, resp.LastSeq, nil
}

// UploadAttachment stores a proof attachment and returns its reference.
func (c *LedgerClient) UploadAttachment(data []byte) (string, error) {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/attachments", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set(api.CallerAddressHeader, c.caller.Hex())
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("attachment upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return "", errorForStatus(resp.StatusCode, string(raw))
	}

	var uploaded api.UploadAttachmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	return uploaded.ProofRef, nil
}

// DownloadAttachment fetches a stored attachment by proof reference.
func (c *LedgerClient) DownloadAttachment(proofRef string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/api/attachments/"+proofRef, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(api.CallerAddressHeader, c.caller.Hex())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("attachment download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, errorForStatus(resp.StatusCode, string(raw))
	}

	return io.ReadAll(resp.Body)
}
