package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"doc-compliance-checker/internal/middleware"
	"doc-compliance-checker/internal/models"
	"doc-compliance-checker/internal/services"
	"doc-compliance-checker/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handlers contains all HTTP handlers
type Handlers struct {
	compliance    *services.ComplianceService
	tasks         services.TaskStore
	pdfService    *services.PDFService
	maxUploadSize int64
	watchInterval time.Duration

	// background runs Process; tests replace it to run synchronously
	background func(sub *services.Submission)
}

// NewHandlers creates a new handlers instance
func NewHandlers(compliance *services.ComplianceService, pdfService *services.PDFService, maxUploadSize int64) *Handlers {
	h := &Handlers{
		compliance:    compliance,
		tasks:         compliance.Tasks(),
		pdfService:    pdfService,
		maxUploadSize: maxUploadSize,
		watchInterval: time.Second,
	}
	h.background = func(sub *services.Submission) {
		go compliance.Process(context.Background(), sub)
	}
	return h
}

func abortWithDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Detail: detail})
}

// RootHandler handles GET /
func (h *Handlers) RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the AI Document Compliance Checker API."})
}

// CheckComplianceHandler handles POST /check-compliance/
func (h *Handlers) CheckComplianceHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			abortWithDetail(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d MB upload limit.", h.maxUploadSize>>20))
			return
		}
		abortWithDetail(c, http.StatusBadRequest, "No file uploaded. Send the document in the 'file' form field.")
		return
	}

	if !services.IsSupportedExt(utils.FileExt(fileHeader.Filename)) {
		abortWithDetail(c, http.StatusBadRequest, "Invalid file type. Please upload a .pdf or .docx file.")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("[API] Could not open uploaded file: %v", err)
		abortWithDetail(c, http.StatusInternalServerError, "Could not save uploaded file.")
		return
	}
	defer file.Close()

	sub, err := h.compliance.Submit(c.Request.Context(), fileHeader.Filename, c.PostForm("notify_email"), file)
	if err != nil {
		if errors.Is(err, models.ErrUnsupportedFileType) {
			abortWithDetail(c, http.StatusBadRequest, "Invalid file type. Please upload a .pdf or .docx file.")
			return
		}
		log.Printf("[API] Could not save file: %v", err)
		abortWithDetail(c, http.StatusInternalServerError, "Could not save uploaded file.")
		return
	}

	log.Printf("[API] Task %s submitted by %s: %s", sub.Task.ID, submitter(c), fileHeader.Filename)
	h.background(sub)

	c.JSON(http.StatusAccepted, models.SubmitResponse{
		TaskID:  sub.Task.ID,
		Message: "Document upload successful. Processing has started.",
	})
}

// GetResultsHandler handles GET /results/:task_id
func (h *Handlers) GetResultsHandler(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resultResponse(task))
}

// WatchResultsHandler handles GET /results/:task_id/watch
// It pushes the task state over a websocket whenever it changes and closes
// once the task is terminal.
func (h *Handlers) WatchResultsHandler(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WEBSOCKET] Failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are noticed
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.watchInterval)
	defer ticker.Stop()

	var lastStatus models.TaskStatus
	for {
		if task.Status != lastStatus {
			if err := conn.WriteJSON(resultResponse(task)); err != nil {
				log.Printf("[WEBSOCKET] Write failed for task %s: %v", task.ID, err)
				return
			}
			lastStatus = task.Status
		}
		if task.Status.IsTerminal() {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(task.Status)),
				time.Now().Add(5*time.Second))
			return
		}

		select {
		case <-closed:
			return
		case <-ticker.C:
		}

		task, err = h.tasks.Get(context.Background(), task.ID)
		if err != nil {
			log.Printf("[WEBSOCKET] Task %s disappeared: %v", c.Param("task_id"), err)
			return
		}
	}
}

// ReportPDFHandler handles GET /results/:task_id/report.pdf
func (h *Handlers) ReportPDFHandler(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	if task.Status != models.TaskStatusCompleted {
		abortWithDetail(c, http.StatusBadRequest, "Document processing is not yet complete.")
		return
	}

	data, err := h.pdfService.GenerateReportPDF(task)
	if err != nil {
		log.Printf("[API] Failed to render PDF for task %s: %v", task.ID, err)
		abortWithDetail(c, http.StatusInternalServerError, "Failed to render report.")
		return
	}

	c.Header("Content-Disposition", attachment(fmt.Sprintf("compliance_report_%s.pdf", task.ID)))
	c.Data(http.StatusOK, "application/pdf", data)
}

// ModifyDocumentHandler handles POST /modify-document/:task_id
func (h *Handlers) ModifyDocumentHandler(c *gin.Context) {
	taskID := c.Param("task_id")

	doc, task, err := h.compliance.ModifyDocument(c.Request.Context(), taskID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTaskNotFound):
			abortWithDetail(c, http.StatusNotFound, "Task not found.")
		case errors.Is(err, models.ErrTaskNotReady):
			abortWithDetail(c, http.StatusBadRequest, "Document processing is not yet complete.")
		case errors.Is(err, models.ErrInconsistentTask):
			abortWithDetail(c, http.StatusInternalServerError, "Original text not found for modification.")
		default:
			log.Printf("[API] Failed to modify document for task %s: %v", taskID, err)
			abortWithDetail(c, http.StatusInternalServerError, fmt.Sprintf("Failed to modify document: %v", err))
		}
		return
	}

	c.Header("Content-Disposition", attachment(fmt.Sprintf("compliant_%s.docx", task.Filename)))
	c.Data(http.StatusOK, services.DOCXContentType, doc.Data)
}

// submitter names the authenticated caller for logs
func submitter(c *gin.Context) string {
	if claims := middleware.GetClaims(c); claims != nil && claims.User != "" {
		return claims.User
	}
	return "anonymous"
}

// loadTask fetches the task named in the path or writes the error reply
func (h *Handlers) loadTask(c *gin.Context) (*models.Task, bool) {
	task, err := h.tasks.Get(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		if errors.Is(err, models.ErrTaskNotFound) {
			abortWithDetail(c, http.StatusNotFound, "Task not found.")
		} else {
			log.Printf("[API] Task lookup failed: %v", err)
			abortWithDetail(c, http.StatusInternalServerError, "Failed to load task.")
		}
		return nil, false
	}
	return task, true
}

func resultResponse(task *models.Task) models.ResultResponse {
	return models.ResultResponse{
		TaskID: task.ID,
		Status: task.Status,
		Report: task.Report,
	}
}

func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}
