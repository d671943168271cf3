package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"newsletter-go/pkg/batch"
	"newsletter-go/pkg/models"
	"newsletter-go/pkg/services"

	"github.com/gin-gonic/gin"
)

// KeepAliveInterval is how often an idle event stream gets a comment frame
var KeepAliveInterval = 15 * time.Second

var uploadContentTypes = map[string]bool{
	"text/plain":               true,
	"application/octet-stream": true,
	"application/text":         true,
}

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Generate schedules a newsletter task for a batch of URLs
func Generate(service *services.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Detail: err.Error()})
			return
		}

		var opts models.Options
		if req.Options != nil {
			opts = *req.Options
		}
		if err := opts.Validate(); err != nil {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Detail: err.Error()})
			return
		}

		resp, err := service.Create(req.URLs, opts)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Detail: err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, resp)
	}
}

// GetStatus returns the current status of a task
func GetStatus(service *services.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := service.Status(c.Param("id"))
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, payload)
	}
}

// GetResult returns the generated newsletter of a completed task
func GetResult(service *services.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := service.Result(c.Param("id"))
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// StreamEvents pushes "status" frames on every change and a final "end"
// frame once the task is terminal.
func StreamEvents(service *services.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID := c.Param("id")
		if _, err := service.Status(taskID); err != nil {
			writeServiceError(c, err)
			return
		}

		c.Header("Cache-Control", "no-store")
		c.Header("X-Accel-Buffering", "no")

		keepAlive := time.NewTicker(KeepAliveInterval)
		defer keepAlive.Stop()

		var last string
		c.Stream(func(w io.Writer) bool {
			payload, changed, err := service.Watch(taskID)
			if err != nil {
				return false
			}

			data, err := json.Marshal(payload)
			if err != nil {
				return false
			}
			if string(data) != last {
				last = string(data)
				c.SSEvent("status", last)
			}
			if payload.Status.Terminal() {
				c.SSEvent("end", last)
				return false
			}

			select {
			case <-changed:
			case <-keepAlive.C:
				_, _ = io.WriteString(w, ": keep-alive\n\n")
			case <-c.Request.Context().Done():
				return false
			}
			return true
		})
	}
}

// UploadManifest analyzes an uploaded URL list without scheduling anything
func UploadManifest() gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Detail: "file is required"})
			return
		}

		if !allowedUpload(fileHeader.Header.Get("Content-Type")) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Unsupported file type"})
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "could not read upload"})
			return
		}
		defer f.Close()

		res, err := batch.ReadFrom(f)
		switch {
		case errors.Is(err, batch.ErrTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Detail: "File exceeds 5 MB limit"})
			return
		case errors.Is(err, batch.ErrNotUTF8):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "File must be UTF-8 encoded"})
			return
		case err != nil:
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: err.Error()})
			return
		}

		c.JSON(http.StatusOK, models.UploadResponse{URLs: res.Accepted, InvalidURLs: res.Invalid})
	}
}

func allowedUpload(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && uploadContentTypes[mediaType]
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: "Task not found"})
	case errors.Is(err, services.ErrTaskNotCompleted):
		c.JSON(http.StatusConflict, models.ErrorResponse{Detail: "Task not completed"})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: err.Error()})
	}
}
