package bot

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"post-assist-bot/internal/cache"
	"post-assist-bot/internal/chat"
	"post-assist-bot/internal/config"
	"post-assist-bot/internal/database"
	"post-assist-bot/internal/errs"
	"post-assist-bot/internal/knowledge"
	"post-assist-bot/internal/logger"
	"post-assist-bot/internal/metrics"
	"post-assist-bot/internal/uploads"

	"github.com/allegro/bigcache/v3"
	"github.com/gin-gonic/gin"
)

func Receive(c *gin.Context) {
	sessions := c.MustGet(database.CTX_SESSIONS).(*bigcache.BigCache)
	machine := c.MustGet(database.CTX_MACHINE).(*chat.Machine)
	sessionID := c.GetString(database.CTX_SESSION_ID)

	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warning("Error while receive message", err)
		c.JSON(http.StatusBadRequest, chat.Response{Response: "Invalid request.", Options: []knowledge.Option{}})
		return
	}

	logger.Debug("Receive message:", req)

	state := cache.GetState(sessions, sessionID)
	resp, next := machine.Dispatch(c.Request.Context(), state, req)

	if err := next.ChangeCache(sessions, sessionID); err != nil {
		logger.Warning("Error changeState", err)
	}

	c.JSON(http.StatusOK, resp)
}

func UploadImage(c *gin.Context) {
	cnf := c.MustGet(database.CTX_CONFIG).(*config.Conf)
	sessions := c.MustGet(database.CTX_SESSIONS).(*bigcache.BigCache)
	store := c.MustGet(database.CTX_UPLOADS).(*uploads.Store)
	rec := c.MustGet(database.CTX_METRICS).(metrics.Recorder)
	sessionID := c.GetString(database.CTX_SESSION_ID)

	reject := func(code int, message string) {
		rec.IncUpload(false)
		c.JSON(code, chat.Response{Response: message, Options: []knowledge.Option{}})
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cnf.Upload.MaxBytes+1<<20)

	file, err := c.FormFile("image")
	if err != nil {
		reject(http.StatusBadRequest, "No image file provided for upload.")
		return
	}
	if file.Filename == "" {
		reject(http.StatusBadRequest, "No selected image file.")
		return
	}
	if !store.Allowed(file.Filename) {
		ext := "N/A"
		if strings.Contains(file.Filename, ".") {
			ext = strings.ToUpper(uploads.Extension(file.Filename))
		}
		reject(http.StatusBadRequest, fmt.Sprintf("The file type (%s) is not allowed. Please upload a PNG, JPG, or GIF image.", ext))
		return
	}
	if file.Size > cnf.Upload.MaxBytes {
		reject(http.StatusBadRequest, "The image is too large. Please upload a smaller photo.")
		return
	}

	src, err := file.Open()
	if err != nil {
		logger.Warning("Error while open uploaded file", err)
		reject(http.StatusBadRequest, "The uploaded image could not be read.")
		return
	}
	defer src.Close()

	stored, err := store.Save(file.Filename, src)
	if err != nil {
		logger.Warning("Error while save uploaded file", err)
		if errs.IsValidation(err) {
			reject(http.StatusBadRequest, "No selected image file.")
			return
		}
		reject(http.StatusInternalServerError, "Sorry, the image could not be saved. Please try again.")
		return
	}
	rec.IncUpload(true)
	logger.Event("Image uploaded:", stored.Name)

	state := cache.GetState(sessions, sessionID)
	state.AwaitImageDescription(stored.ID)
	if err := state.ChangeCache(sessions, sessionID); err != nil {
		logger.Warning("Error changeState", err)
	}

	c.JSON(http.StatusOK, chat.Response{
		Response: fmt.Sprintf("Image '%s' uploaded successfully (ID: %d). Please **describe the issue** you are filing a complaint about so I can log it.", stored.Filename, stored.ID),
		Options:  []knowledge.Option{},
	})
}

func UploadedFile(c *gin.Context) {
	store := c.MustGet(database.CTX_UPLOADS).(*uploads.Store)

	path, err := store.Path(c.Param("filename"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(path)
}

func Home(c *gin.Context) {
	cnf := c.MustGet(database.CTX_CONFIG).(*config.Conf)
	c.File(filepath.Join(cnf.StaticDir, "index.html"))
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
