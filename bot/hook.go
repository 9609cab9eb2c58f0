package bot

import (
	"post-assist-bot/internal/config"
	"post-assist-bot/internal/logger"
	"post-assist-bot/internal/metrics"

	"github.com/gin-gonic/gin"
)

func InitHooks(app *gin.Engine, cnf *config.Conf, rec metrics.Recorder) {
	logger.Info("Init endpoints...")

	app.Use(SessionCookie(cnf.Session.Cookie, int(cnf.Session.TTL.Std().Seconds())))

	app.GET("/", Home)
	app.Static("/static", cnf.StaticDir)

	app.POST("/chatbot", Receive)
	app.POST("/upload-image", UploadImage)
	app.GET("/uploads/:filename", UploadedFile)

	app.GET("/healthz", Health)
	if cnf.Metrics.IsEnabled() {
		app.GET("/metrics", gin.WrapH(rec.Handler()))
	}
}
