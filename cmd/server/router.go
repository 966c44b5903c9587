package main

import (
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/adminkit/internal/handler"
	internalmiddleware "github.com/noah-isme/adminkit/internal/middleware"
	"github.com/noah-isme/adminkit/pkg/config"
	"github.com/noah-isme/adminkit/pkg/logger"
	corsmiddleware "github.com/noah-isme/adminkit/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/adminkit/pkg/middleware/requestid"
)

// routerDeps carries everything the HTTP layer is built from.
type routerDeps struct {
	cfg       *config.Config
	logger    *zap.Logger
	templates *template.Template
	static    fs.FS
	auth      internalmiddleware.Authenticator
	observer  internalmiddleware.HTTPObserver
	limiter   *internalmiddleware.RateLimiter

	pages   *handler.PageHandler
	authH   *handler.AuthHandler
	users   *handler.UserHandler
	chat    *handler.ChatHandler
	tasks   *handler.TaskHandler
	metrics *handler.MetricsHandler
	echo    *handler.EchoHandler
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(d.pages.Recover))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.logger))
	r.Use(internalmiddleware.Metrics(d.observer))
	r.Use(corsmiddleware.New(d.cfg.CORS.AllowedOrigins))

	r.SetHTMLTemplate(d.templates)
	r.StaticFS("/static", http.FS(d.static))
	r.NoRoute(d.pages.NotFound)

	r.GET("/health", d.metrics.Health)
	r.GET("/ready", d.metrics.Ready)
	r.GET("/metrics", d.metrics.Prometheus)

	if d.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	cookie := d.cfg.Session.CookieName
	requireSession := internalmiddleware.RequireSession(d.auth, cookie)

	r.GET("/", internalmiddleware.OptionalSession(d.auth, cookie), d.authH.LoginPage)
	r.POST("/login", d.limiter.Middleware(), d.authH.LoginForm)
	r.POST("/logout", internalmiddleware.OptionalSession(d.auth, cookie), d.authH.LogoutForm)
	r.GET("/ws", d.echo.Echo)

	pages := r.Group("/", requireSession)
	pages.GET("/home", d.pages.Home)
	pages.GET("/about", d.pages.About)
	pages.GET("/users", d.pages.Users)
	pages.GET("/chat", d.pages.ChatPage)
	pages.POST("/chat", d.pages.ChatSubmit)

	api := r.Group(d.cfg.APIPrefix)
	authGroup := api.Group("/auth")
	authGroup.POST("/login", d.limiter.Middleware(), d.authH.Login)
	authGroup.POST("/logout", requireSession, d.authH.Logout)
	authGroup.GET("/me", requireSession, d.authH.Me)

	secured := api.Group("", requireSession)

	users := secured.Group("/users", internalmiddleware.Audit(d.logger, "users"))
	users.GET("", d.users.List)
	users.GET("/all", d.users.All)
	users.GET("/export", d.users.Export)
	users.GET("/:id", d.users.Get)
	users.POST("", d.users.Create)
	users.PUT("/:id", d.users.Update)
	users.DELETE("/:id", d.users.Delete)

	secured.POST("/chat", d.chat.Chat)
	secured.GET("/chat/providers", d.chat.Providers)
	secured.POST("/tasks", internalmiddleware.Audit(d.logger, "tasks"), d.tasks.Submit)
	secured.GET("/metrics/stats", d.metrics.Stats)

	return r
}
