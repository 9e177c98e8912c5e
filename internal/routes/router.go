// internal/routes/router.go
package routes

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/Ag1104/attendance-system/internal/attendance"
	"github.com/Ag1104/attendance-system/internal/handlers"
	"github.com/Ag1104/attendance-system/internal/middleware"
	"github.com/Ag1104/attendance-system/internal/web"
)

func NewRouter(svc *attendance.Service) *gin.Engine {
	r := gin.Default()
	// Address resolution is done by middleware.ClientAddress.
	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("set trusted proxies: %v", err)
	}
	r.SetHTMLTemplate(web.Templates())

	r.Use(middleware.SecurityHeaders(), middleware.ClientAddress(svc.Config().TrustForwardedFor))

	attH := handlers.NewAttendanceHandler(svc)

	r.GET("/health", handlers.Health)
	r.GET("/", attH.Index)
	r.GET("/staff", attH.Staff)
	r.GET("/signed_today", attH.SignedToday)
	r.POST("/signin", attH.SignIn)

	att := r.Group("/attendance")
	{
		att.GET("", attH.ListByDate)
		att.GET("/export", attH.Export)
	}

	return r
}
