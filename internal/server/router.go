package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/upiqr/middleware"
	"github.com/sirupsen/logrus"
)

// Registrar mounts a set of routes on a router group.
type Registrar interface {
	Register(r gin.IRouter)
}

// NewRouter builds the gin engine with the shared middleware chain and
// the health route, then lets each registrar add its routes.
func NewRouter(log *logrus.Logger, timeout time.Duration, registrars ...Registrar) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.TimeoutMiddleware(timeout))
	r.Use(middleware.ErrorHandler())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	for _, reg := range registrars {
		reg.Register(r)
	}
	return r
}
