package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/interviewscribe/version"
)

var startTime = time.Now()

// InfoResponse is the body of GET /info.
type InfoResponse struct {
	Service string `json:"service"`
	version.Info
	Uptime string `json:"uptime"`
}

// Info reports the build identity and uptime.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, InfoResponse{
			Service: serviceName,
			Info:    version.Get(),
			Uptime:  time.Since(startTime).Round(time.Second).String(),
		})
	}
}
