package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	intconfig "busticket/internal/config"
)

var (
	envMu sync.RWMutex
	env   intconfig.Env
)

// Configure stores the loaded environment for handlers that need it
// (JWT secret, lock TTL, storage paths).
func Configure(e intconfig.Env) {
	envMu.Lock()
	defer envMu.Unlock()
	env = e
}

func currentEnv() intconfig.Env {
	envMu.RLock()
	defer envMu.RUnlock()
	return env
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "busticket backend running"})
}

func DBCheck(c *gin.Context) {
	if err := intconfig.EnsureDB(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database unreachable: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK"})
}
