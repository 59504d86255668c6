package api

import (
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	financeerr "financeapi.app/errors"
	"financeapi.app/models"
)

const contextUserKey = "currentUser"

// ipLimiter keeps one token bucket per client address
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.limiters[ip] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

func (s *Server) rateLimit(c *gin.Context) {
	if !s.limiter.allow(c.ClientIP()) {
		s.handleError(c, financeerr.NewRateLimitError("too many requests"))
		c.Abort()
		return
	}
	c.Next()
}

// requireAuth resolves the bearer token to a user and stores it in the
// request context for downstream handlers
func (s *Server) requireAuth(c *gin.Context) {
	user, err := s.authService.Authenticate(bearerToken(c))
	if err != nil {
		s.handleError(c, err)
		c.Abort()
		return
	}
	c.Set(contextUserKey, user)
	c.Next()
}

func (s *Server) requireAdmin(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok || !user.IsAdmin() {
		s.handleError(c, financeerr.NewForbiddenError("administrator access required"))
		c.Abort()
		return
	}
	c.Next()
}

// requireSelfOrAdmin guards routes carrying a userId parameter: users may
// operate on their own cache, administrators on anyone's
func (s *Server) requireSelfOrAdmin(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		s.handleError(c, financeerr.NewUnauthorizedError("missing session token"))
		c.Abort()
		return
	}

	target, err := parseUserIDParam(c)
	if err != nil {
		s.handleError(c, err)
		c.Abort()
		return
	}

	if !user.IsAdmin() && user.ID != target {
		s.handleError(c, financeerr.NewForbiddenError("cannot operate on another user's cache"))
		c.Abort()
		return
	}
	c.Next()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func currentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func parseUserIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil || id == 0 {
		return 0, financeerr.NewValidationError("userId must be a positive integer")
	}
	return uint(id), nil
}
