package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"financeapi.app/cache"
	financeerr "financeapi.app/errors"
	"financeapi.app/models"
)

func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.Error("Request binding error", "error", err)
		s.handleError(c, financeerr.NewValidationError("invalid request format"))
		return
	}

	slog.Debug("Registration request received", "email", req.Email)

	user, err := s.authService.Register(&req)
	if err != nil {
		slog.Error("Registration error", "error", err, "email", req.Email)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.Error("Request binding error", "error", err)
		s.handleError(c, financeerr.NewValidationError("invalid request format"))
		return
	}

	resp, err := s.authService.Login(&req)
	if err != nil {
		slog.Error("Login error", "error", err, "email", req.Email)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) logout(c *gin.Context) {
	if err := s.authService.Logout(bearerToken(c)); err != nil {
		slog.Error("Logout error", "error", err)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (s *Server) createTransaction(c *gin.Context) {
	user, ok := s.mustCurrentUser(c)
	if !ok {
		return
	}

	var req models.TransactionRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.Error("Request binding error", "error", err)
		s.handleError(c, financeerr.NewValidationError("invalid request format"))
		return
	}

	transaction, err := s.transactionService.Create(c.Request.Context(), user.ID, &req)
	if err != nil {
		slog.Error("Transaction create error", "error", err, "user_id", user.ID)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

func (s *Server) getTransaction(c *gin.Context) {
	user, ok := s.mustCurrentUser(c)
	if !ok {
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		s.handleError(c, err)
		return
	}

	transaction, err := s.transactionService.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

func (s *Server) updateTransaction(c *gin.Context) {
	user, ok := s.mustCurrentUser(c)
	if !ok {
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		s.handleError(c, err)
		return
	}

	var req models.TransactionRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.Error("Request binding error", "error", err)
		s.handleError(c, financeerr.NewValidationError("invalid request format"))
		return
	}

	transaction, err := s.transactionService.Update(c.Request.Context(), user.ID, id, &req)
	if err != nil {
		slog.Error("Transaction update error", "error", err, "user_id", user.ID, "id", id)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

func (s *Server) deleteTransaction(c *gin.Context) {
	user, ok := s.mustCurrentUser(c)
	if !ok {
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		s.handleError(c, err)
		return
	}

	if err := s.transactionService.Delete(c.Request.Context(), user.ID, id); err != nil {
		slog.Error("Transaction delete error", "error", err, "user_id", user.ID, "id", id)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

func (s *Server) listTransactions(c *gin.Context) {
	user, ok := s.mustCurrentUser(c)
	if !ok {
		return
	}

	filter, err := parseListFilter(c)
	if err != nil {
		s.handleError(c, err)
		return
	}

	page, err := s.transactionService.List(c.Request.Context(), user.ID, filter)
	if err != nil {
		slog.Error("Transaction list error", "error", err, "user_id", user.ID)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.categoryService.List(c.Request.Context())
	if err != nil {
		slog.Error("Category list error", "error", err)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (s *Server) createCategory(c *gin.Context) {
	var req models.CategoryRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.Error("Request binding error", "error", err)
		s.handleError(c, financeerr.NewValidationError("invalid request format"))
		return
	}

	category, err := s.categoryService.Create(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Category create error", "error", err, "name", req.Name)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (s *Server) updateCategory(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		s.handleError(c, err)
		return
	}

	var req models.CategoryRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.Error("Request binding error", "error", err)
		s.handleError(c, financeerr.NewValidationError("invalid request format"))
		return
	}

	category, err := s.categoryService.Update(c.Request.Context(), id, &req)
	if err != nil {
		slog.Error("Category update error", "error", err, "id", id)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, category)
}

func (s *Server) deleteCategory(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		s.handleError(c, err)
		return
	}

	if err := s.categoryService.Delete(c.Request.Context(), id); err != nil {
		slog.Error("Category delete error", "error", err, "id", id)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

func (s *Server) getAnalytics(c *gin.Context) {
	user, ok := s.mustCurrentUser(c)
	if !ok {
		return
	}

	period, err := cache.ParsePeriod(c.DefaultQuery("period", string(cache.CurrentPeriod)))
	if err != nil {
		s.handleError(c, err)
		return
	}

	slog.Debug("Analytics summary requested", "user_id", user.ID, "period", period)

	summary, err := s.analyticsService.GetSummary(c.Request.Context(), user.ID, period)
	if err != nil {
		slog.Error("Analytics error", "error", err, "user_id", user.ID, "period", period)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) cacheMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.cacheAdminService.Metrics())
}

func (s *Server) resetCacheMetrics(c *gin.Context) {
	s.cacheAdminService.ResetMetrics()
	c.JSON(http.StatusOK, gin.H{"message": "Cache metrics reset"})
}

func (s *Server) cacheKeyInfo(c *gin.Context) {
	info, err := s.cacheAdminService.KeyInfo(c.Request.Context(), c.Param("key"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (s *Server) warmUserCache(c *gin.Context) {
	userID, err := parseUserIDParam(c)
	if err != nil {
		s.handleError(c, err)
		return
	}

	results, err := s.cacheAdminService.WarmUser(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Cache warm error", "error", err, "user_id", userID)
		s.handleError(c, err)
		return
	}

	failed := 0
	for _, result := range results {
		if !result.Warmed {
			failed++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":  userID,
		"results": results,
		"failed":  failed,
	})
}

func (s *Server) invalidateUserCache(c *gin.Context) {
	userID, err := parseUserIDParam(c)
	if err != nil {
		s.handleError(c, err)
		return
	}

	if err := s.cacheAdminService.InvalidateUser(c.Request.Context(), userID); err != nil {
		slog.Error("Cache invalidation error", "error", err, "user_id", userID)
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User cache invalidated"})
}

func (s *Server) mustCurrentUser(c *gin.Context) (*models.User, bool) {
	user, ok := currentUser(c)
	if !ok {
		s.handleError(c, financeerr.NewUnauthorizedError("missing session token"))
	}
	return user, ok
}

func parseIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, financeerr.NewValidationError("id must be a positive integer")
	}
	return uint(id), nil
}

func parseListFilter(c *gin.Context) (models.TransactionFilter, error) {
	var filter models.TransactionFilter

	page, err := parseIntQuery(c, "page", 1)
	if err != nil {
		return filter, err
	}
	perPage, err := parseIntQuery(c, "per_page", cache.DefaultListPerPage)
	if err != nil {
		return filter, err
	}
	filter.Page = page
	filter.PerPage = perPage

	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return filter, financeerr.NewValidationError("category_id must be a positive integer")
		}
		filter.CategoryID = uint(id)
	}

	if raw := c.Query("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, financeerr.NewValidationError("from must be an RFC 3339 timestamp")
		}
		filter.From = ts.UTC()
	}
	if raw := c.Query("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, financeerr.NewValidationError("to must be an RFC 3339 timestamp")
		}
		filter.To = ts.UTC()
	}

	return filter, nil
}

func parseIntQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, financeerr.NewValidationError(name + " must be an integer")
	}
	return value, nil
}
