package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/dshills/contentaudit/internal/audit"
	"github.com/dshills/contentaudit/internal/config"
	"github.com/dshills/contentaudit/internal/schema"
)

const (
	defaultHistoryLimit = 20

	// MaxTextBytes bounds one audited text.
	MaxTextBytes = 64 * 1024

	// MaxBatchItems bounds one POST /audit/batch request.
	MaxBatchItems = 500
)

var registerOnce sync.Once

func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
				return len(fl.Field().String()) <= MaxTextBytes
			})
		}
	})
}

func init() {
	registerValidators()
}

// auditRequest is the POST /audit body. Text is a pointer so that an absent
// or null text is rejected while an empty string is audited.
type auditRequest struct {
	Text     *string `json:"text" binding:"required,maxbytes"`
	Platform string  `json:"platform" binding:"omitempty,oneof=instagram linkedin whatsapp site"`
}

type batchItemRequest struct {
	ID       string  `json:"id" binding:"required,max=128"`
	Text     *string `json:"text" binding:"required,maxbytes"`
	Platform string  `json:"platform" binding:"omitempty,oneof=instagram linkedin whatsapp site"`
}

type batchRequest struct {
	Items []batchItemRequest `json:"items" binding:"required,min=1,max=500,dive"`
}

type batchItemResponse struct {
	ID     string              `json:"id"`
	Result *schema.AuditResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func invalid(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Code: "invalid_input"})
}

func (s *Server) platformOrDefault(p string) schema.Platform {
	if p == "" {
		return s.opts.DefaultPlatform
	}
	return schema.Platform(p)
}

func (s *Server) createAudit(c *gin.Context) {
	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, bindError(err))
		return
	}

	r, err := s.auditor.Audit(c.Request.Context(), *req.Text, s.platformOrDefault(req.Platform))
	if err != nil {
		s.auditError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) createBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, bindError(err))
		return
	}

	items := make([]audit.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = audit.Item{ID: it.ID, Text: *it.Text, Platform: s.platformOrDefault(it.Platform)}
	}

	results, err := s.auditor.AuditBatch(c.Request.Context(), items, s.opts.Workers)
	if err != nil {
		s.log.Warnw("batch audit interrupted", "error", err)
	}

	out := make([]batchItemResponse, len(results))
	for i, br := range results {
		out[i] = batchItemResponse{ID: br.ID, Result: br.Result}
		if br.Err != nil {
			out[i].Error = br.Err.Error()
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

func (s *Server) auditError(c *gin.Context, err error) {
	if errors.Is(err, audit.ErrInvalidInput) {
		invalid(c, err.Error())
		return
	}
	s.log.Errorw("audit failed", "error", err)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "audit failed", Code: "internal"})
}

func (s *Server) history(c *gin.Context) {
	limit := s.opts.HistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			invalid(c, fmt.Sprintf("limit must be a positive integer, got %q", v))
			return
		}
		limit = min(n, config.MaxHistoryLimit)
	}

	var results []*schema.AuditResult
	if v := c.Query("platform"); v != "" {
		p, err := schema.ParsePlatform(v)
		if err != nil {
			invalid(c, err.Error())
			return
		}
		results = s.auditor.History().RecentByPlatform(limit, p)
	} else {
		results = s.auditor.History().Recent(limit)
	}

	summaries := make([]schema.Summary, len(results))
	for i, r := range results {
		summaries[i] = schema.Summarize(r)
	}
	c.JSON(http.StatusOK, gin.H{"audits": summaries, "limit": limit})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.auditor.Stats())
}

func (s *Server) listRules(c *gin.Context) {
	cat := s.auditor.Catalog()
	rules := cat.All()
	if v := c.Query("category"); v != "" {
		if !schema.IsValidCategory(schema.Category(v)) {
			invalid(c, fmt.Sprintf("unknown category %q", v))
			return
		}
		rules = cat.ByCategory(schema.Category(v))
	}
	c.JSON(http.StatusOK, gin.H{
		"version":    cat.Version(),
		"count":      len(rules),
		"categories": cat.Categories(),
		"rules":      rules,
	})
}

func (s *Server) health(c *gin.Context) {
	cat := s.auditor.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"catalogVersion": cat.Version(),
		"rules":          cat.Len(),
		"audits":         s.auditor.History().Len(),
	})
}

// bindError turns a binding failure into a client-facing message.
func bindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body: " + err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldName(fe)
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "maxbytes":
			msgs = append(msgs, fmt.Sprintf("%s exceeds %d bytes", field, MaxTextBytes))
		case "min", "max":
			msgs = append(msgs, fmt.Sprintf("%s must have %s %s", field, fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// fieldName renders a validator namespace like "auditRequest.Text" as "text".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	if ns == "" {
		return fe.Field()
	}
	return strings.ToLower(ns[:1]) + ns[1:]
}
