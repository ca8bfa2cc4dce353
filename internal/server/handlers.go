package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	surveyschema "github.com/reoring/surveyschema"
	"github.com/reoring/surveyschema/fragment"
	"github.com/reoring/surveyschema/internal/store"
)

type parseRequest struct {
	Code   string `json:"code"`
	Format string `json:"format" binding:"required"`
	Strict *bool  `json:"strict"`
}

type convertRequest struct {
	Code string `json:"code"`
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

type mergeRequest struct {
	Code     string `json:"code"`
	Format   string `json:"format" binding:"required"`
	Fragment string `json:"fragment" binding:"required"`
}

type createRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	Product     string `json:"product" binding:"max=200"`
	CoverImage  string `json:"coverImage" binding:"omitempty,url"`
	Format      string `json:"format"`
	Code        string `json:"code"`
}

type updateRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	Product     string `json:"product" binding:"max=200"`
	CoverImage  string `json:"coverImage" binding:"omitempty,url"`
}

type autosaveRequest struct {
	Code   string `json:"code"`
	Format string `json:"format" binding:"required"`
}

type generatedRequest struct {
	Fragment string `json:"fragment" binding:"required"`
}

type codeResponse struct {
	Code   string              `json:"code"`
	Format surveyschema.Format `json:"format"`
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorPayload(err))
}

func (s *Server) handleParse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res := s.parse(req.Code, req.Format, req.Strict)
	status := http.StatusOK
	if !res.OK() {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

func (s *Server) handleConvert(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	to, err := surveyschema.ParseFormat(req.To)
	if err != nil {
		badRequest(c, err)
		return
	}
	res := s.parse(req.Code, req.From, nil)
	if !res.OK() {
		c.JSON(http.StatusUnprocessableEntity, diagnosticsPayload(res.Diagnostics))
		return
	}
	out, err := surveyschema.Serialize(*res.Schema, to)
	if err != nil {
		s.logger.Error("serialize failed", "format", to, "error", err)
		c.JSON(http.StatusInternalServerError, errorPayload(err))
		return
	}
	c.JSON(http.StatusOK, codeResponse{Code: out, Format: to})
}

func (s *Server) handleMerge(c *gin.Context) {
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	format, err := surveyschema.ParseFormat(req.Format)
	if err != nil {
		badRequest(c, err)
		return
	}
	out, status, payload := s.keep(req.Code, format, req.Fragment)
	if payload != nil {
		c.JSON(status, payload)
		return
	}
	c.JSON(http.StatusOK, codeResponse{Code: out, Format: format})
}

// keep merges a generated fragment into code. A blank code starts a new
// survey. On failure it returns a status and payload to send instead.
func (s *Server) keep(code string, format surveyschema.Format, frag string) (string, int, gin.H) {
	qs, err := fragment.DecodeBytes([]byte(frag))
	if err != nil {
		return "", http.StatusBadRequest, errorPayload(err)
	}
	var current *surveyschema.Schema
	if strings.TrimSpace(code) != "" {
		res := s.parse(code, format.String(), nil)
		if !res.OK() {
			return "", http.StatusUnprocessableEntity, diagnosticsPayload(res.Diagnostics)
		}
		current = res.Schema
	}
	merged := fragment.Keep(current, qs)
	s.metrics.observeMerge(len(qs))
	out, err := surveyschema.Serialize(merged, format)
	if err != nil {
		return "", http.StatusInternalServerError, errorPayload(err)
	}
	return out, 0, nil
}

func (s *Server) handleCreate(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	format := surveyschema.FormatXML
	if req.Format != "" {
		f, err := surveyschema.ParseFormat(req.Format)
		if err != nil {
			badRequest(c, err)
			return
		}
		format = f
	}
	sv := store.Survey{
		Title:       req.Title,
		Description: req.Description,
		Product:     req.Product,
		CoverImage:  req.CoverImage,
		Format:      format,
		RawCode:     req.Code,
	}
	if req.Code != "" {
		if res := s.parse(req.Code, format.String(), nil); res.OK() {
			sv.Schema = res.Schema
		}
	}
	created, err := s.store.Create(c.Request.Context(), sv)
	if err != nil {
		s.storeError(c, err)
		return
	}
	s.logger.Info("survey created", "id", created.ID, "format", format)
	c.JSON(http.StatusCreated, gin.H{"survey": created})
}

func (s *Server) handleList(c *gin.Context) {
	list, err := s.store.List(c.Request.Context())
	if err != nil {
		s.storeError(c, err)
		return
	}
	if list == nil {
		list = []store.Survey{}
	}
	c.JSON(http.StatusOK, gin.H{"surveys": list})
}

func (s *Server) handleGet(c *gin.Context) {
	sv, _ := surveyFromContext(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"survey": sv})
}

func (s *Server) handleUpdate(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sv, _ := surveyFromContext(c.Request.Context())
	sv.Title = req.Title
	sv.Description = req.Description
	sv.Product = req.Product
	sv.CoverImage = req.CoverImage
	updated, err := s.store.Update(c.Request.Context(), sv)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"survey": updated})
}

func (s *Server) handleDelete(c *gin.Context) {
	if err := s.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAutosave(c *gin.Context) {
	var req autosaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	format, err := surveyschema.ParseFormat(req.Format)
	if err != nil {
		badRequest(c, err)
		return
	}
	res, sv, err := s.autosave(c.Request.Context(), c.Param("id"), req.Code, format)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"savedAt":     sv.UpdatedAt,
		"diagnostics": res.Diagnostics,
	})
}

// autosave parses code and records it as the survey's newest version. The
// raw text is kept even when it does not parse; the stored schema only
// changes on a clean parse.
func (s *Server) autosave(ctx context.Context, id, code string, format surveyschema.Format) (surveyschema.ParseResult, store.Survey, error) {
	res := s.parse(code, format.String(), nil)
	v := store.Version{Code: code, Format: format}
	sv, err := s.store.AppendVersion(ctx, id, v, res.Schema)
	return res, sv, err
}

func (s *Server) handleGenerated(c *gin.Context) {
	var req generatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sv, _ := surveyFromContext(c.Request.Context())
	out, status, payload := s.keep(sv.RawCode, sv.Format, req.Fragment)
	if payload != nil {
		c.JSON(status, payload)
		return
	}
	_, updated, err := s.autosave(c.Request.Context(), sv.ID, out, sv.Format)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": out, "survey": updated})
}
