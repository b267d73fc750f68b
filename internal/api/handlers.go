package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/slate/internal/intake"
	"github.com/mesh-intelligence/slate/internal/kanban"
	"github.com/mesh-intelligence/slate/internal/schedule"
	"github.com/mesh-intelligence/slate/pkg/types"
)

func (s *Server) getBoard(c *gin.Context) {
	b, ok := s.withBoard(c)
	if !ok {
		return
	}
	key := b.engine.SortKey()
	if raw := c.Query("sort"); raw != "" {
		parsed, err := kanban.ParseSortKey(raw)
		if err != nil {
			fail(c, err)
			return
		}
		key = parsed
	}
	respond(c, http.StatusOK, b.engine.View(key, c.Query("character")))
}

func (s *Server) getCharacters(c *gin.Context) {
	if b, ok := s.withBoard(c); ok {
		respond(c, http.StatusOK, b.engine.Characters())
	}
}

func (s *Server) getSchedule(c *gin.Context) {
	if b, ok := s.withBoard(c); ok {
		respond(c, http.StatusOK, schedule.Project(b.engine.Scenes()))
	}
}

func (s *Server) getStats(c *gin.Context) {
	if b, ok := s.withBoard(c); ok {
		respond(c, http.StatusOK, schedule.Summarize(b.engine.Scenes()))
	}
}

func (s *Server) createScene(c *gin.Context) {
	b, ok := s.withBoard(c)
	if !ok {
		return
	}
	var draft types.SceneDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	id, err := b.engine.CreateScene(c.Request.Context(), draft)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"id": id})
}

func (s *Server) getScene(c *gin.Context) {
	b, ok := s.withBoard(c)
	if !ok {
		return
	}
	scene, found := b.engine.Scene(c.Param("id"))
	if !found {
		fail(c, fmt.Errorf("scene %s: %w", c.Param("id"), types.ErrNotFound))
		return
	}
	respond(c, http.StatusOK, scene)
}

// patchRequest is a partial scene update. Setting complexity or reanalyze
// saves it the way the detail form does, re-running analysis on the body.
type patchRequest struct {
	types.ScenePatch
	Complexity string `json:"complexity,omitempty"`
	Reanalyze  bool   `json:"reanalyze,omitempty"`
}

func (s *Server) updateScene(c *gin.Context) {
	b, ok := s.withBoard(c)
	if !ok {
		return
	}
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	ctx, id := c.Request.Context(), c.Param("id")

	var err error
	if req.Complexity != "" || req.Reanalyze {
		form := kanban.EditForm{Patch: req.ScenePatch}
		if req.Complexity != "" {
			cx, valid := types.ParseComplexity(req.Complexity)
			if !valid {
				respondError(c, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("invalid complexity %q", req.Complexity))
				return
			}
			form.Complexity = cx
		}
		err = b.engine.Edit(ctx, id, form)
	} else {
		err = b.engine.Update(ctx, id, req.ScenePatch)
	}
	if err != nil {
		fail(c, err)
		return
	}
	scene, _ := b.engine.Scene(id)
	respond(c, http.StatusOK, scene)
}

type moveRequest struct {
	Column string `json:"column"`
	Card   string `json:"card"`
}

// moveScene ends a drag. Only a drop on a column changes anything.
func (s *Server) moveScene(c *gin.Context) {
	b, ok := s.withBoard(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	target := kanban.DropTarget{}
	switch {
	case req.Column != "":
		target = kanban.OnColumn(req.Column)
	case req.Card != "":
		target = kanban.OnCard(req.Card)
	}
	moved, err := b.engine.DragEnd(c.Request.Context(), c.Param("id"), target)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"moved": moved})
}

func (s *Server) duplicateScene(c *gin.Context) {
	b, ok := s.withBoard(c)
	if !ok {
		return
	}
	id, err := b.engine.Duplicate(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"id": id})
}

func (s *Server) analyzeScene(c *gin.Context) {
	b, ok := s.withBoard(c)
	if !ok {
		return
	}
	analyzed, err := b.engine.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"analyzed": analyzed})
}

func (s *Server) deleteScene(c *gin.Context) {
	b, ok := s.withBoard(c)
	if !ok {
		return
	}
	if err := b.engine.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": c.Param("id")})
}

func (s *Server) listColumns(c *gin.Context) {
	if b, ok := s.withBoard(c); ok {
		respond(c, http.StatusOK, b.engine.Columns())
	}
}

type columnRequest struct {
	Name string `json:"name"`
}

func (s *Server) addColumn(c *gin.Context) {
	b, ok := s.withBoard(c)
	if !ok {
		return
	}
	var req columnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	outcome, err := b.engine.AddColumn(c.Request.Context(), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	if outcome == types.ColumnDuplicate {
		respondError(c, http.StatusConflict, CodeConflict, fmt.Sprintf("column %q already exists", strings.TrimSpace(req.Name)))
		return
	}
	respond(c, http.StatusCreated, b.engine.Columns())
}

func (s *Server) listFields(c *gin.Context) {
	if b, ok := s.withBoard(c); ok {
		respond(c, http.StatusOK, b.engine.Fields())
	}
}

func (s *Server) createField(c *gin.Context) {
	b, ok := s.withBoard(c)
	if !ok {
		return
	}
	var def types.FieldDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	id, err := b.engine.DefineField(c.Request.Context(), def)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"id": id})
}

func (s *Server) archiveField(c *gin.Context) {
	b, ok := s.withBoard(c)
	if !ok {
		return
	}
	if err := b.engine.ArchiveField(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": c.Param("id")})
}

type intakeRequest struct {
	Text     string `json:"text"`
	AI       bool   `json:"ai"`
	MaxChars int    `json:"max_chars"`
}

// intake stores a pasted or uploaded script as scenes.
func (s *Server) intake(c *gin.Context) {
	var req intakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if _, ok := s.withBoard(c); !ok {
		return
	}
	scenes, err := s.store.Scenes()
	if err != nil {
		fail(c, err)
		return
	}
	projects, err := s.store.Projects()
	if err != nil {
		fail(c, err)
		return
	}
	ctx, project := c.Request.Context(), c.Param("project")

	var ids []string
	if req.AI {
		if s.analyzer == nil {
			fail(c, kanban.ErrNoAnalyzer)
			return
		}
		maxChars := req.MaxChars
		if maxChars <= 0 {
			maxChars = s.maxChars
		}
		ids, err = intake.Analyzed(ctx, s.analyzer, scenes, projects, project, req.Text, maxChars)
	} else {
		ids, err = intake.Segmented(ctx, scenes, projects, project, req.Text)
	}
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"ids": ids, "count": len(ids)})
}
