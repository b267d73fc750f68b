package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/slate/pkg/types"
)

type projectRequest struct {
	ID    string `json:"id"`
	Title string `json:"title" binding:"required"`
}

// projectTable resolves the store's project registry or writes the error.
func (s *Server) projectTable(c *gin.Context) (types.ProjectTable, bool) {
	projects, err := s.store.Projects()
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return projects, true
}

func (s *Server) listProjects(c *gin.Context) {
	projects, ok := s.projectTable(c)
	if !ok {
		return
	}
	list, err := projects.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

func (s *Server) createProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	projects, ok := s.projectTable(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	id, err := projects.Create(ctx, req.ID, req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	p, err := projects.Get(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, p)
}

// getProject returns the project with its stored script.
func (s *Server) getProject(c *gin.Context) {
	projects, ok := s.projectTable(c)
	if !ok {
		return
	}
	p, err := projects.Get(c.Request.Context(), c.Param("project"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

func (s *Server) renameProject(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	projects, ok := s.projectTable(c)
	if !ok {
		return
	}
	ctx, id := c.Request.Context(), c.Param("project")
	if err := projects.Rename(ctx, id, req.Title); err != nil {
		fail(c, err)
		return
	}
	p, err := projects.Get(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

// deleteProject removes the project and everything on its board, then
// disconnects anyone watching it.
func (s *Server) deleteProject(c *gin.Context) {
	projects, ok := s.projectTable(c)
	if !ok {
		return
	}
	id := c.Param("project")
	if err := projects.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	s.dropBoard(id)
	respond(c, http.StatusOK, gin.H{"deleted": id})
}
