package controller

import (
	"encoding/json"

	"scoreboard/internal/scoreboard/service"
	"scoreboard/internal/scoreboard/site"
	"scoreboard/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// ContestController serves the read and admin endpoints of every contest.
type ContestController struct {
	registry *service.Registry
}

func NewContestController(registry *service.Registry) *ContestController {
	return &ContestController{registry: registry}
}

// lookupContest resolves :name and writes the error response on failure.
func lookupContest(c *gin.Context, registry *service.Registry) (*service.ContestService, bool) {
	contest, err := registry.Get(c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return contest, true
}

// List returns a summary of every contest.
func (h *ContestController) List(c *gin.Context) {
	response.Success(c, h.registry.List())
}

// Create registers a contest fed by uploads only.
func (h *ContestController) Create(c *gin.Context) {
	var req CreateContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	opts := service.ContestOptions{}
	if req.Sites != "" {
		sites, err := site.ParseConfig([]byte(req.Sites))
		if err != nil {
			response.Error(c, err)
			return
		}
		opts.Sites = sites
	}
	if req.Secrets != "" {
		secrets, err := site.ParseSecretConfig([]byte(req.Secrets))
		if err != nil {
			response.Error(c, err)
			return
		}
		opts.Secrets = secrets
	}

	contest, err := h.registry.Create(req.Name, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, contest.Summary())
}

// Contest returns the public scoreboard, optionally restricted to one site.
func (h *ContestController) Contest(c *gin.Context) {
	contest, ok := lookupContest(c, h.registry)
	if !ok {
		return
	}
	data, err := contest.SnapshotJSON(c.Request.Context(), c.Query("site"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, json.RawMessage(data))
}

// Standings returns ranked rows with medals.
func (h *ContestController) Standings(c *gin.Context) {
	contest, ok := lookupContest(c, h.registry)
	if !ok {
		return
	}
	data, err := contest.StandingsJSON(c.Request.Context(), c.Query("site"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, json.RawMessage(data))
}

func (h *ContestController) Config(c *gin.Context) {
	contest, ok := lookupContest(c, h.registry)
	if !ok {
		return
	}
	response.Success(c, contest.Config())
}

func (h *ContestController) Panel(c *gin.Context) {
	contest, ok := lookupContest(c, h.registry)
	if !ok {
		return
	}
	response.Success(c, contest.Panel())
}

// RunsAll returns the unmasked runs of the site unlocked by the secret.
func (h *ContestController) RunsAll(c *gin.Context) {
	contest, ok := lookupContest(c, h.registry)
	if !ok {
		return
	}
	runs, err := contest.SecretRuns(c.Query("secret"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, runs)
}

// PutState applies an uploaded batch of runs and clock.
func (h *ContestController) PutState(c *gin.Context) {
	contest, ok := lookupContest(c, h.registry)
	if !ok {
		return
	}
	var req service.StateUpload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	fresh, err := contest.UploadState(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, StateResponse{Fresh: len(fresh), Version: contest.Version()})
}

type CreateContestRequest struct {
	Name    string `json:"name" binding:"required"`
	Sites   string `json:"sites"`
	Secrets string `json:"secrets"`
}

type StateResponse struct {
	Fresh   int    `json:"fresh"`
	Version uint64 `json:"version"`
}

