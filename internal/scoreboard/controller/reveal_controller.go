package controller

import (
	"strconv"
	"strings"

	"scoreboard/internal/scoreboard/service"
	pkgerrors "scoreboard/pkg/errors"
	"scoreboard/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// RevealController drives presenter sessions. The session token travels as
// a bearer token.
type RevealController struct {
	registry *service.Registry
	reveal   *service.RevealService
}

func NewRevealController(registry *service.Registry, reveal *service.RevealService) *RevealController {
	return &RevealController{registry: registry, reveal: reveal}
}

// Open starts a session for the site unlocked by ?secret=.
func (h *RevealController) Open(c *gin.Context) {
	contest, ok := lookupContest(c, h.registry)
	if !ok {
		return
	}
	token, view, err := h.reveal.Open(contest, c.Query("secret"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, RevealOpenResponse{Token: token, View: view})
}

func (h *RevealController) View(c *gin.Context) {
	view, err := h.reveal.View(extractBearerToken(c.GetHeader("Authorization")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// Act applies :action. top takes ?n=.
func (h *RevealController) Act(c *gin.Context) {
	n := 0
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.ErrorWithCode(c, pkgerrors.InvalidParams, "n must be an integer")
			return
		}
		n = parsed
	}
	view, err := h.reveal.Act(extractBearerToken(c.GetHeader("Authorization")), c.Param("action"), n)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

func (h *RevealController) Close(c *gin.Context) {
	if err := h.reveal.Close(extractBearerToken(c.GetHeader("Authorization"))); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

type RevealOpenResponse struct {
	Token string             `json:"token"`
	View  service.RevealView `json:"view"`
}

func extractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
