package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hammerheart92/StoryForge-sub000/internal/interfaces"
	"github.com/hammerheart92/StoryForge-sub000/internal/middleware"
	"github.com/hammerheart92/StoryForge-sub000/internal/models"
	"github.com/hammerheart92/StoryForge-sub000/internal/service"
)

// sessionTokenHeader carries the explicit session identifier that keys
// conversation state. Distinct from the auth token: one user may hold
// several concurrent sessions.
const sessionTokenHeader = "X-Session-Token"

// GameHandler is the thin HTTP surface over the conversation/session core.
type GameHandler struct {
	dialogue   *service.DialogueService
	saves      *service.SaveService
	ledger     *service.LedgerService
	unlocks    *service.UnlockService
	characters interfaces.CharacterCatalog
	jwtSecret  string
	logger     *zap.Logger
}

// NewGameHandler creates the handler.
func NewGameHandler(
	dialogue *service.DialogueService,
	saves *service.SaveService,
	ledger *service.LedgerService,
	unlocks *service.UnlockService,
	characters interfaces.CharacterCatalog,
	jwtSecret string,
	logger *zap.Logger,
) *GameHandler {
	return &GameHandler{
		dialogue:   dialogue,
		saves:      saves,
		ledger:     ledger,
		unlocks:    unlocks,
		characters: characters,
		jwtSecret:  jwtSecret,
		logger:     logger.Named("GameHandler"),
	}
}

// RegisterRoutes wires the API routes.
func (h *GameHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(h.jwtSecret, h.logger))
	{
		api.GET("/characters", h.listCharacters)

		api.POST("/dialogue/:character_id/turn", h.turn)
		api.DELETE("/dialogue/session", h.resetSession)

		api.PUT("/stories/:story_id/slots/:slot", h.save)
		api.GET("/stories/:story_id/slots/:slot", h.load)
		api.DELETE("/stories/:story_id/slots/:slot", h.deleteSave)
		api.POST("/stories/:story_id/slots/:slot/complete", h.complete)
		api.GET("/stories/:story_id/saves", h.listStorySaves)
		api.GET("/saves", h.listSaves)

		api.GET("/gems/balance", h.balance)
		api.GET("/gems/history", h.history)
		api.POST("/gems/award", h.award)
		api.POST("/gems/spend", h.spend)

		api.POST("/content/:content_id/unlock", h.unlock)
		api.GET("/content/unlocked", h.listUnlocked)
	}
}

// respondError maps the error taxonomy onto HTTP statuses, keeping the kinds
// distinguishable for clients.
func (h *GameHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidSlot),
		errors.Is(err, models.ErrCorruptSaveData):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrCharacterNotFound),
		errors.Is(err, models.ErrContentNotFound),
		errors.Is(err, models.ErrSaveNotFound),
		errors.Is(err, models.ErrAccountNotFound),
		errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInsufficientGems):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrAlreadyUnlocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrGenerationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *GameHandler) sessionToken(c *gin.Context) (string, bool) {
	token := c.GetHeader(sessionTokenHeader)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + sessionTokenHeader + " header"})
		return "", false
	}
	return token, true
}

func (h *GameHandler) listCharacters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"characters": h.characters.ListCharacters()})
}

type turnRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *GameHandler) turn(c *gin.Context) {
	token, ok := h.sessionToken(c)
	if !ok {
		return
	}
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	result, err := h.dialogue.GenerateTurn(c.Request.Context(), token, c.Param("character_id"), req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *GameHandler) resetSession(c *gin.Context) {
	token, ok := h.sessionToken(c)
	if !ok {
		return
	}
	if err := h.dialogue.ResetSession(c.Request.Context(), token); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GameHandler) slotParams(c *gin.Context) (string, int, bool) {
	storyID := c.Param("story_id")
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slot must be an integer"})
		return "", 0, false
	}
	return storyID, slot, true
}

type saveRequest struct {
	CurrentSpeaker string `json:"current_speaker"`
}

func (h *GameHandler) save(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	token, ok := h.sessionToken(c)
	if !ok {
		return
	}
	storyID, slot, ok := h.slotParams(c)
	if !ok {
		return
	}
	var req saveRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	state, err := h.dialogue.ResolveSession(c.Request.Context(), token)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.saves.SaveOrUpdate(c.Request.Context(), storyID, slot, userID, state, req.CurrentSpeaker); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

// load reads a slot and replaces the session's conversation wholesale.
func (h *GameHandler) load(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	token, ok := h.sessionToken(c)
	if !ok {
		return
	}
	storyID, slot, ok := h.slotParams(c)
	if !ok {
		return
	}

	state, slotInfo, err := h.saves.Load(c.Request.Context(), storyID, slot, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.dialogue.ReplaceSession(c.Request.Context(), token, state); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slotInfo)
}

func (h *GameHandler) deleteSave(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	storyID, slot, ok := h.slotParams(c)
	if !ok {
		return
	}
	if err := h.saves.Delete(c.Request.Context(), storyID, slot, userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type completeRequest struct {
	EndingID string `json:"ending_id" binding:"required"`
}

func (h *GameHandler) complete(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	storyID, slot, ok := h.slotParams(c)
	if !ok {
		return
	}
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ending_id is required"})
		return
	}
	if err := h.saves.MarkCompleted(c.Request.Context(), storyID, slot, userID, req.EndingID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": true})
}

func (h *GameHandler) listSaves(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	slots, err := h.saves.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saves": slots})
}

func (h *GameHandler) listStorySaves(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	slots, err := h.saves.ListByStory(c.Request.Context(), c.Param("story_id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saves": slots})
}

func (h *GameHandler) balance(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	balance, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *GameHandler) history(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	transactions, err := h.ledger.GetTransactionHistory(c.Request.Context(), userID, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

type awardRequest struct {
	Amount  int64   `json:"amount" binding:"required"`
	Source  string  `json:"source" binding:"required"`
	StoryID *string `json:"story_id"`
}

func (h *GameHandler) award(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	var req awardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount and source are required"})
		return
	}
	if err := h.ledger.Award(c.Request.Context(), userID, req.Amount, req.Source, req.StoryID); err != nil {
		h.respondError(c, err)
		return
	}
	balance, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"awarded": true, "balance": balance})
}

type spendRequest struct {
	Amount    int64 `json:"amount" binding:"required"`
	ContentID int64 `json:"content_id" binding:"required"`
}

func (h *GameHandler) spend(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	var req spendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount and content_id are required"})
		return
	}
	if err := h.ledger.Spend(c.Request.Context(), userID, req.Amount, req.ContentID); err != nil {
		h.respondError(c, err)
		return
	}
	balance, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"spent": true, "balance": balance})
}

func (h *GameHandler) unlock(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	contentID, err := strconv.ParseInt(c.Param("content_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content id must be an integer"})
		return
	}
	if err := h.unlocks.Unlock(c.Request.Context(), userID, contentID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unlocked": true})
}

func (h *GameHandler) listUnlocked(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	var storyID *string
	if value := c.Query("story_id"); value != "" {
		storyID = &value
	}
	records, err := h.unlocks.ListUnlocked(c.Request.Context(), userID, storyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unlocked": records})
}
