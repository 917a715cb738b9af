package delivery

import (
	"net/http"

	"mailtriage-backend/internal/email/dto"
	"mailtriage-backend/internal/email/repository"
	"mailtriage-backend/internal/email/usecase"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	importUsecase   usecase.ImportUsecase
	messageUsecase  usecase.MessageUsecase
	categoryUsecase usecase.CategoryUsecase
	searchUsecase   usecase.SearchUsecase
	statsUsecase    usecase.StatsUsecase
}

func NewEmailHandler(
	importUsecase usecase.ImportUsecase,
	messageUsecase usecase.MessageUsecase,
	categoryUsecase usecase.CategoryUsecase,
	searchUsecase usecase.SearchUsecase,
	statsUsecase usecase.StatsUsecase,
) *EmailHandler {
	return &EmailHandler{
		importUsecase:   importUsecase,
		messageUsecase:  messageUsecase,
		categoryUsecase: categoryUsecase,
		searchUsecase:   searchUsecase,
		statsUsecase:    statsUsecase,
	}
}

// Import triggers a synchronous import run and returns its report.
// Partial failures still return 200 with the error list populated.
func (h *EmailHandler) Import(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.importUsecase.ImportRecent(c.Request.Context(), c.GetString("userID"), req.MaxResults, req.Query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *EmailHandler) Watch(c *gin.Context) {
	if err := h.importUsecase.WatchMailbox(c.Request.Context(), c.GetString("userID")); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "watch registered"})
}

func (h *EmailHandler) ListMessages(c *gin.Context) {
	var req dto.ListMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messages, err := h.messageUsecase.List(c.GetString("userID"), repository.MessageFilter{
		CategoryID: req.CategoryID,
		Archived:   req.Archived,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *EmailHandler) GetMessage(c *gin.Context) {
	message, err := h.messageUsecase.Get(c.GetString("userID"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if message == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	c.JSON(http.StatusOK, message)
}

func (h *EmailHandler) ArchiveMessage(c *gin.Context) {
	if err := h.messageUsecase.Archive(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "archived"})
}

func (h *EmailHandler) TrashMessage(c *gin.Context) {
	if err := h.messageUsecase.Trash(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "trashed"})
}

func (h *EmailHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messages, err := h.searchUsecase.Search(c.Request.Context(), c.GetString("userID"), req.Query, req.Semantic, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SemanticSearch always routes through the embedding index, with fuzzy
// matching as the merge/fallback path.
func (h *EmailHandler) SemanticSearch(c *gin.Context) {
	var req dto.SemanticSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messages, err := h.searchUsecase.Search(c.Request.Context(), c.GetString("userID"), req.Query, true, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *EmailHandler) CreateCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.categoryUsecase.Create(c.GetString("userID"), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *EmailHandler) ListCategories(c *gin.Context) {
	categories, err := h.categoryUsecase.List(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *EmailHandler) UpdateCategory(c *gin.Context) {
	var req dto.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.categoryUsecase.Update(c.GetString("userID"), c.Param("id"), &req)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *EmailHandler) DeleteCategory(c *gin.Context) {
	if err := h.categoryUsecase.Delete(c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *EmailHandler) Stats(c *gin.Context) {
	stats, err := h.statsUsecase.Dashboard(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *EmailHandler) StatsDaily(c *gin.Context) {
	daily, err := h.statsUsecase.Daily(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"daily": daily})
}

func (h *EmailHandler) StatsSenders(c *gin.Context) {
	senders, err := h.statsUsecase.Senders(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"senders": senders})
}
