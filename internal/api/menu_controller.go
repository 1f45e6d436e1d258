package api

import (
	"net/http"

	"comandapos/server/internal/models"
	"github.com/gin-gonic/gin"
)

// MenuController - меню и категории
type MenuController struct {
	storage  Storage
	notifier Notifier
}

// NewMenuController создает контроллер меню
func NewMenuController(storage Storage, notifier Notifier) *MenuController {
	return &MenuController{storage: storage, notifier: notifier}
}

type createMenuItemRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Available   *bool  `json:"available"`
}

// ListMenuItems GET /api/menu-items
func (mc *MenuController) ListMenuItems(c *gin.Context) {
	items, err := mc.storage.ListMenuItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateMenuItem POST /api/menu-items
func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	var req createMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid data: "+err.Error())
		return
	}
	item := models.MenuItem{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Description: req.Description,
		Image:       req.Image,
		Available:   req.Available == nil || *req.Available,
	}
	created, err := mc.storage.CreateMenuItem(c.Request.Context(), item)
	if err != nil {
		respondError(c, err)
		return
	}
	mc.notifier.Notify(c.Request.Context(), models.EventMenuChanged, gin.H{"id": created.ID})
	c.JSON(http.StatusCreated, created)
}

// UpdateMenuItem PUT /api/menu-items/:id
func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch models.MenuItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid data: "+err.Error())
		return
	}
	updated, err := mc.storage.UpdateMenuItem(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	mc.notifier.Notify(c.Request.Context(), models.EventMenuChanged, gin.H{"id": id})
	c.JSON(http.StatusOK, updated)
}

// DeleteMenuItem DELETE /api/menu-items/:id
func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := mc.storage.DeleteMenuItem(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	mc.notifier.Notify(c.Request.Context(), models.EventMenuChanged, gin.H{"id": id, "deleted": true})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListCategories GET /api/categories
func (mc *MenuController) ListCategories(c *gin.Context) {
	cats, err := mc.storage.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

// UpsertCategory PUT /api/categories/:id
func (mc *MenuController) UpsertCategory(c *gin.Context) {
	var req struct {
		Label         string `json:"label"`
		SendToKitchen bool   `json:"send_to_kitchen"`
		VariablePrice bool   `json:"variable_price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid data: "+err.Error())
		return
	}
	cat, err := mc.storage.UpsertCategory(c.Request.Context(), models.Category{
		ID:            c.Param("id"),
		Label:         req.Label,
		SendToKitchen: req.SendToKitchen,
		VariablePrice: req.VariablePrice,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	mc.notifier.Notify(c.Request.Context(), models.EventCategoryChanged, gin.H{"id": cat.ID})
	c.JSON(http.StatusOK, cat)
}

// DeleteCategory DELETE /api/categories/:id
func (mc *MenuController) DeleteCategory(c *gin.Context) {
	moved, err := mc.storage.DeleteCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	mc.notifier.Notify(c.Request.Context(), models.EventCategoryChanged, gin.H{"id": c.Param("id"), "deleted": true})
	c.JSON(http.StatusOK, gin.H{"ok": true, "moved_items": moved, "fallback": models.FallbackCategoryID})
}
