package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/food-store/services"
	"github.com/yeremiapane/food-store/utils"
)

type FoodController struct {
	Catalog  *services.CatalogService
	PageSize int
}

func NewFoodController(catalog *services.CatalogService, pageSize int) *FoodController {
	return &FoodController{Catalog: catalog, PageSize: pageSize}
}

// ListFoods -> GET /foods?page=&size=
func (fc *FoodController) ListFoods(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(fc.PageSize)))
	if err != nil {
		size = fc.PageSize
	}

	foods, total, err := fc.Catalog.ListFoods(c.Request.Context(), page, size)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of foods", gin.H{
		"foods": foods,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

func (fc *FoodController) GetFood(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	detail, err := fc.Catalog.GetFood(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Food details", detail)
}

func (fc *FoodController) Search(c *gin.Context) {
	query := c.Query("query")
	foods, err := fc.Catalog.SearchFoods(c.Request.Context(), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Search results", gin.H{
		"query": query,
		"foods": foods,
	})
}
