package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gridpack/internal/builder"
	"gridpack/internal/config"
	"gridpack/internal/datapackage"
	"gridpack/internal/model"
)

// Handlers API处理器
type Handlers struct {
	cfg     *config.AppConfig
	builder *builder.Builder
}

// NewHandlers 创建处理器
func NewHandlers(cfg *config.AppConfig, b *builder.Builder) *Handlers {
	return &Handlers{cfg: cfg, builder: b}
}

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, Response{Code: 1, Message: err.Error()})
}

// RegisterRoutes 注册 API 路由
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/status", h.GetStatus)

	// 目录浏览
	router.GET("/components", h.ListComponents)
	router.GET("/components/:name", h.GetComponent)
	router.GET("/blueprints", h.ListBlueprints)
	router.GET("/scenarios", h.ListScenarios)
	router.GET("/datapackages", h.ListDatapackages)

	// 构建
	router.POST("/build/blueprint", h.BuildBlueprint)
	router.POST("/build/scenario", h.BuildScenario)
}

// GetStatus 系统状态
func (h *Handlers) GetStatus(c *gin.Context) {
	success(c, gin.H{
		"datapackage_dir": h.cfg.Dirs.Datapackages,
		"time":            time.Now().Format(time.RFC3339),
	})
}

// ListComponents 列出可用组件
func (h *Handlers) ListComponents(c *gin.Context) {
	names, err := model.NewDirCatalog(h.cfg.Dirs.Components).List()
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	success(c, names)
}

// GetComponent 查询单个组件定义
func (h *Handlers) GetComponent(c *gin.Context) {
	comp, err := model.NewDirCatalog(h.cfg.Dirs.Components).Component(c.Param("name"))
	if err != nil {
		fail(c, http.StatusNotFound, err)
		return
	}
	success(c, gin.H{
		"name":       comp.Name,
		"attributes": comp.Attributes.Names,
		"busses":     comp.Busses,
		"sequences":  comp.Sequences,
	})
}

// ListBlueprints 列出可用蓝图
func (h *Handlers) ListBlueprints(c *gin.Context) {
	names, err := listYAMLStems(h.cfg.Dirs.Blueprints)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	success(c, names)
}

// ListScenarios 列出可用场景
func (h *Handlers) ListScenarios(c *gin.Context) {
	names, err := listYAMLStems(h.cfg.Dirs.Scenarios)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	success(c, names)
}

// ListDatapackages 列出已生成的数据包
func (h *Handlers) ListDatapackages(c *gin.Context) {
	names, err := datapackage.List(h.cfg.Dirs.Datapackages)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	success(c, names)
}

// BuildReport 构建结果报告
type BuildReport struct {
	ID          string `json:"id"`
	Datapackage string `json:"datapackage"`
	Resources   int    `json:"resources"`
	DurationMS  int64  `json:"durationMs"`
}

// BuildBlueprint 展开蓝图生成数据包
func (h *Handlers) BuildBlueprint(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	pkg, err := h.builder.BuildBlueprint(req.Name)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	success(c, BuildReport{
		ID:          uuid.NewString(),
		Datapackage: pkg.Name,
		Resources:   len(pkg.Resources),
		DurationMS:  time.Since(start).Milliseconds(),
	})
}

// BuildScenario 基于既有数据包构建场景变体
func (h *Handlers) BuildScenario(c *gin.Context) {
	var req struct {
		Datapackage string `json:"datapackage" binding:"required"`
		Scenario    string `json:"scenario" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	pkg, err := h.builder.BuildScenario(req.Datapackage, req.Scenario)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	success(c, BuildReport{
		ID:          uuid.NewString(),
		Datapackage: pkg.Name,
		Resources:   len(pkg.Resources),
		DurationMS:  time.Since(start).Milliseconds(),
	})
}

// listYAMLStems 列出目录下 YAML 文件的主名
func listYAMLStems(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(filepath.Base(e.Name()), ".yaml"))
	}
	return names, nil
}
