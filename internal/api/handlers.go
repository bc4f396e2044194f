package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/roadmap/internal/app"
	"github.com/annel0/roadmap/internal/roadmap"
	"github.com/annel0/roadmap/internal/scanner"
	"github.com/annel0/roadmap/internal/vec"
	"github.com/gin-gonic/gin"
)

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ScanRequest позиция ног наблюдателя
type ScanRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ClearRequest центр и радиус очистки в чанках; радиус не больше 4096 чанков
type ClearRequest struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Z      int `json:"z"`
	Radius int `json:"radius" binding:"min=0,max=4096"`
}

// MarkerRequest маркер в позиции
type MarkerRequest struct {
	X    int                 `json:"x"`
	Y    int                 `json:"y"`
	Z    int                 `json:"z"`
	Type *roadmap.MarkerType `json:"type" binding:"required"`
}

// GoalRequest позиция цели поиска пути
type GoalRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: message})
}

func (rs *RestServer) internalError(c *gin.Context, op string, err error) {
	rs.logger.Error("❌ %s: %v", op, err)
	c.JSON(http.StatusInternalServerError, GenericResponse{
		Success: false,
		Message: op + ": " + err.Error(),
	})
}

// handleScan запускает скан от позиции наблюдателя
func (rs *RestServer) handleScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}

	result, err := rs.service.Scan(c.Request.Context(), vec.Vec3Float{X: req.X, Y: req.Y, Z: req.Z})
	switch {
	case errors.Is(err, scanner.ErrNoFloor) || errors.Is(err, scanner.ErrNotRoad):
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{
			Success: false,
			Message: err.Error(),
			Data:    result,
		})
		return
	case err != nil:
		rs.internalError(c, "Ошибка скана", err)
		return
	}

	message := "Скан завершён"
	if result.LimitReached {
		message = "Скан остановлен по пределу итераций"
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: message, Data: result})
}

func (rs *RestServer) handleUndo(c *gin.Context) {
	changed, err := rs.service.Undo(c.Request.Context())
	if err != nil {
		rs.internalError(c, "Ошибка отмены", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Отмена",
		Data:    gin.H{"changed": changed},
	})
}

func (rs *RestServer) handleRedo(c *gin.Context) {
	changed, err := rs.service.Redo(c.Request.Context())
	if err != nil {
		rs.internalError(c, "Ошибка повтора", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Повтор",
		Data:    gin.H{"changed": changed},
	})
}

func (rs *RestServer) handleClear(c *gin.Context) {
	var req ClearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}

	removed, err := rs.service.ClearChunksInRadius(c.Request.Context(),
		vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}, req.Radius)
	if err != nil {
		rs.internalError(c, "Ошибка очистки", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Чанки удалены",
		Data:    gin.H{"removed_chunks": removed},
	})
}

func (rs *RestServer) handleClearAll(c *gin.Context) {
	if err := rs.service.ClearAll(c.Request.Context()); err != nil {
		rs.internalError(c, "Ошибка очистки", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Карта очищена"})
}

// handleFrontier возвращает группы маркеров обрыва, ближайшие первыми
func (rs *RestServer) handleFrontier(c *gin.Context) {
	ref, ok := queryVec3(c)
	if !ok {
		badRequest(c, "Требуются целые параметры x, y, z")
		return
	}

	groups := rs.service.FindFrontierMarkers(ref)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Границы найдены",
		Data: gin.H{
			"groups": groups,
			"total":  len(groups),
		},
	})
}

func (rs *RestServer) handleReload(c *gin.Context) {
	if err := rs.service.Reload(c.Request.Context()); err != nil {
		rs.internalError(c, "Ошибка загрузки", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Карта перезагружена",
		Data:    rs.service.Stats(),
	})
}

func (rs *RestServer) handleOptimize(c *gin.Context) {
	removed, err := rs.service.Optimize(c.Request.Context())
	if err != nil {
		rs.internalError(c, "Ошибка оптимизации", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Оптимизация выполнена",
		Data:    gin.H{"removed_blocks": removed},
	})
}

func (rs *RestServer) handleGetMarkers(c *gin.Context) {
	var filter *roadmap.MarkerType
	if name := c.Query("type"); name != "" {
		t, err := roadmap.ParseMarkerType(name)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		filter = &t
	}

	markers := rs.service.Markers(filter)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Список маркеров получен",
		Data: gin.H{
			"markers": markers,
			"total":   len(markers),
		},
	})
}

func (rs *RestServer) handleAddMarker(c *gin.Context) {
	var req MarkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}

	added, err := rs.service.AddMarker(c.Request.Context(), vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}, *req.Type)
	if err != nil {
		rs.internalError(c, "Ошибка сохранения маркера", err)
		return
	}
	if !added {
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: "Рядом уже есть маркер этого типа",
		})
		return
	}
	c.JSON(http.StatusCreated, GenericResponse{Success: true, Message: "Маркер добавлен"})
}

func (rs *RestServer) handleRemoveMarker(c *gin.Context) {
	var req MarkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}

	removed, err := rs.service.RemoveMarker(c.Request.Context(), vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}, *req.Type)
	if err != nil {
		rs.internalError(c, "Ошибка удаления маркера", err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Маркер не найден"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Маркер удалён"})
}

func (rs *RestServer) handleSetGoal(c *gin.Context) {
	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}
	if err := rs.service.SetPathfinderGoal(c.Request.Context(), vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}); err != nil {
		rs.internalError(c, "Ошибка сохранения цели", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Цель установлена"})
}

// handleGetChunk возвращает записи чанка
func (rs *RestServer) handleGetChunk(c *gin.Context) {
	x, errX := strconv.Atoi(c.Param("x"))
	z, errZ := strconv.Atoi(c.Param("z"))
	if errX != nil || errZ != nil {
		badRequest(c, "Координаты чанка должны быть целыми")
		return
	}

	blocks, ok := rs.service.ChunkBlocks(vec.Vec2{X: x, Y: z})
	if !ok {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Чанк не найден"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Чанк получен",
		Data: gin.H{
			"x":      x,
			"z":      z,
			"blocks": blocks,
			"total":  len(blocks),
		},
	})
}

// handleStats возвращает статистику карты и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data: struct {
			Roadmap app.Stats    `json:"roadmap"`
			Server  ProcessStats `json:"server"`
			Time    int64        `json:"server_time"`
		}{
			Roadmap: rs.service.Stats(),
			Server:  rs.metrics.Snapshot(),
			Time:    time.Now().Unix(),
		},
	})
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func queryVec3(c *gin.Context) (vec.Vec3, bool) {
	var out [3]int
	for i, key := range []string{"x", "y", "z"} {
		v, err := strconv.Atoi(c.Query(key))
		if err != nil {
			return vec.Vec3{}, false
		}
		out[i] = v
	}
	return vec.Vec3{X: out[0], Y: out[1], Z: out[2]}, true
}
