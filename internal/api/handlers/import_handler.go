package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/drive"
	"github.com/gin-gonic/gin"
)

// Importer pulls forecast, consumption and product sheets from Drive.
type Importer interface {
	IngestFile(ctx context.Context, fileID string, week domain.WeekKey) (*drive.ImportResult, error)
	IngestFolder(ctx context.Context, folderID string, week domain.WeekKey) ([]*drive.ImportResult, error)
}

type ImportHandler struct {
	importer      Importer
	defaultFolder string
	onImported    func(ctx context.Context)
}

// NewImportHandler builds the Drive import handler. onImported runs after
// every import that wrote at least one file and may be nil.
func NewImportHandler(importer Importer, defaultFolder string, onImported func(ctx context.Context)) *ImportHandler {
	return &ImportHandler{
		importer:      importer,
		defaultFolder: defaultFolder,
		onImported:    onImported,
	}
}

// parseImportWeek reads the optional ?year=&week= pair. Both or neither must
// be given.
func parseImportWeek(c *gin.Context) (domain.WeekKey, bool) {
	rawYear, rawWeek := strings.TrimSpace(c.Query("year")), strings.TrimSpace(c.Query("week"))
	if rawYear == "" && rawWeek == "" {
		return domain.WeekKey{}, true
	}

	year, errYear := strconv.Atoi(rawYear)
	week, errWeek := strconv.Atoi(rawWeek)
	key := domain.WeekKey{Year: year, Week: week}
	if errYear != nil || errWeek != nil || !key.Valid() {
		badRequest(c, "invalid week", rawYear+"-W"+rawWeek)
		return domain.WeekKey{}, false
	}
	return key, true
}

// ImportDrive imports a single file (?fileId=) or a whole folder
// (?folderId=, defaulting to the configured folder).
func (h *ImportHandler) ImportDrive(c *gin.Context) {
	week, ok := parseImportWeek(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var (
		results []*drive.ImportResult
		err     error
	)
	if fileID := strings.TrimSpace(c.Query("fileId")); fileID != "" {
		var result *drive.ImportResult
		if result, err = h.importer.IngestFile(ctx, fileID, week); err == nil {
			results = append(results, result)
		}
	} else {
		folderID := strings.TrimSpace(c.DefaultQuery("folderId", h.defaultFolder))
		if folderID == "" {
			badRequest(c, "missing fileId or folderId", "")
			return
		}
		results, err = h.importer.IngestFolder(ctx, folderID, week)
	}

	// a folder import can fail halfway, after some weeks were written
	if len(results) > 0 && h.onImported != nil {
		h.onImported(ctx)
	}
	if err != nil {
		respondError(c, err, "failed to import from drive")
		return
	}

	if results == nil {
		results = make([]*drive.ImportResult, 0)
	}

	c.JSON(http.StatusOK, gin.H{
		"imported": len(results),
		"results":  results,
	})
}
