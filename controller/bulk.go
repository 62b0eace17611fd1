package controller

import (
	"net/http"

	"github.com/firstfin/sarah/service"
	"github.com/firstfin/sarah/service/dto"
	"github.com/labstack/echo/v4"
)

// CreateCampaign godoc
// @Summary Create a bulk campaign
// @Description Validates the template and schedules one staggered job per contact
// @Accept json
// @Produce json
// @Param campaign body dto.CampaignRequest true "Campaign"
// @Success 200 {object} dto.CampaignResult
// @Failure 400 "error description"
// @Router /api/bulk/campaign [post]
func GetCreateCampaignFunc(srv service.BulkService) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(dto.CampaignRequest)
		if err := c.Bind(req); err != nil {
			return err
		}

		result, err := srv.CreateCampaign(*req)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

// ParseContactsCsv godoc
// @Summary Parse a contacts CSV
// @Description Extracts name/phone rows from an uploaded CSV, reporting bad rows
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file with name,phone rows"
// @Success 200 {object} dto.ParsedContacts
// @Failure 400 "error description"
// @Router /api/bulk/parse-csv [post]
func GetParseContactsCsvFunc(srv service.BulkService) echo.HandlerFunc {
	return func(c echo.Context) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.String(http.StatusBadRequest, "csv file is required")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return httpError(c, err)
		}
		defer file.Close()

		result, err := srv.ParseContactsCSV(file)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

// CampaignStats godoc
// @Summary Campaign statistics
// @Description Per-status counts for one campaign
// @Produce json
// @Param name path string true "Campaign name"
// @Success 200 {object} dao.CampaignStats
// @Failure 400 "error description"
// @Router /api/bulk/campaign/{name} [get]
func GetCampaignStatsFunc(srv service.BulkService) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := srv.CampaignStats(c.Param("name"))
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, stats)
	}
}

// PauseBulk godoc
// @Summary Pause bulk sending
// @Produce json
// @Success 200 {object} dto.Reply
// @Router /api/bulk/pause [post]
func GetPauseBulkFunc(srv service.BulkService) echo.HandlerFunc {
	return func(c echo.Context) error {
		srv.Pause()
		return c.JSON(http.StatusOK, dto.Reply{Reply: "bulk sending paused"})
	}
}

// ResumeBulk godoc
// @Summary Resume bulk sending
// @Produce json
// @Success 200 {object} dto.Reply
// @Router /api/bulk/resume [post]
func GetResumeBulkFunc(srv service.BulkService) echo.HandlerFunc {
	return func(c echo.Context) error {
		srv.Resume()
		return c.JSON(http.StatusOK, dto.Reply{Reply: "bulk sending resumed"})
	}
}

// StopBulk godoc
// @Summary Cancel pending jobs
// @Description Cancels every pending campaign job, the scheduler keeps running
// @Produce json
// @Success 200 {object} dto.Cancelled
// @Router /api/bulk/stop [post]
func GetStopBulkFunc(srv service.BulkService) echo.HandlerFunc {
	return func(c echo.Context) error {
		cancelled, err := srv.StopBulk()
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Cancelled{Cancelled: cancelled})
	}
}

// EmergencyStop godoc
// @Summary Emergency stop
// @Description Cancels every pending job and halts the scheduler for good
// @Produce json
// @Success 200 {object} dto.Cancelled
// @Router /api/bulk/emergency-stop [post]
func GetEmergencyStopFunc(srv service.BulkService) echo.HandlerFunc {
	return func(c echo.Context) error {
		cancelled, err := srv.EmergencyStop()
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Cancelled{Cancelled: cancelled})
	}
}

// BulkStatus godoc
// @Summary Scheduler status
// @Description Scheduler flags and global per-status job counts
// @Produce json
// @Success 200 {object} dto.BulkStatus
// @Router /api/bulk/status [get]
func GetBulkStatusFunc(srv service.BulkService) echo.HandlerFunc {
	return func(c echo.Context) error {
		status, err := srv.Status()
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, status)
	}
}

// PurgeBlocked godoc
// @Summary Purge blacklisted records
// @Description Deletes every stored campaign job touching a blacklisted number
// @Produce json
// @Success 200 {object} dto.Purged
// @Router /api/bulk/purge-blocked [post]
func GetPurgeBlockedFunc(srv service.BulkService) echo.HandlerFunc {
	return func(c echo.Context) error {
		removed, err := srv.PurgeBlacklisted()
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Purged{Removed: removed})
	}
}
