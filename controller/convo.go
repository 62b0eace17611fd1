package controller

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/firstfin/sarah/dao"
	"github.com/firstfin/sarah/service"
	"github.com/firstfin/sarah/service/dto"
	"github.com/labstack/echo/v4"
)

// StartSms godoc
// @Summary Start an outbound conversation
// @Description Sends the opening greeting to a customer and opens a conversation
// @Accept json
// @Produce json
// @Param request body dto.StartSMS true "Customer phone and optional name"
// @Success 200 {object} dto.Reply
// @Failure 400 "error description"
// @Router /api/start-sms [post]
func GetStartSmsFunc(srv service.ConvoService) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(dto.StartSMS)
		if err := c.Bind(req); err != nil {
			return err
		}

		if err := srv.StartSMS(*req); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "greeting sent"})
	}
}

// ManualReply godoc
// @Summary Send a staff reply
// @Description Sends a staff-typed message on the customer's conversation
// @Accept json
// @Produce json
// @Param request body dto.ManualReply true "Phone and message text"
// @Success 200 {object} dto.Reply
// @Failure 400 "error description"
// @Failure 404 "error description"
// @Router /api/manual-reply [post]
func GetManualReplyFunc(srv service.ConvoService) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(dto.ManualReply)
		if err := c.Bind(req); err != nil {
			return err
		}

		if err := srv.ManualReply(*req); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "message sent"})
	}
}

// DealFunded godoc
// @Summary Send the deal-funded follow-up
// @Description Texts the post-sale congratulation to a converted customer
// @Produce json
// @Param phone path string true "Customer phone"
// @Success 200 {object} dto.Reply
// @Failure 404 "error description"
// @Router /api/deal-funded/{phone} [post]
func GetDealFundedFunc(srv service.ConvoService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := srv.DealFunded(c.Param("phone")); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "follow-up sent"})
	}
}

// VoiceDrop godoc
// @Summary Place a voice drop
// @Description Calls the customer with a recorded pitch and a keypress option
// @Accept json
// @Produce json
// @Param request body dto.VoiceDrop true "Phone and optional speech"
// @Success 200 {object} dto.Reply
// @Failure 400 "error description"
// @Router /api/voice-drop [post]
func GetVoiceDropFunc(srv service.ConvoService) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(dto.VoiceDrop)
		if err := c.Bind(req); err != nil {
			return err
		}

		if err := srv.PlaceVoiceDrop(*req); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "call placed"})
	}
}

// ListConversations godoc
// @Summary List conversations
// @Description Returns conversations ordered newest-updated first
// @Produce json
// @Param limit query int false "Max conversations to return"
// @Success 200 {array} dto.ConversationSummary
// @Router /api/conversations [get]
func GetListConversationsFunc(srv service.ConvoService) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		convs, err := srv.GetRecentConversations(limit)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, convs)
	}
}

// GetConversation godoc
// @Summary Get one conversation
// @Description Returns the newest conversation for the phone with its message log
// @Produce json
// @Param phone path string true "Customer phone"
// @Success 200 {object} dto.ConversationDetail
// @Failure 404 "error description"
// @Router /api/conversations/{phone} [get]
func GetConversationFunc(srv service.ConvoService) echo.HandlerFunc {
	return func(c echo.Context) error {
		detail, err := srv.GetConversation(c.Param("phone"))
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, detail)
	}
}

// DeleteConversation godoc
// @Summary Delete a conversation
// @Description Removes the phone's newest conversation, its messages and leads
// @Produce json
// @Param phone path string true "Customer phone"
// @Success 200 {object} dto.Reply
// @Failure 404 "error description"
// @Router /api/conversations/{phone} [delete]
func GetDeleteConversationFunc(srv service.ConvoService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := srv.DeleteConversation(c.Param("phone")); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "conversation deleted"})
	}
}

// DashboardStats godoc
// @Summary Funnel statistics
// @Description Aggregated counters for the sales dashboard
// @Produce json
// @Success 200 {object} dto.DashboardStats
// @Router /api/stats [get]
func GetDashboardStatsFunc(srv service.ConvoService) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := srv.DashboardStats()
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, stats)
	}
}

// ExportAppointments godoc
// @Summary Export appointments CSV
// @Description Streams recent booked test drives as CSV
// @Produce text/csv
// @Success 200 "csv body"
// @Router /api/export/appointments [get]
func GetExportAppointmentsFunc(leadDao dao.LeadDao) echo.HandlerFunc {
	return func(c echo.Context) error {
		leads, err := leadDao.GetRecentAppointments(1000)
		if err != nil {
			return httpError(c, err)
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/csv")
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="appointments.csv"`)
		c.Response().WriteHeader(http.StatusOK)

		w := csv.NewWriter(c.Response())
		if err := w.Write([]string{"name", "phone", "vehicle_type", "budget", "budget_amount", "datetime", "created_at"}); err != nil {
			return err
		}
		for _, lead := range leads {
			if err := w.Write([]string{
				lead.Name, lead.Phone, lead.VehicleType, lead.Budget,
				strconv.Itoa(lead.BudgetAmount), lead.Datetime,
				lead.CreatedAt.Format("2006-01-02 15:04:05"),
			}); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	}
}

// ExportCallbacks godoc
// @Summary Export callbacks CSV
// @Description Streams recent callback requests as CSV
// @Produce text/csv
// @Success 200 "csv body"
// @Router /api/export/callbacks [get]
func GetExportCallbacksFunc(leadDao dao.LeadDao) echo.HandlerFunc {
	return func(c echo.Context) error {
		leads, err := leadDao.GetRecentCallbacks(1000)
		if err != nil {
			return httpError(c, err)
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/csv")
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="callbacks.csv"`)
		c.Response().WriteHeader(http.StatusOK)

		w := csv.NewWriter(c.Response())
		if err := w.Write([]string{"name", "phone", "vehicle_type", "budget", "budget_amount", "datetime", "created_at"}); err != nil {
			return err
		}
		for _, lead := range leads {
			if err := w.Write([]string{
				lead.Name, lead.Phone, lead.VehicleType, lead.Budget,
				strconv.Itoa(lead.BudgetAmount), lead.Datetime,
				lead.CreatedAt.Format("2006-01-02 15:04:05"),
			}); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	}
}

// ExportConversations godoc
// @Summary Export conversations CSV
// @Description Streams recent conversations with their funnel state as CSV
// @Produce text/csv
// @Success 200 "csv body"
// @Router /api/export/conversations [get]
func GetExportConversationsFunc(conversationDao dao.ConversationDao) echo.HandlerFunc {
	return func(c echo.Context) error {
		convs, err := conversationDao.GetRecent(1000)
		if err != nil {
			return httpError(c, err)
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/csv")
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="conversations.csv"`)
		c.Response().WriteHeader(http.StatusOK)

		w := csv.NewWriter(c.Response())
		if err := w.Write([]string{"phone", "customer_name", "status", "stage", "vehicle_type", "budget", "datetime", "updated_at"}); err != nil {
			return err
		}
		for _, conv := range convs {
			if err := w.Write([]string{
				conv.Phone, conv.CustomerName, conv.Status, conv.Stage,
				conv.VehicleType, conv.Budget, conv.Datetime,
				conv.UpdatedAt.Format("2006-01-02 15:04:05"),
			}); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	}
}

// RecentEvents godoc
// @Summary Recent analytics events
// @Description Returns the newest analytics facts for the dashboard feed
// @Produce json
// @Param limit query int false "Max events to return"
// @Success 200 {array} model.AnalyticsEvent
// @Router /api/events [get]
func GetRecentEventsFunc(analyticsDao dao.AnalyticsDao) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		if limit <= 0 {
			limit = 100
		}
		events, err := analyticsDao.GetRecent(limit)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, events)
	}
}
