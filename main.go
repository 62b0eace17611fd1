package main

import (
	"github.com/firstfin/sarah/controller"
	"github.com/firstfin/sarah/dao"
	_ "github.com/firstfin/sarah/docs"
	"github.com/firstfin/sarah/log"
	"github.com/firstfin/sarah/notify"
	"github.com/firstfin/sarah/service"
	"github.com/firstfin/sarah/sms"
	"github.com/firstfin/sarah/util"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// @title Sarah sales agent HTTP API
// @description SMS sales funnel, bulk campaigns and desk API

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Error.Println(err)
	}
}

func main() {
	syncLogs := log.InitZap()
	defer syncLogs()

	//create db client
	dbClient, err := dao.GetClient(util.GetEnv("DB_PATH", "sarah.db"))
	if err != nil {
		log.Fatal(err)
	}

	//create carrier client
	transport, err := sms.NewTwilioClient(sms.ConfigFromEnv())
	if err != nil {
		log.Fatal(err)
	}

	//email alerts are optional, the agent runs fine without them
	var notifier notify.Notifier
	mailer, err := notify.NewMailer(notify.MailConfigFromEnv())
	if err != nil {
		log.Warn.Println("email alerts disabled:", err)
		notifier = notify.NopNotifier()
	} else {
		notifier = notify.NewNotifier(mailer)
	}
	defer notifier.Stop()

	customerDao := dao.NewCustomerDao(dbClient)
	conversationDao := dao.NewConversationDao(dbClient)
	messageDao := dao.NewMessageDao(dbClient)
	leadDao := dao.NewLeadDao(dbClient)
	analyticsDao := dao.NewAnalyticsDao(dbClient)
	bulkDao := dao.NewBulkDao(dbClient)
	deskDao := dao.NewDeskDao(dbClient)

	convoService := service.NewConvoService(transport, notifier,
		customerDao, conversationDao, messageDao, leadDao, analyticsDao)

	bulkService := service.NewBulkService(transport, bulkDao,
		customerDao, conversationDao, messageDao, leadDao)
	bulkService.Start()

	deskService := service.NewDeskService(deskDao, util.GetEnv("JWT_SECRET", ""))

	//attach http handlers
	e := echo.New()
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.HideBanner = true
	e.Use(middleware.BodyLimit("1M"))

	bindRoutes(e, convoService, bulkService, deskService, conversationDao, leadDao, analyticsDao)

	//start http server
	log.Fatal(e.Start(":" + util.GetEnv("HTTP_PORT", "8080")))
}

func bindRoutes(e *echo.Echo, convoService service.ConvoService, bulkService service.BulkService,
	deskService service.DeskService, conversationDao dao.ConversationDao,
	leadDao dao.LeadDao, analyticsDao dao.AnalyticsDao) {

	//carrier webhooks
	e.POST("/webhook/sms", controller.GetInboundSmsFunc(convoService))
	e.POST("/webhook/keypress", controller.GetKeypressFunc(convoService))

	//operator API, guarded by the shared admin token
	admin := e.Group("/api", controller.RequireAdminToken(util.GetEnv("ADMIN_TOKEN", "")))

	admin.POST("/start-sms", controller.GetStartSmsFunc(convoService))
	admin.POST("/manual-reply", controller.GetManualReplyFunc(convoService))
	admin.POST("/deal-funded/:phone", controller.GetDealFundedFunc(convoService))
	admin.POST("/voice-drop", controller.GetVoiceDropFunc(convoService))

	admin.GET("/conversations", controller.GetListConversationsFunc(convoService))
	admin.GET("/conversations/:phone", controller.GetConversationFunc(convoService))
	admin.DELETE("/conversations/:phone", controller.GetDeleteConversationFunc(convoService))
	admin.GET("/stats", controller.GetDashboardStatsFunc(convoService))
	admin.GET("/events", controller.GetRecentEventsFunc(analyticsDao))
	admin.GET("/export/appointments", controller.GetExportAppointmentsFunc(leadDao))
	admin.GET("/export/callbacks", controller.GetExportCallbacksFunc(leadDao))
	admin.GET("/export/conversations", controller.GetExportConversationsFunc(conversationDao))

	admin.POST("/bulk/campaign", controller.GetCreateCampaignFunc(bulkService))
	admin.POST("/bulk/parse-csv", controller.GetParseContactsCsvFunc(bulkService))
	admin.GET("/bulk/campaign/:name", controller.GetCampaignStatsFunc(bulkService))
	admin.POST("/bulk/pause", controller.GetPauseBulkFunc(bulkService))
	admin.POST("/bulk/resume", controller.GetResumeBulkFunc(bulkService))
	admin.POST("/bulk/stop", controller.GetStopBulkFunc(bulkService))
	admin.POST("/bulk/emergency-stop", controller.GetEmergencyStopFunc(bulkService))
	admin.GET("/bulk/status", controller.GetBulkStatusFunc(bulkService))
	admin.POST("/bulk/purge-blocked", controller.GetPurgeBlockedFunc(bulkService))

	//desk auth
	e.POST("/desk/auth/register", controller.GetRegisterFunc(deskService))
	e.POST("/desk/auth/login", controller.GetLoginFunc(deskService))
	e.POST("/desk/auth/refresh", controller.GetRefreshFunc(deskService))
	e.POST("/desk/auth/logout", controller.GetLogoutFunc(deskService))

	//desk data, per-user behind bearer auth
	desk := e.Group("/desk", controller.RequireAuth(deskService))
	desk.GET("/me", controller.GetMeFunc())
	desk.GET("/settings", controller.GetSettingsFunc(deskService))
	desk.PUT("/settings", controller.GetSaveSettingsFunc(deskService))
	desk.GET("/inventory", controller.GetInventoryFunc(deskService))
	desk.PUT("/inventory", controller.GetReplaceInventoryFunc(deskService))
	desk.DELETE("/inventory/:stock", controller.GetDeleteVehicleFunc(deskService))
	desk.GET("/crm", controller.GetCrmFunc(deskService))
	desk.PUT("/crm", controller.GetReplaceCrmFunc(deskService))
	desk.DELETE("/crm/:id", controller.GetDeleteCrmEntryFunc(deskService))
	desk.GET("/deal-log", controller.GetDealLogFunc(deskService))
	desk.POST("/deal-log", controller.GetAddDealLogEntryFunc(deskService))
	desk.DELETE("/deal-log/:id", controller.GetDeleteDealLogEntryFunc(deskService))
	desk.GET("/lender-rates", controller.GetLenderRatesFunc(deskService))
	desk.PUT("/lender-rates", controller.GetSaveLenderRatesFunc(deskService))
	desk.DELETE("/lender-rates", controller.GetResetLenderRatesFunc(deskService))
	desk.GET("/scenarios", controller.GetScenariosFunc(deskService))
	desk.PUT("/scenarios", controller.GetReplaceScenariosFunc(deskService))
	desk.GET("/load-all", controller.GetLoadAllFunc(deskService))
}
