package controller

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/firstfin/sarah/model"
	"github.com/firstfin/sarah/service"
	"github.com/firstfin/sarah/service/dto"
	"github.com/labstack/echo/v4"
)

const deskUserKey = "deskUser"

// RequireAuth validates the bearer token and stores the caller's profile on the context.
func RequireAuth(srv service.DeskService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token := strings.TrimPrefix(header, "Bearer ")
			if token == header || strings.TrimSpace(token) == "" {
				return c.String(http.StatusUnauthorized, "missing bearer token")
			}

			profile, err := srv.VerifyAccessToken(token)
			if err != nil {
				return httpError(c, err)
			}
			c.Set(deskUserKey, profile)
			return next(c)
		}
	}
}

// RequireAdminToken guards operational endpoints with a shared secret header.
func RequireAdminToken(adminToken string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get("X-Admin-Token")
			if adminToken == "" || subtle.ConstantTimeCompare([]byte(got), []byte(adminToken)) != 1 {
				return c.String(http.StatusUnauthorized, "invalid admin token")
			}
			return next(c)
		}
	}
}

func caller(c echo.Context) dto.DeskProfile {
	profile, _ := c.Get(deskUserKey).(dto.DeskProfile)
	return profile
}

// Register godoc
// @Summary Register a desk user
// @Accept json
// @Produce json
// @Param credentials body dto.Credentials true "Email, password and display name"
// @Success 200 {object} dto.TokenPair
// @Failure 400 "error description"
// @Router /desk/auth/register [post]
func GetRegisterFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		creds := new(dto.Credentials)
		if err := c.Bind(creds); err != nil {
			return err
		}

		pair, err := srv.Register(*creds)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, pair)
	}
}

// Login godoc
// @Summary Log in
// @Accept json
// @Produce json
// @Param credentials body dto.Credentials true "Email and password"
// @Success 200 {object} dto.TokenPair
// @Failure 401 "error description"
// @Router /desk/auth/login [post]
func GetLoginFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		creds := new(dto.Credentials)
		if err := c.Bind(creds); err != nil {
			return err
		}

		pair, err := srv.Login(*creds)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, pair)
	}
}

// RefreshToken godoc
// @Summary Rotate a refresh token
// @Accept json
// @Produce json
// @Param request body dto.RefreshRequest true "Refresh token"
// @Success 200 {object} dto.TokenPair
// @Failure 401 "error description"
// @Router /desk/auth/refresh [post]
func GetRefreshFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(dto.RefreshRequest)
		if err := c.Bind(req); err != nil {
			return err
		}

		pair, err := srv.Refresh(req.RefreshToken)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, pair)
	}
}

// Logout godoc
// @Summary Log out
// @Accept json
// @Produce json
// @Param request body dto.RefreshRequest true "Refresh token to revoke"
// @Success 200 {object} dto.Reply
// @Router /desk/auth/logout [post]
func GetLogoutFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(dto.RefreshRequest)
		if err := c.Bind(req); err != nil {
			return err
		}

		if err := srv.Logout(req.RefreshToken); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "logged out"})
	}
}

// Me godoc
// @Summary Current user profile
// @Produce json
// @Success 200 {object} dto.DeskProfile
// @Router /desk/me [get]
func GetMeFunc() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, caller(c))
	}
}

// GetSettings godoc
// @Summary Get user settings
// @Produce json
// @Success 200 "settings JSON"
// @Router /desk/settings [get]
func GetSettingsFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		settings, err := srv.GetSettings(caller(c).Id)
		if err != nil {
			return httpError(c, err)
		}
		return jsonOrEmpty(c, settings)
	}
}

// SaveSettings godoc
// @Summary Save user settings
// @Accept json
// @Produce json
// @Success 200 {object} dto.Reply
// @Router /desk/settings [put]
func GetSaveSettingsFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := rawBody(c)
		if err != nil {
			return err
		}
		if err := srv.SaveSettings(caller(c).Id, body); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "settings saved"})
	}
}

// GetInventory godoc
// @Summary List available vehicles
// @Produce json
// @Success 200 {array} model.InventoryVehicle
// @Router /desk/inventory [get]
func GetInventoryFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		vehicles, err := srv.GetInventory()
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, emptyIfNilVehicles(vehicles))
	}
}

// ReplaceInventory godoc
// @Summary Replace the inventory
// @Description Delists the current inventory and loads the posted set
// @Accept json
// @Produce json
// @Param vehicles body []model.InventoryVehicle true "Full vehicle list"
// @Success 200 {object} dto.Reply
// @Failure 400 "error description"
// @Router /desk/inventory [put]
func GetReplaceInventoryFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var vehicles []*model.InventoryVehicle
		if err := c.Bind(&vehicles); err != nil {
			return err
		}

		if err := srv.ReplaceInventory(vehicles); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "inventory replaced"})
	}
}

// DeleteVehicle godoc
// @Summary Delete a vehicle
// @Produce json
// @Param stock path string true "Stock number"
// @Success 200 {object} dto.Reply
// @Failure 404 "error description"
// @Router /desk/inventory/{stock} [delete]
func GetDeleteVehicleFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := srv.DeleteVehicle(c.Param("stock")); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "vehicle deleted"})
	}
}

// GetCrm godoc
// @Summary List CRM entries
// @Produce json
// @Success 200 {array} model.CRMEntry
// @Router /desk/crm [get]
func GetCrmFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		entries, err := srv.GetCRM(caller(c).Id)
		if err != nil {
			return httpError(c, err)
		}
		if entries == nil {
			entries = []model.CRMEntry{}
		}
		return c.JSON(http.StatusOK, entries)
	}
}

// ReplaceCrm godoc
// @Summary Replace CRM entries
// @Accept json
// @Produce json
// @Param entries body []model.CRMEntry true "Full CRM list"
// @Success 200 {object} dto.Reply
// @Router /desk/crm [put]
func GetReplaceCrmFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var entries []*model.CRMEntry
		if err := c.Bind(&entries); err != nil {
			return err
		}

		if err := srv.ReplaceCRM(caller(c).Id, entries); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "crm replaced"})
	}
}

// DeleteCrmEntry godoc
// @Summary Delete a CRM entry
// @Produce json
// @Param id path int true "Entry id"
// @Success 200 {object} dto.Reply
// @Router /desk/crm/{id} [delete]
func GetDeleteCrmEntryFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid entry id")
		}

		if err := srv.DeleteCRMEntry(caller(c).Id, uint32(id)); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "entry deleted"})
	}
}

// GetDealLog godoc
// @Summary List logged deals
// @Produce json
// @Success 200 {array} model.DealLogEntry
// @Router /desk/deal-log [get]
func GetDealLogFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		entries, err := srv.GetDealLog(caller(c).Id)
		if err != nil {
			return httpError(c, err)
		}
		if entries == nil {
			entries = []model.DealLogEntry{}
		}
		return c.JSON(http.StatusOK, entries)
	}
}

// AddDealLogEntry godoc
// @Summary Log a deal
// @Accept json
// @Produce json
// @Success 200 {object} dto.Id
// @Failure 400 "error description"
// @Router /desk/deal-log [post]
func GetAddDealLogEntryFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := rawBody(c)
		if err != nil {
			return err
		}

		id, err := srv.AddDealLogEntry(caller(c).Id, body)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Id{Id: id})
	}
}

// DeleteDealLogEntry godoc
// @Summary Delete a logged deal
// @Produce json
// @Param id path int true "Entry id"
// @Success 200 {object} dto.Reply
// @Router /desk/deal-log/{id} [delete]
func GetDeleteDealLogEntryFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid entry id")
		}

		if err := srv.DeleteDealLogEntry(caller(c).Id, uint32(id)); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "entry deleted"})
	}
}

// GetLenderRates godoc
// @Summary Get lender rate overrides
// @Produce json
// @Success 200 "overrides JSON"
// @Router /desk/lender-rates [get]
func GetLenderRatesFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		rates, err := srv.GetLenderRates(caller(c).Id)
		if err != nil {
			return httpError(c, err)
		}
		return jsonOrEmpty(c, rates)
	}
}

// SaveLenderRates godoc
// @Summary Save lender rate overrides
// @Accept json
// @Produce json
// @Success 200 {object} dto.Reply
// @Router /desk/lender-rates [put]
func GetSaveLenderRatesFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := rawBody(c)
		if err != nil {
			return err
		}
		if err := srv.SaveLenderRates(caller(c).Id, body); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "rates saved"})
	}
}

// ResetLenderRates godoc
// @Summary Reset lender rate overrides
// @Produce json
// @Success 200 {object} dto.Reply
// @Router /desk/lender-rates [delete]
func GetResetLenderRatesFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := srv.ResetLenderRates(caller(c).Id); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "rates reset"})
	}
}

// GetScenarios godoc
// @Summary List saved scenarios
// @Produce json
// @Success 200 {array} model.Scenario
// @Router /desk/scenarios [get]
func GetScenariosFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		scenarios, err := srv.GetScenarios(caller(c).Id)
		if err != nil {
			return httpError(c, err)
		}
		if scenarios == nil {
			scenarios = []model.Scenario{}
		}
		return c.JSON(http.StatusOK, scenarios)
	}
}

// ReplaceScenarios godoc
// @Summary Replace saved scenarios
// @Accept json
// @Produce json
// @Param scenarios body []model.Scenario true "Scenario slots"
// @Success 200 {object} dto.Reply
// @Failure 400 "error description"
// @Router /desk/scenarios [put]
func GetReplaceScenariosFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var scenarios []*model.Scenario
		if err := c.Bind(&scenarios); err != nil {
			return err
		}

		if err := srv.ReplaceScenarios(caller(c).Id, scenarios); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, dto.Reply{Reply: "scenarios saved"})
	}
}

// LoadAll godoc
// @Summary Load every desk dataset
// @Produce json
// @Success 200 {object} dto.DeskData
// @Router /desk/load-all [get]
func GetLoadAllFunc(srv service.DeskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := srv.LoadAll(caller(c).Id)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, data)
	}
}

// rawBody reads the request body as a JSON document and returns it verbatim.
func rawBody(c echo.Context) (string, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "request body must be valid JSON")
	}
	return string(raw), nil
}

func jsonOrEmpty(c echo.Context, body string) error {
	if strings.TrimSpace(body) == "" {
		body = "{}"
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(body))
}

func emptyIfNilVehicles(vehicles []model.InventoryVehicle) []model.InventoryVehicle {
	if vehicles == nil {
		return []model.InventoryVehicle{}
	}
	return vehicles
}
