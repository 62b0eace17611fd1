package controller

import (
	"fmt"
	"net/http"

	"github.com/firstfin/sarah/log"
	"github.com/firstfin/sarah/service"
	"github.com/labstack/echo/v4"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// InboundSms godoc
// @Summary Receive inbound SMS
// @Description Carrier webhook for customer text messages. Acknowledges immediately, the reply goes out over the carrier API.
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param From formData string true "Sender phone number"
// @Param Body formData string true "Message text"
// @Success 200 "empty TwiML"
// @Router /webhook/sms [post]
func GetInboundSmsFunc(srv service.ConvoService) echo.HandlerFunc {
	return func(c echo.Context) error {
		from := c.FormValue("From")
		body := c.FormValue("Body")

		//ack first so the carrier never retries on slow turns
		go func() {
			if _, err := srv.HandleInbound(from, body); err != nil {
				log.Error.Println("inbound handling failed:", err)
			}
		}()

		return c.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, []byte(emptyTwiML))
	}
}

// Keypress godoc
// @Summary Receive voice drop keypress
// @Description Carrier webhook fired when a called customer presses a digit
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param From formData string true "Caller phone number"
// @Param Digits formData string true "Pressed digits"
// @Success 200 "TwiML with spoken response"
// @Router /webhook/keypress [post]
func GetKeypressFunc(srv service.ConvoService) echo.HandlerFunc {
	return func(c echo.Context) error {
		from := c.FormValue("From")
		digits := c.FormValue("Digits")

		speech, err := srv.HandleKeypress(from, digits)
		if err != nil {
			log.Error.Println("keypress handling failed:", err)
			speech = "Sorry, something went wrong. Goodbye!"
		}

		twiml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><Response><Say voice="alice">%s</Say></Response>`, speech)
		return c.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, []byte(twiml))
	}
}
