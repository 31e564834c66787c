package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type chatReq struct {
	Message string `json:"message"`
}

// chatReplies are checked in order; the first keyword found wins.
var chatReplies = []struct{ keyword, reply string }{
	{"ticket", "You can find your tickets in the Dashboard after logging in."},
	{"event", "We have many exciting events! Visit the Home page to explore."},
	{"payment", "Payments are handled securely during checkout."},
}

const chatDefault = "I'm your Eventify Assistant. How can I help you today?"

// Chat is the help desk assistant: canned answers keyed on keywords.
func Chat(c echo.Context) error {
	var req chatReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	msg := strings.ToLower(strings.TrimSpace(req.Message))
	if msg == "" {
		return badRequest(c, "Message cannot be empty")
	}
	for _, r := range chatReplies {
		if strings.Contains(msg, r.keyword) {
			return message(c, http.StatusOK, r.reply)
		}
	}
	return message(c, http.StatusOK, chatDefault)
}
