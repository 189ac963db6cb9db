package services

import "time"

// Handoff actions, tried by the client in order.
const (
	HandoffOpenNewTab      = "open_new_tab"
	HandoffShowLink        = "show_link"
	HandoffSameTabNavigate = "same_tab_navigate"
)

// HandoffStep is one tier of the redirect protocol.
type HandoffStep struct {
	Action      string `json:"action"`
	URL         string `json:"url"`
	DelayMs     int64  `json:"delayMs,omitempty"`
	Dismissable bool   `json:"dismissable,omitempty"`
}

// HandoffPlan tells the client how to deliver the shopper to checkout.
// Popup blockers often suppress a new tab opened after an await, so the
// link stays on screen and a same-tab navigation follows after a delay.
type HandoffPlan struct {
	CheckoutURL string        `json:"checkoutUrl"`
	Steps       []HandoffStep `json:"steps"`
}

// NewHandoffPlan builds the three-tier plan for a checkout URL.
func NewHandoffPlan(checkoutURL string, delay time.Duration) HandoffPlan {
	return HandoffPlan{
		CheckoutURL: checkoutURL,
		Steps: []HandoffStep{
			{Action: HandoffOpenNewTab, URL: checkoutURL},
			{Action: HandoffShowLink, URL: checkoutURL, Dismissable: true},
			{Action: HandoffSameTabNavigate, URL: checkoutURL, DelayMs: delay.Milliseconds()},
		},
	}
}
